package writer

import (
	"sync/atomic"

	"github.com/cilforge/cilforge/internal/edit"
	"github.com/cilforge/cilforge/internal/heap"
	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/internal/remap"
	"github.com/cilforge/cilforge/internal/view"
	"github.com/cilforge/cilforge/pkg"
	"github.com/pkg/errors"
)

var ErrPipelineConsumed = errors.New("write pipeline already ran")

// Output is everything one write pass produces: the composed metadata
// blob, the individual streams, the sizing snapshot the rows were written
// under, and the combined remap tables so callers can patch cross-
// references held outside the metadata (IL token operands and the like).
type Output struct {
	Metadata []byte

	TablesStream []byte
	Strings      []byte
	Blob         []byte
	Guid         []byte
	UserStrings  []byte

	HeapSizesFlags byte
	FinalRowCounts map[metadata.TableId]uint32
	Info           *metadata.TableInfo
	Remapper       *remap.IndexRemapper
	HeapModes      map[string]heap.BuildMode
}

// Pipeline runs one complete reconciliation pass: remap every edited
// table, build every heap, snapshot sizes, serialize rows, compose the
// root. It consumes the edit session exactly once; the pass either
// produces a complete Output or fails without partial results.
type Pipeline struct {
	assembly *view.Assembly
	changes  *edit.AssemblyChanges
	consumed atomic.Bool
}

func NewPipeline(assembly *view.Assembly, changes *edit.AssemblyChanges) *Pipeline {
	return &Pipeline{assembly: assembly, changes: changes}
}

func (p *Pipeline) Run() (*Output, error) {
	if !p.consumed.CompareAndSwap(false, true) {
		return nil, ErrPipelineConsumed
	}

	var out *Output
	var err error
	pkg.LockWrap(p.changes, func() {
		out, err = p.run()
	})
	return out, err
}

func (p *Pipeline) run() (*Output, error) {
	remapper := remap.NewIndexRemapper()
	final_counts := map[metadata.TableId]uint32{}
	row_data := map[metadata.TableId]map[uint32]metadata.Row{}

	// pass 1: placement plans for every table that has rows or edits
	for _, id := range metadata.TableIds() {
		original_count := p.assembly.Tables.RowCounts[id]
		var ops []edit.TableOperation
		if p.changes.Tables.Has(id) {
			ops = p.changes.Tables.Get(id).Operations()
		}
		if original_count == 0 && len(ops) == 0 {
			continue
		}
		if _, ok := metadata.SchemaFor(id); !ok {
			return nil, errors.Errorf("edits target table %s, which has no row schema", id)
		}

		rr := remap.BuildFromOperations(ops, original_count)
		remapper.SetTableRemapper(id, rr)
		if rr.FinalRowCount() > 0 {
			final_counts[id] = rr.FinalRowCount()
		}
		if payloads := latestRowPayloads(ops); len(payloads) > 0 {
			row_data[id] = payloads
		}
		pkg.DebugLog("remapped table", id.String(), "rows", original_count, "->", rr.FinalRowCount())
	}

	// pass 2: heaps
	builders := []heap.Builder{
		heap.NewStringsBuilder(p.assembly.Strings, p.changes.Strings),
		heap.NewBlobBuilder(p.assembly.Blob, p.changes.Blobs),
		heap.NewGuidBuilder(p.assembly.Guid, p.changes.Guids),
		heap.NewUserStringsBuilder(p.assembly.UserStrings, p.changes.UserStrings),
	}
	built := map[string][]byte{}
	modes := map[string]heap.BuildMode{}
	for _, b := range builders {
		data, err := b.Build()
		if err != nil {
			return nil, errors.Wrapf(err, "building %s", b.Name())
		}
		built[b.Name()] = data
		modes[b.Name()] = b.Mode()
		pkg.DebugLog("built heap", b.Name(), "mode", b.Mode().String(), "bytes", len(data))
	}
	remapper.SetStringMappings(builders[0].IndexMappings())
	remapper.SetBlobMappings(builders[1].IndexMappings())
	remapper.SetGuidMappings(builders[2].IndexMappings())
	remapper.SetUserStringMappings(builders[3].IndexMappings())

	// pass 3: sizing snapshot, taken only now that every count is final
	strings_bytes := built[view.StreamStrings]
	blob_bytes := built[view.StreamBlob]
	guid_bytes := built[view.StreamGuid]
	us_bytes := built[view.StreamUserStrings]

	info := metadata.NewTableInfoFromHeapSizes(final_counts,
		uint32(len(strings_bytes)), uint32(len(guid_bytes)), uint32(len(blob_bytes)))

	var heap_flags byte
	if uint32(len(strings_bytes)) > metadata.LargeHeapThreshold {
		heap_flags |= 0x01
	}
	if uint32(len(guid_bytes)) > metadata.LargeHeapThreshold {
		heap_flags |= 0x02
	}
	if uint32(len(blob_bytes)) > metadata.LargeHeapThreshold {
		heap_flags |= 0x04
	}

	// pass 4: rows
	tables_stream, err := writeTablesStream(tablesStreamSpec{
		assembly:     p.assembly,
		remapper:     remapper,
		info:         info,
		final_counts: final_counts,
		row_data:     row_data,
		heap_flags:   heap_flags,
		sorted:       p.assembly.Tables.Sorted,
	})
	if err != nil {
		return nil, err
	}

	// pass 5: root composition
	streams := []view.NamedStream{{Name: view.StreamTables, Data: tables_stream}}
	if len(strings_bytes) > 0 {
		streams = append(streams, view.NamedStream{Name: view.StreamStrings, Data: strings_bytes})
	}
	if len(us_bytes) > 0 {
		streams = append(streams, view.NamedStream{Name: view.StreamUserStrings, Data: us_bytes})
	}
	if len(guid_bytes) > 0 {
		streams = append(streams, view.NamedStream{Name: view.StreamGuid, Data: guid_bytes})
	}
	if len(blob_bytes) > 0 {
		streams = append(streams, view.NamedStream{Name: view.StreamBlob, Data: blob_bytes})
	}
	blob, err := view.ComposeRoot(p.assembly.Root.Version, streams)
	if err != nil {
		return nil, err
	}

	return &Output{
		Metadata:       blob,
		TablesStream:   tables_stream,
		Strings:        strings_bytes,
		Blob:           blob_bytes,
		Guid:           guid_bytes,
		UserStrings:    us_bytes,
		HeapSizesFlags: heap_flags,
		FinalRowCounts: final_counts,
		Info:           info,
		Remapper:       remapper,
		HeapModes:      modes,
	}, nil
}

// latestRowPayloads reduces a table's operations to the surviving row
// bytes per RID: inserts and updates contribute their payload, a later
// delete clears it.
func latestRowPayloads(ops []edit.TableOperation) map[uint32]metadata.Row {
	payloads := map[uint32]metadata.Row{}
	for _, op := range ops {
		switch op.Kind {
		case edit.OpInsert, edit.OpUpdate:
			payloads[op.Rid] = op.Row
		case edit.OpDelete:
			delete(payloads, op.Rid)
		}
	}
	return payloads
}
