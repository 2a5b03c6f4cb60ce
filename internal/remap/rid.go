package remap

import (
	"sort"

	"github.com/cilforge/cilforge/internal/edit"
	"github.com/google/btree"
)

// RidRemapper is the final placement plan for one table's rows: a total
// mapping from original RID to final RID (or deleted). Final RIDs are
// always the contiguous range 1..FinalRowCount with no gaps, as ECMA-335
// requires. Exactly one remapper exists per table per write pass.
//
// Construction replays the table's operations in sequence order, so the
// result is deterministic for a given operation set regardless of the order
// the slice was collected in. Every original RID in 1..original_count gets
// an explicit entry; there is no "maps to itself" fallback that could go
// stale when earlier rows shift.
type RidRemapper struct {
	forward map[uint32]uint32   // original -> final, surviving rows only
	deleted map[uint32]struct{} // originals with no final placement

	// final_to_original[final-1] = original, built alongside the forward
	// map so reverse lookup is O(1) during row serialization.
	final_to_original []uint32

	final_count uint32
	next_rid    uint32
}

func ridLess(a, b uint32) bool { return a < b }

// BuildFromOperations replays a table's operation journal against its
// original row count and produces the remapper. Conflicting edits are
// resolved by sequence order with last-write-wins; this never fails.
func BuildFromOperations(operations []edit.TableOperation, original_count uint32) *RidRemapper {
	r := &RidRemapper{
		forward: make(map[uint32]uint32, original_count),
		deleted: map[uint32]struct{}{},
	}

	ops := make([]edit.TableOperation, len(operations))
	copy(ops, operations)
	sort.Slice(ops, func(i, j int) bool { return ops[i].Seq < ops[j].Seq })

	deleted_rids := btree.NewG[uint32](8, ridLess)
	inserted_rids := btree.NewG[uint32](8, ridLess)

	for _, op := range ops {
		switch op.Kind {
		case edit.OpInsert:
			inserted_rids.ReplaceOrInsert(op.Rid)
			deleted_rids.Delete(op.Rid) // insert after delete un-deletes
		case edit.OpDelete:
			deleted_rids.ReplaceOrInsert(op.Rid)
			inserted_rids.Delete(op.Rid) // delete after insert cancels it
		case edit.OpUpdate:
			// the row still exists, whatever happened before
			deleted_rids.Delete(op.Rid)
		}
	}

	r.buildSequentialMapping(original_count, inserted_rids, deleted_rids)
	return r
}

// buildSequentialMapping assigns gap-free final RIDs: surviving original
// rows first in RID order, then inserted rows beyond the original range in
// ascending RID order.
func (r *RidRemapper) buildSequentialMapping(original_count uint32, inserted_rids, deleted_rids *btree.BTreeG[uint32]) {
	final_rid := uint32(1)

	for original := uint32(1); original <= original_count; original++ {
		if deleted_rids.Has(original) {
			r.deleted[original] = struct{}{}
			continue
		}
		r.forward[original] = final_rid
		r.final_to_original = append(r.final_to_original, original)
		final_rid++
	}

	inserted_rids.Ascend(func(rid uint32) bool {
		// RIDs inside the original range were already placed above.
		if rid > original_count {
			r.forward[rid] = final_rid
			r.final_to_original = append(r.final_to_original, rid)
			final_rid++
		}
		return true
	})

	r.final_count = final_rid - 1
	r.next_rid = final_rid
}

// MapRid returns the final RID for an original RID, or false if the row was
// deleted or the RID was never valid.
func (r *RidRemapper) MapRid(original uint32) (uint32, bool) {
	final, ok := r.forward[original]
	return final, ok
}

// ReverseLookup returns the original RID serialized at a final RID.
func (r *RidRemapper) ReverseLookup(final uint32) (uint32, bool) {
	if final == 0 || final > r.final_count {
		return 0, false
	}
	return r.final_to_original[final-1], true
}

// IsDeleted reports whether an original RID was removed by the edit set.
func (r *RidRemapper) IsDeleted(original uint32) bool {
	_, ok := r.deleted[original]
	return ok
}

// FinalRowCount is the table's row count after all operations.
func (r *RidRemapper) FinalRowCount() uint32 { return r.final_count }

// NextAvailableRid is FinalRowCount + 1.
func (r *RidRemapper) NextAvailableRid() uint32 { return r.next_rid }
