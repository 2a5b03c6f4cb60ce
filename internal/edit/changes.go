package edit

import (
	"sync"
	"sync/atomic"

	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/pkg"
	"github.com/google/uuid"
)

// HeapSizes carries the byte sizes (slot count for #GUID) of the original
// heaps, used to seed append index accounting.
type HeapSizes struct {
	Strings     uint32
	Blobs       uint32
	GuidCount   uint32
	UserStrings uint32
}

// AssemblyChanges accumulates every pending edit of one editing session:
// per-table operation journals plus one change set per heap. Edits may be
// submitted from several call sites; each gets a sequence number from the
// session's atomic counter, which alone decides replay order. The write
// pipeline consumes the accumulated state exactly once.
type AssemblyChanges struct {
	Locker sync.RWMutex

	seq atomic.Uint64

	Tables      pkg.Map[metadata.TableId, *TableMods]
	Strings     *HeapChanges[string]
	Blobs       *HeapChanges[[]byte]
	Guids       *HeapChanges[uuid.UUID]
	UserStrings *HeapChanges[string]
}

func NewAssemblyChanges(sizes HeapSizes) *AssemblyChanges {
	return &AssemblyChanges{
		Tables:      pkg.Map[metadata.TableId, *TableMods]{},
		Strings:     NewHeapChanges[string](sizes.Strings),
		Blobs:       NewHeapChanges[[]byte](sizes.Blobs),
		Guids:       NewHeapChanges[uuid.UUID](sizes.GuidCount + 1),
		UserStrings: NewHeapChanges[string](sizes.UserStrings),
	}
}

func (c *AssemblyChanges) GetLocker() *sync.RWMutex { return &c.Locker }

// NextSeq hands out the next operation sequence number.
func (c *AssemblyChanges) NextSeq() uint64 { return c.seq.Add(1) }

// TableMods returns the operation journal for a table, creating it on first
// use.
func (c *AssemblyChanges) TableMods(id metadata.TableId) *TableMods {
	if !c.Tables.Has(id) {
		c.Tables.Set(id, NewTableMods(id))
	}
	return c.Tables.Get(id)
}

func (c *AssemblyChanges) InsertRow(table metadata.TableId, rid uint32, row metadata.Row) {
	c.TableMods(table).Record(TableOperation{Seq: c.NextSeq(), Kind: OpInsert, Rid: rid, Row: row})
}

func (c *AssemblyChanges) UpdateRow(table metadata.TableId, rid uint32, row metadata.Row) {
	c.TableMods(table).Record(TableOperation{Seq: c.NextSeq(), Kind: OpUpdate, Rid: rid, Row: row})
}

func (c *AssemblyChanges) DeleteRow(table metadata.TableId, rid uint32) {
	c.TableMods(table).Record(TableOperation{Seq: c.NextSeq(), Kind: OpDelete, Rid: rid})
}

// AddString appends a string to the #Strings change set and returns its
// provisional heap offset.
func (c *AssemblyChanges) AddString(s string) uint32 {
	return c.Strings.Append(s, uint32(len(s))+1)
}

// AddBlob appends a blob; the consumed size includes the compressed length
// prefix.
func (c *AssemblyChanges) AddBlob(b []byte) uint32 {
	n := uint32(len(b))
	return c.Blobs.Append(b, metadata.CompressedUintSize(n)+n)
}

// AddGuid appends a GUID and returns its 1-based slot index.
func (c *AssemblyChanges) AddGuid(g uuid.UUID) uint32 {
	return c.Guids.Append(g, 1)
}

// AddUserString appends a user string; size is the compressed prefix plus
// UTF-16 payload plus the terminal flag byte.
func (c *AssemblyChanges) AddUserString(s string) uint32 {
	payload := userStringPayloadSize(s)
	return c.UserStrings.Append(s, metadata.CompressedUintSize(payload)+payload)
}

// userStringPayloadSize is the UTF-16LE byte count plus the trailing flag
// byte, matching what the #US heap builder will emit.
func userStringPayloadSize(s string) uint32 {
	var units uint32
	for _, r := range s {
		if r > 0xFFFF {
			units += 2 // surrogate pair
		} else {
			units++
		}
	}
	return units*2 + 1
}

// HasChanges reports whether anything at all is pending.
func (c *AssemblyChanges) HasChanges() bool {
	if c.Strings.HasChanges() || c.Blobs.HasChanges() ||
		c.Guids.HasChanges() || c.UserStrings.HasChanges() {
		return true
	}
	for _, mods := range c.Tables {
		if mods.Len() > 0 {
			return true
		}
	}
	return false
}
