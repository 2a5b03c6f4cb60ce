package edit

import "github.com/cilforge/cilforge/pkg"

// HeapChanges tracks pending edits against one metadata heap. T is string
// for #Strings and #US, []byte for #Blob, and uuid.UUID for #GUID.
//
// Indices follow the runtime convention: byte offsets into the heap (slot
// numbers for the GUID heap), index 0 reserved. NextIndex continues from
// the original heap size, so appended items get the index they will occupy
// if nothing before them moves.
//
// A full replacement short-circuits incremental state: setting one clears
// any recorded modifications and removals, and later appends land after the
// replacement bytes.
type HeapChanges[T any] struct {
	Appended        []T
	AppendedIndices []uint32
	Modified        pkg.Map[uint32, T]
	Removed         map[uint32]struct{}
	NextIndex       uint32

	replacement     []byte
	has_replacement bool
}

func NewHeapChanges[T any](original_size uint32) *HeapChanges[T] {
	return &HeapChanges[T]{
		Modified:  pkg.Map[uint32, T]{},
		Removed:   map[uint32]struct{}{},
		NextIndex: original_size,
	}
}

// Append records a new item of the given encoded byte size (1 for GUID
// slots) and returns its provisional heap index.
func (h *HeapChanges[T]) Append(item T, size uint32) uint32 {
	index := h.NextIndex
	h.Appended = append(h.Appended, item)
	h.AppendedIndices = append(h.AppendedIndices, index)
	h.NextIndex += size
	return index
}

func (h *HeapChanges[T]) Modify(index uint32, item T) {
	h.Modified.Set(index, item)
	delete(h.Removed, index)
}

func (h *HeapChanges[T]) Remove(index uint32) {
	h.Removed[index] = struct{}{}
	h.Modified.Delete(index)
}

// Replace swaps in a complete new heap image. Incremental state recorded so
// far applied to the original heap, so it is discarded.
func (h *HeapChanges[T]) Replace(data []byte) {
	h.replacement = data
	h.has_replacement = true
	h.Appended = nil
	h.AppendedIndices = nil
	h.Modified = pkg.Map[uint32, T]{}
	h.Removed = map[uint32]struct{}{}
	h.NextIndex = uint32(len(data))
}

func (h *HeapChanges[T]) Replacement() ([]byte, bool) {
	return h.replacement, h.has_replacement
}

func (h *HeapChanges[T]) IsRemoved(index uint32) bool {
	_, ok := h.Removed[index]
	return ok
}

func (h *HeapChanges[T]) Modification(index uint32) (T, bool) {
	if !h.Modified.Has(index) {
		var zero T
		return zero, false
	}
	return h.Modified.Get(index), true
}

func (h *HeapChanges[T]) HasChanges() bool {
	return len(h.Appended) > 0 || len(h.Modified) > 0 || len(h.Removed) > 0 || h.has_replacement
}
