package heap

import (
	"bytes"
	"testing"

	"github.com/cilforge/cilforge/internal/edit"
	"gotest.tools/assert"
)

// heap layout: "" @0, "Hi" @1, "World" @4, "Last" @10
func sampleStringHeap() []byte {
	return []byte("\x00Hi\x00World\x00Last\x00")
}

func TestStringsBuilderOffsetPreservation(t *testing.T) {
	original := sampleStringHeap()
	changes := edit.NewHeapChanges[string](uint32(len(original)))
	changes.Append("Extra", 6)

	b := NewStringsBuilder(original, changes)
	assert.Equal(t, b.Mode(), ModeIncremental)

	built, err := b.Build()
	assert.NilError(t, err)

	// untouched items keep both offset and content
	assert.Assert(t, bytes.HasPrefix(built, original))
	assert.Equal(t, len(b.IndexMappings()), 0)
	assert.Equal(t, string(built[len(original):len(original)+5]), "Extra")
}

func TestStringsBuilderGrowRelocates(t *testing.T) {
	original := sampleStringHeap()
	changes := edit.NewHeapChanges[string](uint32(len(original)))
	changes.Modify(1, "Hello") // "Hi" has no room for "Hello"

	b := NewStringsBuilder(original, changes)
	built, err := b.Build()
	assert.NilError(t, err)

	moved, ok := b.IndexMappings()[1]
	assert.Assert(t, ok)
	assert.Equal(t, moved, uint32(len(original)))
	assert.Equal(t, string(built[moved:moved+5]), "Hello")

	// the old slot is zeroed, old offset now reads as empty string
	assert.Equal(t, built[1], byte(0))
	assert.Equal(t, built[2], byte(0))
}

func TestStringsBuilderInPlaceShrink(t *testing.T) {
	original := sampleStringHeap()
	changes := edit.NewHeapChanges[string](uint32(len(original)))
	changes.Modify(4, "Wor")

	b := NewStringsBuilder(original, changes)
	built, err := b.Build()
	assert.NilError(t, err)

	assert.Equal(t, len(b.IndexMappings()), 0)
	assert.Equal(t, string(built[4:7]), "Wor")
	assert.Equal(t, built[7], byte(0))
	assert.Equal(t, built[8], byte(0))
	// neighbors untouched
	assert.Equal(t, string(built[10:14]), "Last")
}

func TestStringsBuilderRemovalZeroesInPlace(t *testing.T) {
	original := sampleStringHeap()
	changes := edit.NewHeapChanges[string](uint32(len(original)))
	changes.Remove(4)

	b := NewStringsBuilder(original, changes)
	built, err := b.Build()
	assert.NilError(t, err)

	for i := 4; i < 9; i++ {
		assert.Equal(t, built[i], byte(0))
	}
	assert.Equal(t, len(built), 16) // only padding grows the heap
	assert.Equal(t, string(built[10:14]), "Last")
}

func TestStringsBuilderAlignment(t *testing.T) {
	changes := edit.NewHeapChanges[string](0)
	changes.Append("abc", 4)

	b := NewStringsBuilder(nil, changes)
	assert.Equal(t, b.Mode(), ModeRebuild)

	built, err := b.Build()
	assert.NilError(t, err)
	assert.Equal(t, len(built)%4, 0)
	assert.Equal(t, built[0], byte(0))

	// provisional index 0 collided with the reserved null entry
	assert.Equal(t, b.IndexMappings()[0], uint32(1))
}

func TestStringsBuilderReplacementWins(t *testing.T) {
	original := sampleStringHeap()
	changes := edit.NewHeapChanges[string](uint32(len(original)))
	changes.Modify(1, "Hello")
	changes.Replace([]byte("\x00New\x00"))

	b := NewStringsBuilder(original, changes)
	assert.Equal(t, b.Mode(), ModeReplace)

	built, err := b.Build()
	assert.NilError(t, err)
	assert.Equal(t, string(built[1:4]), "New")
	assert.Equal(t, len(built)%4, 0)
	assert.Equal(t, len(b.IndexMappings()), 0)
}

func TestStringsBuilderEditsOnAppendedItems(t *testing.T) {
	original := sampleStringHeap()
	changes := edit.NewHeapChanges[string](uint32(len(original)))
	first := changes.Append("One", 4)
	second := changes.Append("Two", 4)
	third := changes.Append("Three", 6)

	changes.Remove(first)
	changes.Modify(second, "Two!")

	b := NewStringsBuilder(original, changes)
	built, err := b.Build()
	assert.NilError(t, err)

	// removed append never emitted; survivors shift and get mappings
	base := uint32(len(original))
	assert.Equal(t, string(built[base:base+4]), "Two!")
	moved_second, ok := b.IndexMappings()[second]
	assert.Assert(t, ok)
	assert.Equal(t, moved_second, base)
	moved_third, ok := b.IndexMappings()[third]
	assert.Assert(t, ok)
	assert.Equal(t, string(built[moved_third:moved_third+5]), "Three")
}

func TestStringsBuilderRejectsUnknownIndex(t *testing.T) {
	original := sampleStringHeap()
	changes := edit.NewHeapChanges[string](uint32(len(original)))
	changes.Remove(100)

	_, err := NewStringsBuilder(original, changes).Build()
	assert.ErrorContains(t, err, "out of bounds")
}

func TestStringsBuilderMissingTerminator(t *testing.T) {
	original := []byte("\x00Hi") // no trailing null
	changes := edit.NewHeapChanges[string](uint32(len(original)))
	changes.Remove(1)

	_, err := NewStringsBuilder(original, changes).Build()
	assert.ErrorContains(t, err, "no terminator")
}
