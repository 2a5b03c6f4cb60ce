package edit

import (
	"sync"
	"testing"

	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/google/uuid"
	"gotest.tools/assert"
)

func TestSequenceNumbersOrderOperations(t *testing.T) {
	c := NewAssemblyChanges(HeapSizes{})

	c.InsertRow(metadata.TableTypeDef, 4, metadata.Row{1})
	c.DeleteRow(metadata.TableTypeDef, 4)
	c.InsertRow(metadata.TableTypeDef, 4, metadata.Row{2})

	ops := c.TableMods(metadata.TableTypeDef).Operations()
	assert.Equal(t, len(ops), 3)
	assert.Assert(t, ops[0].Seq < ops[1].Seq)
	assert.Assert(t, ops[1].Seq < ops[2].Seq)
	assert.Equal(t, ops[2].Kind, OpInsert)
	assert.Equal(t, ops[2].Row[0], uint32(2))
}

func TestSequenceNumbersUniqueAcrossTables(t *testing.T) {
	c := NewAssemblyChanges(HeapSizes{})
	seen := map[uint64]bool{}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				seq := c.NextSeq()
				mu.Lock()
				assert.Assert(t, !seen[seq])
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, len(seen), 800)
}

func TestHeapAppendIndexAccounting(t *testing.T) {
	c := NewAssemblyChanges(HeapSizes{Strings: 10, Blobs: 20, GuidCount: 2, UserStrings: 5})

	t.Run("strings advance by length plus terminator", func(t *testing.T) {
		assert.Equal(t, c.AddString("abc"), uint32(10))
		assert.Equal(t, c.AddString(""), uint32(14))
		assert.Equal(t, c.AddString("x"), uint32(15))
	})

	t.Run("blobs advance by prefix plus payload", func(t *testing.T) {
		assert.Equal(t, c.AddBlob([]byte{1, 2, 3}), uint32(20))
		assert.Equal(t, c.AddBlob(make([]byte, 0x80)), uint32(24))
		// 2-byte prefix this time
		assert.Equal(t, c.AddBlob(nil), uint32(24+2+0x80))
	})

	t.Run("guids advance by slot", func(t *testing.T) {
		assert.Equal(t, c.AddGuid(uuid.Nil), uint32(3))
		assert.Equal(t, c.AddGuid(uuid.Nil), uint32(4))
	})

	t.Run("user strings advance by utf-16 payload plus flag", func(t *testing.T) {
		// "Hi" = 2 units * 2 bytes + flag = 5 payload + 1 prefix
		assert.Equal(t, c.AddUserString("Hi"), uint32(5))
		assert.Equal(t, c.AddUserString("😀"), uint32(11))
		// surrogate pair: prefix 1 + 2*2 + flag = 6
		assert.Equal(t, c.AddUserString(""), uint32(17))
	})
}

func TestHeapChangesReplaceClearsIncrementalState(t *testing.T) {
	h := NewHeapChanges[string](8)
	h.Append("a", 2)
	h.Modify(3, "b")
	h.Remove(5)

	h.Replace([]byte{0, 1, 2, 3})

	replacement, ok := h.Replacement()
	assert.Assert(t, ok)
	assert.Equal(t, len(replacement), 4)
	assert.Equal(t, len(h.Appended), 0)
	assert.Equal(t, len(h.Modified), 0)
	assert.Equal(t, len(h.Removed), 0)
	// appends continue after the replacement image
	assert.Equal(t, h.Append("c", 2), uint32(4))
}

func TestHeapChangesModifyRemoveInteraction(t *testing.T) {
	h := NewHeapChanges[string](0)
	h.Modify(4, "x")
	h.Remove(4)
	assert.Assert(t, h.IsRemoved(4))
	_, modified := h.Modification(4)
	assert.Assert(t, !modified)

	h.Modify(4, "y")
	assert.Assert(t, !h.IsRemoved(4))
	v, modified := h.Modification(4)
	assert.Assert(t, modified)
	assert.Equal(t, v, "y")
}

func TestHasChanges(t *testing.T) {
	c := NewAssemblyChanges(HeapSizes{})
	assert.Assert(t, !c.HasChanges())

	c.AddString("s")
	assert.Assert(t, c.HasChanges())

	c = NewAssemblyChanges(HeapSizes{})
	c.DeleteRow(metadata.TableModule, 1)
	assert.Assert(t, c.HasChanges())
}
