package conn_test

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	. "github.com/cilforge/cilforge/internal/conn"
	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/internal/view"
	"github.com/cilforge/cilforge/pkg"
	"github.com/google/uuid"
	"gotest.tools/assert"
)

func reqEncode(fields map[string]any) []byte {
	v, _ := json.Marshal(fields)
	return v
}

func newTestSession(t *testing.T) *Session {
	t.Helper()

	tables := []byte{}
	tables = binary.LittleEndian.AppendUint32(tables, 0)
	tables = append(tables, 2, 0, 0x00, 1)
	tables = binary.LittleEndian.AppendUint64(tables, 1<<uint(metadata.TableModule))
	tables = binary.LittleEndian.AppendUint64(tables, 0)
	tables = binary.LittleEndian.AppendUint32(tables, 1)
	for _, v := range []uint16{0, 1, 1, 0, 0} {
		tables = binary.LittleEndian.AppendUint16(tables, v)
	}

	mvid := uuid.MustParse("7d1f0928-0002-4000-8000-00000000000a")
	blob, err := view.ComposeRoot("v4.0.30319", []view.NamedStream{
		{Name: view.StreamTables, Data: tables},
		{Name: view.StreamStrings, Data: []byte("\x00Test\x00\x00\x00")},
		{Name: view.StreamUserStrings, Data: []byte{0, 0, 0, 0}},
		{Name: view.StreamGuid, Data: mvid[:]},
		{Name: view.StreamBlob, Data: []byte{0, 0, 0, 0}},
	})
	assert.NilError(t, err)

	assembly, err := view.ParseAssembly(blob)
	assert.NilError(t, err)
	return NewSession(assembly)
}

func TestCreateRowReqHandler(t *testing.T) {
	t.Run("table not found", func(t *testing.T) {
		s := newTestSession(t)
		res := CreateRowReqHandler(s, reqEncode(map[string]any{"table": "NoSuchTable", "rid": 1}))

		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
		assert.Equal(t, res.Message, "Table not found")
	})

	t.Run("column count mismatch", func(t *testing.T) {
		s := newTestSession(t)
		res := CreateRowReqHandler(s, reqEncode(map[string]any{
			"table": "TypeRef", "rid": 1, "row": []any{1, 2},
		}))

		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
		assert.ErrorContains(t, fmt.Errorf(res.Message), "3 columns, got 2")
	})

	t.Run("simple create", func(t *testing.T) {
		s := newTestSession(t)
		res := CreateRowReqHandler(s, reqEncode(map[string]any{
			"table": "TypeRef", "rid": 1, "row": []any{0, 6, 0},
		}))

		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
		assert.Equal(t, res.Message, "Created row 1 in table TypeRef")
		assert.Assert(t, s.Changes.HasChanges())
	})

	t.Run("zero rid rejected", func(t *testing.T) {
		s := newTestSession(t)
		res := CreateRowReqHandler(s, reqEncode(map[string]any{
			"table": "TypeRef", "rid": 0, "row": []any{0, 0, 0},
		}))

		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
	})
}

func TestHeapReqHandlers(t *testing.T) {
	s := newTestSession(t)

	t.Run("add string returns provisional index", func(t *testing.T) {
		res := AddStringReqHandler(s, reqEncode(map[string]any{"value": "Hello"}))
		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
		data := res.Data.(pkg.Map[string, any])
		// original #Strings heap is 8 bytes
		assert.Equal(t, data["index"], uint32(8))
	})

	t.Run("add guid validates the value", func(t *testing.T) {
		res := AddGuidReqHandler(s, reqEncode(map[string]any{"value": "not-a-guid"}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)

		res = AddGuidReqHandler(s, reqEncode(map[string]any{
			"value": "11111111-2222-3333-4444-555555555555",
		}))
		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
		data := res.Data.(pkg.Map[string, any])
		assert.Equal(t, data["index"], uint32(2))
	})
}

func TestActionHandler(t *testing.T) {
	t.Run("unknown action", func(t *testing.T) {
		s := newTestSession(t)
		res := ActionHandler(s, "bogus", nil)
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
	})

	t.Run("commit seals the session", func(t *testing.T) {
		s := newTestSession(t)
		res := ActionHandler(s, RequestActionAddString, reqEncode(map[string]any{"value": "X"}))
		assert.Equal(t, res.Status, http.StatusCreated, res.Message)

		res = ActionHandler(s, RequestActionCommit, nil)
		assert.Equal(t, res.Status, http.StatusOK, res.Message)

		res = ActionHandler(s, RequestActionAddString, reqEncode(map[string]any{"value": "Y"}))
		assert.Equal(t, res.Status, http.StatusConflict, res.Message)

		res = ActionHandler(s, RequestActionCommit, nil)
		assert.Equal(t, res.Status, http.StatusConflict, res.Message)

		// read-only stats still answer
		res = ActionHandler(s, RequestActionStats, nil)
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
	})
}
