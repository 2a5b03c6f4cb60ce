package conn

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/pkg"
	"github.com/google/uuid"
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId int `json:"__cf_client_req_id__"`
}

func (r Response) Marshal() []byte {
	buf, _ := json.Marshal(r)
	return buf
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

type RowRequest struct {
	Table string `json:"table"`
	Rid   uint32 `json:"rid"`
	Row   []any  `json:"row"`
}

// parseRowTarget resolves the table name and checks the RID; handlers that
// carry row data validate that separately.
func parseRowTarget(raw []byte) (RowRequest, metadata.TableId, *Response) {
	var req RowRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		res := NewErrorResponse(http.StatusBadRequest, err.Error())
		return req, 0, &res
	}
	id, ok := metadata.TableIdByName(req.Table)
	if !ok {
		res := NewErrorResponse(http.StatusNotFound, "Table not found")
		return req, 0, &res
	}
	if req.Rid == 0 {
		res := NewErrorResponse(http.StatusBadRequest, "RID must be positive")
		return req, 0, &res
	}
	return req, id, nil
}

// coerceRow converts the JSON numbers of a row payload and checks the
// column count against the table schema.
func coerceRow(req RowRequest, id metadata.TableId) (metadata.Row, *Response) {
	schema, ok := metadata.SchemaFor(id)
	if !ok {
		res := NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("table %s has no row schema", req.Table))
		return nil, &res
	}
	if len(req.Row) != len(schema) {
		res := NewErrorResponse(http.StatusBadRequest,
			fmt.Sprintf("table %s rows have %d columns, got %d", req.Table, len(schema), len(req.Row)))
		return nil, &res
	}
	row := make(metadata.Row, len(req.Row))
	for i, v := range req.Row {
		row[i] = uint32(pkg.NumToInt(v))
	}
	return row, nil
}

func CreateRowReqHandler(s *Session, raw []byte) Response {
	req, id, errRes := parseRowTarget(raw)
	if errRes != nil {
		return *errRes
	}
	row, errRes := coerceRow(req, id)
	if errRes != nil {
		return *errRes
	}

	s.Changes.InsertRow(id, req.Rid, row)
	return NewResponse(http.StatusCreated,
		fmt.Sprintf("Created row %d in table %s", req.Rid, req.Table),
		pkg.Map[string, any]{"table": req.Table, "rid": req.Rid})
}

func UpdateRowReqHandler(s *Session, raw []byte) Response {
	req, id, errRes := parseRowTarget(raw)
	if errRes != nil {
		return *errRes
	}
	row, errRes := coerceRow(req, id)
	if errRes != nil {
		return *errRes
	}

	s.Changes.UpdateRow(id, req.Rid, row)
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Updated row %d in table %s", req.Rid, req.Table),
		pkg.Map[string, any]{"table": req.Table, "rid": req.Rid})
}

func DeleteRowReqHandler(s *Session, raw []byte) Response {
	req, id, errRes := parseRowTarget(raw)
	if errRes != nil {
		return *errRes
	}

	s.Changes.DeleteRow(id, req.Rid)
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Deleted row %d in table %s", req.Rid, req.Table),
		pkg.Map[string, any]{"table": req.Table, "rid": req.Rid})
}

type StringRequest struct {
	Index uint32 `json:"index"`
	Value string `json:"value"`
}

func AddStringReqHandler(s *Session, raw []byte) Response {
	var req StringRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	index := s.Changes.AddString(req.Value)
	return NewResponse(http.StatusCreated, "Added string", pkg.Map[string, any]{"index": index})
}

func ModifyStringReqHandler(s *Session, raw []byte) Response {
	var req StringRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	s.Changes.Strings.Modify(req.Index, req.Value)
	return NewResponse(http.StatusOK, fmt.Sprintf("Modified string at %d", req.Index), nil)
}

func RemoveStringReqHandler(s *Session, raw []byte) Response {
	var req StringRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	s.Changes.Strings.Remove(req.Index)
	return NewResponse(http.StatusOK, fmt.Sprintf("Removed string at %d", req.Index), nil)
}

type BlobRequest struct {
	Index uint32 `json:"index"`
	Data  []byte `json:"data"` // base64 in transit
}

func AddBlobReqHandler(s *Session, raw []byte) Response {
	var req BlobRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	index := s.Changes.AddBlob(req.Data)
	return NewResponse(http.StatusCreated, "Added blob", pkg.Map[string, any]{"index": index})
}

func ModifyBlobReqHandler(s *Session, raw []byte) Response {
	var req BlobRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	s.Changes.Blobs.Modify(req.Index, req.Data)
	return NewResponse(http.StatusOK, fmt.Sprintf("Modified blob at %d", req.Index), nil)
}

func RemoveBlobReqHandler(s *Session, raw []byte) Response {
	var req BlobRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	s.Changes.Blobs.Remove(req.Index)
	return NewResponse(http.StatusOK, fmt.Sprintf("Removed blob at %d", req.Index), nil)
}

type GuidRequest struct {
	Value string `json:"value"`
}

func AddGuidReqHandler(s *Session, raw []byte) Response {
	var req GuidRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	g, err := uuid.Parse(req.Value)
	if err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	index := s.Changes.AddGuid(g)
	return NewResponse(http.StatusCreated, "Added GUID", pkg.Map[string, any]{"index": index})
}

func AddUserStringReqHandler(s *Session, raw []byte) Response {
	var req StringRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	index := s.Changes.AddUserString(req.Value)
	return NewResponse(http.StatusCreated, "Added user string", pkg.Map[string, any]{"index": index})
}

func StatsReqHandler(s *Session) Response {
	sizes := s.Assembly.HeapSizes()
	return NewResponse(http.StatusOK, "Session stats", pkg.Map[string, any]{
		"tables":      s.Assembly.RowCounts(),
		"strings":     sizes.Strings,
		"blobs":       sizes.Blobs,
		"guids":       sizes.GuidCount,
		"userStrings": sizes.UserStrings,
		"pending":     s.Changes.HasChanges(),
		"committed":   s.Committed(),
	})
}

func CommitReqHandler(s *Session) Response {
	out, err := s.Commit()
	if err != nil {
		if err == ErrSessionCommitted {
			return NewErrorResponse(http.StatusConflict, err.Error())
		}
		return NewErrorResponse(http.StatusUnprocessableEntity, err.Error())
	}

	row_counts := pkg.Map[string, any]{}
	for id, n := range out.FinalRowCounts {
		row_counts.Set(id.String(), n)
	}
	modes := pkg.Map[string, any]{}
	for name, mode := range out.HeapModes {
		modes.Set(name, mode.String())
	}
	return NewResponse(http.StatusOK, "Committed", pkg.Map[string, any]{
		"size":      len(out.Metadata),
		"rowCounts": row_counts,
		"heapModes": modes,
	})
}

func ActionHandler(s *Session, action RequestAction, raw []byte) Response {
	if action.IsReadOnly() {
		s.GetLocker().RLock()
		defer s.GetLocker().RUnlock()
	} else {
		s.GetLocker().Lock()
		defer s.GetLocker().Unlock()
		if s.Committed() && action != RequestActionCommit {
			return NewErrorResponse(http.StatusConflict, ErrSessionCommitted.Error())
		}
	}

	switch action {
	case RequestActionCreateRow:
		return CreateRowReqHandler(s, raw)
	case RequestActionUpdateRow:
		return UpdateRowReqHandler(s, raw)
	case RequestActionDeleteRow:
		return DeleteRowReqHandler(s, raw)
	case RequestActionAddString:
		return AddStringReqHandler(s, raw)
	case RequestActionModifyString:
		return ModifyStringReqHandler(s, raw)
	case RequestActionRemoveString:
		return RemoveStringReqHandler(s, raw)
	case RequestActionAddBlob:
		return AddBlobReqHandler(s, raw)
	case RequestActionModifyBlob:
		return ModifyBlobReqHandler(s, raw)
	case RequestActionRemoveBlob:
		return RemoveBlobReqHandler(s, raw)
	case RequestActionAddGuid:
		return AddGuidReqHandler(s, raw)
	case RequestActionAddUserString:
		return AddUserStringReqHandler(s, raw)
	case RequestActionStats:
		return StatsReqHandler(s)
	case RequestActionCommit:
		return CommitReqHandler(s)
	default:
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown action: %s", action))
	}
}
