package edit

import (
	"fmt"

	"github.com/cilforge/cilforge/internal/metadata"
)

// OpKind is the variant tag of a table operation.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "op(?)"
}

// TableOperation is one pending edit against a table row. Operations are
// immutable once created. Seq is an explicit monotonically increasing
// sequence number handed out by the owning session; conflict resolution is
// driven by Seq alone, never by wall-clock time or collection order.
type TableOperation struct {
	Seq  uint64
	Kind OpKind
	Rid  uint32
	Row  metadata.Row // payload for insert/update, nil for delete
}

func (op TableOperation) String() string {
	return fmt.Sprintf("%s(rid=%d, seq=%d)", op.Kind, op.Rid, op.Seq)
}
