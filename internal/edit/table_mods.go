package edit

import (
	"github.com/cilforge/cilforge/internal/metadata"
	sorted "github.com/tobshub/go-sortedmap"
)

func tableOpComparisonFunc(a, b TableOperation) bool {
	return a.Seq < b.Seq
}

// TableMods is the pending operation journal for one table, keyed and
// ordered by sequence number so replay order is independent of collection
// order.
type TableMods struct {
	Table metadata.TableId

	journal *sorted.SortedMap[uint64, TableOperation]
}

func NewTableMods(table metadata.TableId) *TableMods {
	return &TableMods{
		Table:   table,
		journal: sorted.New[uint64, TableOperation](0, tableOpComparisonFunc),
	}
}

func (m *TableMods) Record(op TableOperation) {
	if !m.journal.Insert(op.Seq, op) {
		m.journal.Replace(op.Seq, op)
	}
}

func (m *TableMods) Len() int { return m.journal.Len() }

// Operations returns the journal in ascending sequence order.
func (m *TableMods) Operations() []TableOperation {
	ops := make([]TableOperation, 0, m.journal.Len())
	iterCh, err := m.journal.IterCh()
	if err != nil {
		// empty journal
		return ops
	}
	defer iterCh.Close()
	for rec := range iterCh.Records() {
		ops = append(ops, rec.Val)
	}
	return ops
}
