package metadata

import (
	"math/bits"

	"github.com/pkg/errors"
)

// ErrInvalidCodedIndexTable is returned when a table is not in the eligible
// list of a coded index type. This is a contract violation by the caller and
// is never silently recovered.
var ErrInvalidCodedIndexTable = errors.New("table not eligible for coded index type")

// CodedIndexType names one of the coded-index field encodings of ECMA-335
// II.24.2.6. Each type carries a fixed ordered list of eligible tables; the
// position of a table in that list is its tag value.
type CodedIndexType int

const (
	TypeDefOrRef CodedIndexType = iota
	HasConstant
	HasCustomAttribute
	HasFieldMarshal
	HasDeclSecurity
	MemberRefParent
	HasSemantics
	MethodDefOrRef
	MemberForwarded
	Implementation
	CustomAttributeType
	ResolutionScope
	TypeOrMethodDef
	HasCustomDebugInformation

	NumCodedIndexTypes int = iota
)

var coded_index_names = [NumCodedIndexTypes]string{
	"TypeDefOrRef",
	"HasConstant",
	"HasCustomAttribute",
	"HasFieldMarshal",
	"HasDeclSecurity",
	"MemberRefParent",
	"HasSemantics",
	"MethodDefOrRef",
	"MemberForwarded",
	"Implementation",
	"CustomAttributeType",
	"ResolutionScope",
	"TypeOrMethodDef",
	"HasCustomDebugInformation",
}

func (c CodedIndexType) String() string {
	if c >= 0 && int(c) < NumCodedIndexTypes {
		return coded_index_names[c]
	}
	return "CodedIndexType(?)"
}

var coded_index_tables = [NumCodedIndexTypes][]TableId{
	TypeDefOrRef: {TableTypeDef, TableTypeRef, TableTypeSpec},
	HasConstant:  {TableField, TableParam, TableProperty},
	HasCustomAttribute: {
		TableMethodDef, TableField, TableTypeRef, TableTypeDef, TableParam,
		TableInterfaceImpl, TableMemberRef, TableModule, TableDeclSecurity,
		TableProperty, TableEvent, TableStandAloneSig, TableModuleRef,
		TableTypeSpec, TableAssembly, TableAssemblyRef, TableFile,
		TableExportedType, TableManifestResource, TableGenericParam,
		TableGenericParamConstraint, TableMethodSpec,
	},
	HasFieldMarshal: {TableField, TableParam},
	HasDeclSecurity: {TableTypeDef, TableMethodDef, TableAssembly},
	MemberRefParent: {
		TableTypeDef, TableTypeRef, TableModuleRef, TableMethodDef, TableTypeSpec,
	},
	HasSemantics:    {TableEvent, TableProperty},
	MethodDefOrRef:  {TableMethodDef, TableMemberRef},
	MemberForwarded: {TableField, TableMethodDef},
	Implementation:  {TableFile, TableAssemblyRef, TableExportedType},
	// Tags 0, 1 and 4 are "not used" per the standard but still occupy
	// encoding slots, so the list keeps five entries.
	CustomAttributeType: {
		TableMethodDef, TableMethodDef, TableMethodDef, TableMemberRef, TableMemberRef,
	},
	ResolutionScope: {TableModule, TableModuleRef, TableAssemblyRef, TableTypeRef},
	TypeOrMethodDef: {TableTypeDef, TableMethodDef},
	HasCustomDebugInformation: {
		TableMethodDef, TableField, TableTypeRef, TableTypeDef, TableParam,
		TableInterfaceImpl, TableMemberRef, TableModule, TableDeclSecurity,
		TableProperty, TableEvent, TableStandAloneSig, TableModuleRef,
		TableTypeSpec, TableAssembly, TableAssemblyRef, TableFile,
		TableExportedType, TableManifestResource, TableGenericParam,
		TableGenericParamConstraint, TableMethodSpec, TableDocument,
		TableLocalScope, TableLocalVariable, TableLocalConstant,
		TableImportScope,
	},
}

// Tables returns the ordered eligible-table list for this coded index type.
// The slice must not be mutated.
func (c CodedIndexType) Tables() []TableId {
	return coded_index_tables[c]
}

// TagBits is ceil(log2(len(Tables()))): the number of low bits that hold the
// table tag in an encoded value.
func (c CodedIndexType) TagBits() uint8 {
	n := len(coded_index_tables[c])
	return uint8(bits.Len(uint(n - 1)))
}

// EncodeCodedIndex packs a (table, row) pair into the coded index value
// (row << tagBits) | tag. A table outside the eligible list fails with
// ErrInvalidCodedIndexTable; it is never remapped to another tag.
func EncodeCodedIndex(table TableId, row uint32, c CodedIndexType) (uint32, error) {
	tag := -1
	for i, t := range c.Tables() {
		if t == table {
			tag = i
			break
		}
	}
	if tag < 0 {
		return 0, errors.Wrapf(ErrInvalidCodedIndexTable, "table %s in %s", table, c)
	}
	return row<<c.TagBits() | uint32(tag), nil
}

// DecodeCodedIndex splits an encoded value back into its table and row.
func DecodeCodedIndex(value uint32, c CodedIndexType) (TableId, uint32, error) {
	tables := c.Tables()
	tag_bits := c.TagBits()
	tag := value & (1<<tag_bits - 1)
	if int(tag) >= len(tables) {
		return 0, 0, errors.Wrapf(ErrInvalidCodedIndexTable, "tag %d in %s", tag, c)
	}
	return tables[tag], value >> tag_bits, nil
}

// CodedIndexTypes returns every coded index type, in tag-catalog order.
func CodedIndexTypes() []CodedIndexType {
	out := make([]CodedIndexType, NumCodedIndexTypes)
	for i := range out {
		out[i] = CodedIndexType(i)
	}
	return out
}
