package metadata

import "fmt"

// TableId identifies one of the ECMA-335 metadata tables. The numeric value
// is the table number from partition II.22, which is also the token prefix
// byte for rows of that table.
type TableId uint8

const (
	TableModule                 TableId = 0x00
	TableTypeRef                TableId = 0x01
	TableTypeDef                TableId = 0x02
	TableFieldPtr               TableId = 0x03
	TableField                  TableId = 0x04
	TableMethodPtr              TableId = 0x05
	TableMethodDef              TableId = 0x06
	TableParamPtr               TableId = 0x07
	TableParam                  TableId = 0x08
	TableInterfaceImpl          TableId = 0x09
	TableMemberRef              TableId = 0x0A
	TableConstant               TableId = 0x0B
	TableCustomAttribute        TableId = 0x0C
	TableFieldMarshal           TableId = 0x0D
	TableDeclSecurity           TableId = 0x0E
	TableClassLayout            TableId = 0x0F
	TableFieldLayout            TableId = 0x10
	TableStandAloneSig          TableId = 0x11
	TableEventMap               TableId = 0x12
	TableEventPtr               TableId = 0x13
	TableEvent                  TableId = 0x14
	TablePropertyMap            TableId = 0x15
	TablePropertyPtr            TableId = 0x16
	TableProperty               TableId = 0x17
	TableMethodSemantics        TableId = 0x18
	TableMethodImpl             TableId = 0x19
	TableModuleRef              TableId = 0x1A
	TableTypeSpec               TableId = 0x1B
	TableImplMap                TableId = 0x1C
	TableFieldRVA               TableId = 0x1D
	TableEncLog                 TableId = 0x1E
	TableEncMap                 TableId = 0x1F
	TableAssembly               TableId = 0x20
	TableAssemblyProcessor      TableId = 0x21
	TableAssemblyOS             TableId = 0x22
	TableAssemblyRef            TableId = 0x23
	TableAssemblyRefProcessor   TableId = 0x24
	TableAssemblyRefOS          TableId = 0x25
	TableFile                   TableId = 0x26
	TableExportedType           TableId = 0x27
	TableManifestResource       TableId = 0x28
	TableNestedClass            TableId = 0x29
	TableGenericParam           TableId = 0x2A
	TableMethodSpec             TableId = 0x2B
	TableGenericParamConstraint TableId = 0x2C

	// Portable PDB tables.
	TableDocument                TableId = 0x30
	TableMethodDebugInformation  TableId = 0x31
	TableLocalScope              TableId = 0x32
	TableLocalVariable           TableId = 0x33
	TableLocalConstant           TableId = 0x34
	TableImportScope             TableId = 0x35
	TableStateMachineMethod      TableId = 0x36
	TableCustomDebugInformation  TableId = 0x37
)

// NumTableIds is the size of any array indexed by TableId.
const NumTableIds = int(TableCustomDebugInformation) + 1

var table_names = map[TableId]string{
	TableModule:                 "Module",
	TableTypeRef:                "TypeRef",
	TableTypeDef:                "TypeDef",
	TableFieldPtr:               "FieldPtr",
	TableField:                  "Field",
	TableMethodPtr:              "MethodPtr",
	TableMethodDef:              "MethodDef",
	TableParamPtr:               "ParamPtr",
	TableParam:                  "Param",
	TableInterfaceImpl:          "InterfaceImpl",
	TableMemberRef:              "MemberRef",
	TableConstant:               "Constant",
	TableCustomAttribute:        "CustomAttribute",
	TableFieldMarshal:           "FieldMarshal",
	TableDeclSecurity:           "DeclSecurity",
	TableClassLayout:            "ClassLayout",
	TableFieldLayout:            "FieldLayout",
	TableStandAloneSig:          "StandAloneSig",
	TableEventMap:               "EventMap",
	TableEventPtr:               "EventPtr",
	TableEvent:                  "Event",
	TablePropertyMap:            "PropertyMap",
	TablePropertyPtr:            "PropertyPtr",
	TableProperty:               "Property",
	TableMethodSemantics:        "MethodSemantics",
	TableMethodImpl:             "MethodImpl",
	TableModuleRef:              "ModuleRef",
	TableTypeSpec:               "TypeSpec",
	TableImplMap:                "ImplMap",
	TableFieldRVA:               "FieldRVA",
	TableEncLog:                 "EncLog",
	TableEncMap:                 "EncMap",
	TableAssembly:               "Assembly",
	TableAssemblyProcessor:      "AssemblyProcessor",
	TableAssemblyOS:             "AssemblyOS",
	TableAssemblyRef:            "AssemblyRef",
	TableAssemblyRefProcessor:   "AssemblyRefProcessor",
	TableAssemblyRefOS:          "AssemblyRefOS",
	TableFile:                   "File",
	TableExportedType:           "ExportedType",
	TableManifestResource:       "ManifestResource",
	TableNestedClass:            "NestedClass",
	TableGenericParam:           "GenericParam",
	TableMethodSpec:             "MethodSpec",
	TableGenericParamConstraint: "GenericParamConstraint",
	TableDocument:               "Document",
	TableMethodDebugInformation: "MethodDebugInformation",
	TableLocalScope:             "LocalScope",
	TableLocalVariable:          "LocalVariable",
	TableLocalConstant:          "LocalConstant",
	TableImportScope:            "ImportScope",
	TableStateMachineMethod:     "StateMachineMethod",
	TableCustomDebugInformation: "CustomDebugInformation",
}

var table_ids_by_name = func() map[string]TableId {
	m := make(map[string]TableId, len(table_names))
	for id, name := range table_names {
		m[name] = id
	}
	return m
}()

func (id TableId) String() string {
	if name, ok := table_names[id]; ok {
		return name
	}
	return fmt.Sprintf("Table(0x%02X)", uint8(id))
}

// Valid reports whether id is a table number defined by ECMA-335 or the
// Portable PDB format.
func (id TableId) Valid() bool {
	_, ok := table_names[id]
	return ok
}

// TableIdByName resolves a table name ("TypeDef", "MethodDef", ...) to its
// TableId. Used by request handlers that take table names over the wire.
func TableIdByName(name string) (TableId, bool) {
	id, ok := table_ids_by_name[name]
	return id, ok
}

// TableIds returns every defined table id in ascending order.
func TableIds() []TableId {
	ids := make([]TableId, 0, len(table_names))
	for id := TableId(0); int(id) < NumTableIds; id++ {
		if id.Valid() {
			ids = append(ids, id)
		}
	}
	return ids
}
