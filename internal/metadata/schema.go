package metadata

// ColumnKind says how one field of a table row is sized and serialized.
type ColumnKind int

const (
	// Fixed-width little-endian unsigned integers.
	ColUint8 ColumnKind = iota
	ColUint16
	ColUint32
	// Heap references, 2 or 4 bytes depending on the heap's large flag.
	ColStringRef
	ColGuidRef
	ColBlobRef
	// Index into one specific table, 2 or 4 bytes by that table's row count.
	ColTableRef
	// Packed coded index, 2 or 4 bytes per the coded index type's bit size.
	ColCodedRef
)

// Column is one field of a table row layout.
type Column struct {
	Name  string
	Kind  ColumnKind
	Table TableId        // target table for ColTableRef
	Coded CodedIndexType // coded index type for ColCodedRef
}

func col(name string, kind ColumnKind) Column  { return Column{Name: name, Kind: kind} }
func tref(name string, t TableId) Column       { return Column{Name: name, Kind: ColTableRef, Table: t} }
func cref(name string, c CodedIndexType) Column {
	return Column{Name: name, Kind: ColCodedRef, Coded: c}
}

// Schema is the fixed, ordered field layout of one table per ECMA-335
// II.22. Field order is serialization order.
type Schema []Column

// Width returns the serialized byte size of one column under a sizing
// snapshot.
func (c Column) Width(info *TableInfo) uint32 {
	switch c.Kind {
	case ColUint8:
		return 1
	case ColUint16:
		return 2
	case ColUint32:
		return 4
	case ColStringRef:
		return info.StrBytes()
	case ColGuidRef:
		return info.GuidBytes()
	case ColBlobRef:
		return info.BlobBytes()
	case ColTableRef:
		return info.TableIndexBytes(c.Table)
	case ColCodedRef:
		return info.CodedIndexBytes(c.Coded)
	}
	return 0
}

// RowSize sums the column widths: the byte size of one serialized row.
func (s Schema) RowSize(info *TableInfo) uint32 {
	var size uint32
	for _, c := range s {
		size += c.Width(info)
	}
	return size
}

var table_schemas = map[TableId]Schema{
	TableModule: {
		col("Generation", ColUint16),
		col("Name", ColStringRef),
		col("Mvid", ColGuidRef),
		col("EncId", ColGuidRef),
		col("EncBaseId", ColGuidRef),
	},
	TableTypeRef: {
		cref("ResolutionScope", ResolutionScope),
		col("Name", ColStringRef),
		col("Namespace", ColStringRef),
	},
	TableTypeDef: {
		col("Flags", ColUint32),
		col("Name", ColStringRef),
		col("Namespace", ColStringRef),
		cref("Extends", TypeDefOrRef),
		tref("FieldList", TableField),
		tref("MethodList", TableMethodDef),
	},
	TableFieldPtr: {
		tref("Field", TableField),
	},
	TableField: {
		col("Flags", ColUint16),
		col("Name", ColStringRef),
		col("Signature", ColBlobRef),
	},
	TableMethodPtr: {
		tref("Method", TableMethodDef),
	},
	TableMethodDef: {
		col("Rva", ColUint32),
		col("ImplFlags", ColUint16),
		col("Flags", ColUint16),
		col("Name", ColStringRef),
		col("Signature", ColBlobRef),
		tref("ParamList", TableParam),
	},
	TableParamPtr: {
		tref("Param", TableParam),
	},
	TableParam: {
		col("Flags", ColUint16),
		col("Sequence", ColUint16),
		col("Name", ColStringRef),
	},
	TableInterfaceImpl: {
		tref("Class", TableTypeDef),
		cref("Interface", TypeDefOrRef),
	},
	TableMemberRef: {
		cref("Class", MemberRefParent),
		col("Name", ColStringRef),
		col("Signature", ColBlobRef),
	},
	TableConstant: {
		col("Type", ColUint8),
		col("Padding", ColUint8),
		cref("Parent", HasConstant),
		col("Value", ColBlobRef),
	},
	TableCustomAttribute: {
		cref("Parent", HasCustomAttribute),
		cref("Type", CustomAttributeType),
		col("Value", ColBlobRef),
	},
	TableFieldMarshal: {
		cref("Parent", HasFieldMarshal),
		col("NativeType", ColBlobRef),
	},
	TableDeclSecurity: {
		col("Action", ColUint16),
		cref("Parent", HasDeclSecurity),
		col("PermissionSet", ColBlobRef),
	},
	TableClassLayout: {
		col("PackingSize", ColUint16),
		col("ClassSize", ColUint32),
		tref("Parent", TableTypeDef),
	},
	TableFieldLayout: {
		col("Offset", ColUint32),
		tref("Field", TableField),
	},
	TableStandAloneSig: {
		col("Signature", ColBlobRef),
	},
	TableEventMap: {
		tref("Parent", TableTypeDef),
		tref("EventList", TableEvent),
	},
	TableEventPtr: {
		tref("Event", TableEvent),
	},
	TableEvent: {
		col("EventFlags", ColUint16),
		col("Name", ColStringRef),
		cref("EventType", TypeDefOrRef),
	},
	TablePropertyMap: {
		tref("Parent", TableTypeDef),
		tref("PropertyList", TableProperty),
	},
	TablePropertyPtr: {
		tref("Property", TableProperty),
	},
	TableProperty: {
		col("Flags", ColUint16),
		col("Name", ColStringRef),
		col("Type", ColBlobRef),
	},
	TableMethodSemantics: {
		col("Semantics", ColUint16),
		tref("Method", TableMethodDef),
		cref("Association", HasSemantics),
	},
	TableMethodImpl: {
		tref("Class", TableTypeDef),
		cref("MethodBody", MethodDefOrRef),
		cref("MethodDeclaration", MethodDefOrRef),
	},
	TableModuleRef: {
		col("Name", ColStringRef),
	},
	TableTypeSpec: {
		col("Signature", ColBlobRef),
	},
	TableImplMap: {
		col("MappingFlags", ColUint16),
		cref("MemberForwarded", MemberForwarded),
		col("ImportName", ColStringRef),
		tref("ImportScope", TableModuleRef),
	},
	TableFieldRVA: {
		col("Rva", ColUint32),
		tref("Field", TableField),
	},
	TableEncLog: {
		col("Token", ColUint32),
		col("FuncCode", ColUint32),
	},
	TableEncMap: {
		col("Token", ColUint32),
	},
	TableAssembly: {
		col("HashAlgId", ColUint32),
		col("MajorVersion", ColUint16),
		col("MinorVersion", ColUint16),
		col("BuildNumber", ColUint16),
		col("RevisionNumber", ColUint16),
		col("Flags", ColUint32),
		col("PublicKey", ColBlobRef),
		col("Name", ColStringRef),
		col("Culture", ColStringRef),
	},
	TableAssemblyProcessor: {
		col("Processor", ColUint32),
	},
	TableAssemblyOS: {
		col("OSPlatformId", ColUint32),
		col("OSMajorVersion", ColUint32),
		col("OSMinorVersion", ColUint32),
	},
	TableAssemblyRef: {
		col("MajorVersion", ColUint16),
		col("MinorVersion", ColUint16),
		col("BuildNumber", ColUint16),
		col("RevisionNumber", ColUint16),
		col("Flags", ColUint32),
		col("PublicKeyOrToken", ColBlobRef),
		col("Name", ColStringRef),
		col("Culture", ColStringRef),
		col("HashValue", ColBlobRef),
	},
	TableAssemblyRefProcessor: {
		col("Processor", ColUint32),
		tref("AssemblyRef", TableAssemblyRef),
	},
	TableAssemblyRefOS: {
		col("OSPlatformId", ColUint32),
		col("OSMajorVersion", ColUint32),
		col("OSMinorVersion", ColUint32),
		tref("AssemblyRef", TableAssemblyRef),
	},
	TableFile: {
		col("Flags", ColUint32),
		col("Name", ColStringRef),
		col("HashValue", ColBlobRef),
	},
	TableExportedType: {
		col("Flags", ColUint32),
		col("TypeDefId", ColUint32),
		col("TypeName", ColStringRef),
		col("TypeNamespace", ColStringRef),
		cref("Implementation", Implementation),
	},
	TableManifestResource: {
		col("Offset", ColUint32),
		col("Flags", ColUint32),
		col("Name", ColStringRef),
		cref("Implementation", Implementation),
	},
	TableNestedClass: {
		tref("NestedClass", TableTypeDef),
		tref("EnclosingClass", TableTypeDef),
	},
	TableGenericParam: {
		col("Number", ColUint16),
		col("Flags", ColUint16),
		cref("Owner", TypeOrMethodDef),
		col("Name", ColStringRef),
	},
	TableMethodSpec: {
		cref("Method", MethodDefOrRef),
		col("Instantiation", ColBlobRef),
	},
	TableGenericParamConstraint: {
		tref("Owner", TableGenericParam),
		cref("Constraint", TypeDefOrRef),
	},
	TableDocument: {
		col("Name", ColBlobRef),
		col("HashAlgorithm", ColGuidRef),
		col("Hash", ColBlobRef),
		col("Language", ColGuidRef),
	},
	TableMethodDebugInformation: {
		tref("Document", TableDocument),
		col("SequencePoints", ColBlobRef),
	},
	TableLocalScope: {
		tref("Method", TableMethodDef),
		tref("ImportScope", TableImportScope),
		tref("VariableList", TableLocalVariable),
		tref("ConstantList", TableLocalConstant),
		col("StartOffset", ColUint32),
		col("Length", ColUint32),
	},
	TableLocalVariable: {
		col("Attributes", ColUint16),
		col("Index", ColUint16),
		col("Name", ColStringRef),
	},
	TableLocalConstant: {
		col("Name", ColStringRef),
		col("Signature", ColBlobRef),
	},
	TableImportScope: {
		tref("Parent", TableImportScope),
		col("Imports", ColBlobRef),
	},
	TableStateMachineMethod: {
		tref("MoveNextMethod", TableMethodDef),
		tref("KickoffMethod", TableMethodDef),
	},
	TableCustomDebugInformation: {
		cref("Parent", HasCustomDebugInformation),
		col("Kind", ColGuidRef),
		col("Value", ColBlobRef),
	},
}

// SchemaFor returns the row layout of a table.
func SchemaFor(id TableId) (Schema, bool) {
	s, ok := table_schemas[id]
	return s, ok
}
