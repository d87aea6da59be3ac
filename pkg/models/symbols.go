package models

import "time"

// ExportKind classifies an exported symbol.
type ExportKind string

const (
	ExportFunction  ExportKind = "function"
	ExportClass     ExportKind = "class"
	ExportVariable  ExportKind = "variable"
	ExportInterface ExportKind = "interface"
	ExportType      ExportKind = "type"
	ExportDefault   ExportKind = "default"
)

// ImportKind classifies an import binding.
type ImportKind string

const (
	ImportNamed      ImportKind = "named"
	ImportDefault    ImportKind = "default"
	ImportNamespace  ImportKind = "namespace"
	ImportSideEffect ImportKind = "side-effect"
)

// DefaultExportName is the synthetic name consumers use for a default export.
const DefaultExportName = "default"

// ExportRecord is a single exported symbol of a file.
type ExportRecord struct {
	File      string     `json:"file" toon:"file" msgpack:"file"`
	Name      string     `json:"name" toon:"name" msgpack:"name"`
	Kind      ExportKind `json:"kind" toon:"kind" msgpack:"kind"`
	Line      int        `json:"line" toon:"line" msgpack:"line"`
	IsDefault bool       `json:"isDefault" toon:"isDefault" msgpack:"is_default"`
}

// LookupName returns the name importers use to reference this export.
func (e ExportRecord) LookupName() string {
	if e.IsDefault {
		return DefaultExportName
	}
	return e.Name
}

// ImportRecord is a single import binding of a file.
//
// ImportedName is the name as exported by the source module ("default" for
// default imports) and is empty for namespace and side-effect imports.
// LocalName is the binding introduced in the importing file.
type ImportRecord struct {
	File            string     `json:"file" toon:"file" msgpack:"file"`
	ImportedName    string     `json:"importedName,omitempty" toon:"importedName,omitempty" msgpack:"imported_name"`
	LocalName       string     `json:"localName,omitempty" toon:"localName,omitempty" msgpack:"local_name"`
	SourceSpecifier string     `json:"sourceSpecifier" toon:"sourceSpecifier" msgpack:"source"`
	Kind            ImportKind `json:"kind" toon:"kind" msgpack:"kind"`
	Line            int        `json:"line" toon:"line" msgpack:"line"`

	// Referenced reports whether LocalName is used anywhere in the file body.
	Referenced bool `json:"-" toon:"-" msgpack:"referenced"`
	// ReExport marks records synthesized from `export ... from` statements.
	ReExport bool `json:"-" toon:"-" msgpack:"re_export"`
	// TypeOnly marks `import type` bindings.
	TypeOnly bool `json:"typeOnly,omitempty" toon:"typeOnly,omitempty" msgpack:"type_only"`
}

// DisplayName returns the binding name shown to users.
func (i ImportRecord) DisplayName() string {
	if i.LocalName != "" {
		return i.LocalName
	}
	if i.ImportedName != "" {
		return i.ImportedName
	}
	return i.SourceSpecifier
}

// FileSymbols is the extracted symbol table of one file.
type FileSymbols struct {
	Path    string         `json:"path" msgpack:"path"`
	ModTime time.Time      `json:"modTime" msgpack:"mod_time"`
	Exports []ExportRecord `json:"exports" msgpack:"exports"`
	Imports []ImportRecord `json:"imports" msgpack:"imports"`
}
