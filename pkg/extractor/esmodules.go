package extractor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/shed/pkg/models"
	"github.com/panbanda/shed/pkg/parser"
)

// ESModules extracts ECMAScript module declarations from TypeScript,
// TSX and JavaScript sources using tree-sitter.
type ESModules struct{}

// NewESModules creates an ES module extractor.
func NewESModules() *ESModules {
	return &ESModules{}
}

// Extract implements Extractor. A parser is created per call.
func (e *ESModules) Extract(path string, content []byte) (*models.FileSymbols, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		lang = parser.LangTypeScript
	}

	psr := parser.New()
	defer psr.Close()

	result, err := psr.Parse(context.Background(), content, lang, path)
	if err != nil {
		return nil, &models.ParseError{Path: path, Message: err.Error()}
	}
	defer result.Close()

	root := result.Tree.RootNode()
	if bad := parser.FirstError(root); bad != nil {
		return nil, &models.ParseError{
			Path:    path,
			Line:    parser.Line(bad),
			Message: describeSyntaxError(bad, content),
		}
	}

	x := &fileExtraction{
		path:   path,
		source: content,
		decls:  make(map[string]models.ExportKind),
		refs:   make(map[string]struct{}),
	}
	x.collectDeclarations(root)
	for i := range int(root.NamedChildCount()) {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement":
			x.importStatement(stmt)
		case "export_statement":
			x.exportStatement(stmt)
		}
	}
	x.collectReferences(root)

	for i := range x.imports {
		imp := &x.imports[i]
		if imp.Referenced || imp.LocalName == "" {
			continue
		}
		_, imp.Referenced = x.refs[imp.LocalName]
	}

	return &models.FileSymbols{
		Path:    path,
		Exports: x.exports,
		Imports: x.imports,
	}, nil
}

func describeSyntaxError(node *sitter.Node, source []byte) string {
	if node.IsMissing() {
		return fmt.Sprintf("missing %q", node.Type())
	}
	text := strings.TrimSpace(parser.GetNodeText(node, source))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	if text == "" {
		return "unexpected end of input"
	}
	return fmt.Sprintf("unexpected %q", text)
}

type fileExtraction struct {
	path    string
	source  []byte
	decls   map[string]models.ExportKind
	refs    map[string]struct{}
	exports []models.ExportRecord
	imports []models.ImportRecord
}

func (x *fileExtraction) text(node *sitter.Node) string {
	return parser.GetNodeText(node, x.source)
}

// collectDeclarations records the kind of every top-level binding so that
// `export { a }` clauses can report the kind of the local declaration.
func (x *fileExtraction) collectDeclarations(root *sitter.Node) {
	for i := range int(root.NamedChildCount()) {
		stmt := root.NamedChild(i)
		if stmt.Type() == "export_statement" {
			stmt = stmt.ChildByFieldName("declaration")
		}
		for _, d := range x.declaredNames(stmt) {
			if _, seen := x.decls[d.name]; !seen {
				x.decls[d.name] = d.kind
			}
		}
	}
}

type declaredName struct {
	name string
	kind models.ExportKind
	line int
}

// declaredNames lists the bindings a declaration node introduces.
func (x *fileExtraction) declaredNames(decl *sitter.Node) []declaredName {
	if decl == nil {
		return nil
	}
	line := parser.Line(decl)
	named := func(kind models.ExportKind) []declaredName {
		name := x.text(decl.ChildByFieldName("name"))
		if name == "" {
			return nil
		}
		return []declaredName{{name: name, kind: kind, line: line}}
	}

	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		return named(models.ExportFunction)
	case "class_declaration", "abstract_class_declaration":
		return named(models.ExportClass)
	case "interface_declaration":
		return named(models.ExportInterface)
	case "type_alias_declaration":
		return named(models.ExportType)
	case "enum_declaration", "internal_module", "module":
		return named(models.ExportVariable)
	case "lexical_declaration", "variable_declaration":
		var out []declaredName
		for i := range int(decl.NamedChildCount()) {
			declarator := decl.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			for _, name := range x.patternNames(declarator.ChildByFieldName("name")) {
				out = append(out, declaredName{name: name, kind: models.ExportVariable, line: parser.Line(declarator)})
			}
		}
		return out
	case "ambient_declaration":
		for i := range int(decl.NamedChildCount()) {
			if names := x.declaredNames(decl.NamedChild(i)); len(names) > 0 {
				return names
			}
		}
	}
	return nil
}

// patternNames returns the identifiers bound by a declarator name, which may
// be a destructuring pattern.
func (x *fileExtraction) patternNames(node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	if node.Type() == "identifier" {
		return []string{x.text(node)}
	}
	var names []string
	parser.WalkTyped(node, x.source, func(n *sitter.Node, nodeType string, src []byte) bool {
		switch nodeType {
		case "identifier", "shorthand_property_identifier_pattern":
			names = append(names, parser.GetNodeText(n, src))
			return false
		case "pair_pattern":
			// Only the value side of `key: value` binds a name.
			if v := n.ChildByFieldName("value"); v != nil {
				names = append(names, x.patternNames(v)...)
			}
			return false
		case "assignment_pattern", "object_assignment_pattern":
			if l := n.ChildByFieldName("left"); l != nil {
				names = append(names, x.patternNames(l)...)
			}
			return false
		}
		return true
	})
	return names
}

func (x *fileExtraction) addExport(name string, kind models.ExportKind, line int, isDefault bool) {
	if isDefault {
		kind = models.ExportDefault
		if name == "" {
			name = models.DefaultExportName
		}
	}
	x.exports = append(x.exports, models.ExportRecord{
		File:      x.path,
		Name:      name,
		Kind:      kind,
		Line:      line,
		IsDefault: isDefault,
	})
}

func (x *fileExtraction) addImport(rec models.ImportRecord) {
	rec.File = x.path
	x.imports = append(x.imports, rec)
}

func hasKeyword(node *sitter.Node, keyword string) bool {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == keyword {
			return true
		}
	}
	return false
}

func (x *fileExtraction) stringValue(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return strings.Trim(x.text(node), "'\"`")
}

func (x *fileExtraction) importStatement(stmt *sitter.Node) {
	line := parser.Line(stmt)
	typeOnly := hasKeyword(stmt, "type")
	source := x.stringValue(stmt.ChildByFieldName("source"))

	var clause *sitter.Node
	for i := range int(stmt.NamedChildCount()) {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "import_clause":
			clause = child
		case "import_require_clause":
			// import x = require('m')
			req := x.stringValue(child.ChildByFieldName("source"))
			if req == "" {
				for j := range int(child.NamedChildCount()) {
					if c := child.NamedChild(j); c.Type() == "string" {
						req = x.stringValue(c)
					}
				}
			}
			local := ""
			for j := range int(child.NamedChildCount()) {
				if c := child.NamedChild(j); c.Type() == "identifier" {
					local = x.text(c)
					break
				}
			}
			x.addImport(models.ImportRecord{
				LocalName:       local,
				SourceSpecifier: req,
				Kind:            models.ImportNamespace,
				Line:            line,
				TypeOnly:        typeOnly,
			})
			return
		}
	}

	if clause == nil {
		x.addImport(models.ImportRecord{
			SourceSpecifier: source,
			Kind:            models.ImportSideEffect,
			Line:            line,
			Referenced:      true,
		})
		return
	}

	for i := range int(clause.NamedChildCount()) {
		part := clause.NamedChild(i)
		switch part.Type() {
		case "identifier":
			x.addImport(models.ImportRecord{
				ImportedName:    models.DefaultExportName,
				LocalName:       x.text(part),
				SourceSpecifier: source,
				Kind:            models.ImportDefault,
				Line:            line,
				TypeOnly:        typeOnly,
			})
		case "namespace_import":
			local := ""
			for j := range int(part.NamedChildCount()) {
				if c := part.NamedChild(j); c.Type() == "identifier" {
					local = x.text(c)
				}
			}
			x.addImport(models.ImportRecord{
				LocalName:       local,
				SourceSpecifier: source,
				Kind:            models.ImportNamespace,
				Line:            line,
				TypeOnly:        typeOnly,
			})
		case "named_imports":
			for j := range int(part.NamedChildCount()) {
				spec := part.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				imported := x.text(spec.ChildByFieldName("name"))
				local := imported
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = x.text(alias)
				}
				kind := models.ImportNamed
				if imported == models.DefaultExportName {
					kind = models.ImportDefault
				}
				x.addImport(models.ImportRecord{
					ImportedName:    strings.Trim(imported, "'\""),
					LocalName:       local,
					SourceSpecifier: source,
					Kind:            kind,
					Line:            parser.Line(spec),
					TypeOnly:        typeOnly || hasKeyword(spec, "type"),
				})
			}
		}
	}
}

func (x *fileExtraction) exportStatement(stmt *sitter.Node) {
	line := parser.Line(stmt)
	isDefault := hasKeyword(stmt, "default")
	sourceNode := stmt.ChildByFieldName("source")

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		names := x.declaredNames(decl)
		if isDefault {
			name := ""
			if len(names) > 0 {
				name = names[0].name
			}
			x.addExport(name, models.ExportDefault, line, true)
			return
		}
		for _, d := range names {
			x.addExport(d.name, d.kind, d.line, false)
		}
		return
	}

	if value := stmt.ChildByFieldName("value"); value != nil || isDefault {
		name := ""
		if value != nil {
			switch value.Type() {
			case "identifier":
				name = x.text(value)
			case "function_expression", "function", "class", "generator_function", "arrow_function":
				name = x.text(value.ChildByFieldName("name"))
			}
		}
		x.addExport(name, models.ExportDefault, line, true)
		return
	}

	source := x.stringValue(sourceNode)
	typeOnly := hasKeyword(stmt, "type")

	for i := range int(stmt.NamedChildCount()) {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "export_clause":
			x.exportClause(child, source, sourceNode != nil, typeOnly)
			return
		case "namespace_export":
			// export * as ns from './m'
			name := ""
			for j := range int(child.NamedChildCount()) {
				name = strings.Trim(x.text(child.NamedChild(j)), "'\"")
			}
			x.addImport(models.ImportRecord{
				SourceSpecifier: source,
				Kind:            models.ImportNamespace,
				Line:            line,
				Referenced:      true,
				ReExport:        true,
				TypeOnly:        typeOnly,
			})
			x.addExport(name, models.ExportVariable, line, false)
			return
		}
	}

	if sourceNode != nil && hasKeyword(stmt, "*") {
		// export * from './m'
		x.addImport(models.ImportRecord{
			SourceSpecifier: source,
			Kind:            models.ImportNamespace,
			Line:            line,
			Referenced:      true,
			ReExport:        true,
			TypeOnly:        typeOnly,
		})
	}
}

func (x *fileExtraction) exportClause(clause *sitter.Node, source string, reExport, typeOnly bool) {
	for i := range int(clause.NamedChildCount()) {
		spec := clause.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		local := strings.Trim(x.text(spec.ChildByFieldName("name")), "'\"")
		exported := local
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			exported = strings.Trim(x.text(alias), "'\"")
		}
		line := parser.Line(spec)
		specTypeOnly := typeOnly || hasKeyword(spec, "type")
		isDefault := exported == models.DefaultExportName

		if reExport {
			kind := models.ImportNamed
			if local == models.DefaultExportName {
				kind = models.ImportDefault
			}
			x.addImport(models.ImportRecord{
				ImportedName:    local,
				SourceSpecifier: source,
				Kind:            kind,
				Line:            line,
				Referenced:      true,
				ReExport:        true,
				TypeOnly:        specTypeOnly,
			})
			kindOut := models.ExportVariable
			if specTypeOnly {
				kindOut = models.ExportType
			}
			x.addExport(exported, kindOut, line, isDefault)
			continue
		}

		kind, ok := x.decls[local]
		if !ok {
			kind = models.ExportVariable
			if specTypeOnly {
				kind = models.ExportType
			}
		}
		name := exported
		if isDefault {
			name = local
		}
		x.addExport(name, kind, line, isDefault)
	}
}

// collectReferences gathers identifiers used outside import statements and
// records dynamic import() and require() calls as namespace imports.
func (x *fileExtraction) collectReferences(root *sitter.Node) {
	parser.WalkTyped(root, x.source, func(node *sitter.Node, nodeType string, src []byte) bool {
		switch nodeType {
		case "import_statement":
			return false
		case "export_statement":
			if node.ChildByFieldName("source") != nil {
				return false
			}
		case "identifier", "type_identifier", "shorthand_property_identifier", "nested_type_identifier":
			x.refs[parser.GetNodeText(node, src)] = struct{}{}
		case "call_expression":
			x.callExpression(node)
		}
		return true
	})
}

func (x *fileExtraction) callExpression(call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")
	if fn == nil || args == nil || args.NamedChildCount() == 0 {
		return
	}
	fnType := fn.Type()
	if fnType != "import" && (fnType != "identifier" || x.text(fn) != "require") {
		return
	}
	arg := args.NamedChild(0)
	switch arg.Type() {
	case "string":
	case "template_string":
		if arg.NamedChildCount() > 0 {
			return
		}
	default:
		return
	}
	x.addImport(models.ImportRecord{
		SourceSpecifier: x.stringValue(arg),
		Kind:            models.ImportNamespace,
		Line:            parser.Line(call),
		Referenced:      true,
	})
}
