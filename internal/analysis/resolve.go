package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
)

// maxSuggestionDistance bounds the edit distance of "did you mean" hints.
const maxSuggestionDistance = 2

// Resolver turns document text into a Program.
type Resolver struct {
	pool *parserPool
	log  commonlog.Logger
}

func NewResolver(log commonlog.Logger) *Resolver {
	return &Resolver{
		pool: newParserPool(runtime.NumCPU()),
		log:  log,
	}
}

// Resolve parses and binds text. It never fails: syntax and binding
// problems are reported as Findings.
func (r *Resolver) Resolve(text string) *Program {
	source := []byte(text)
	prog := &Program{References: map[TokenID][]Token{}}

	tree, err := r.pool.parse(context.Background(), source)
	if err != nil {
		r.log.Errorf("could not parse document: %v", err)
		prog.Findings = append(prog.Findings, Finding{Message: err.Error()})
		return prog
	}
	defer tree.Close()

	b := &binder{
		source:     source,
		lines:      newLineIndex(text),
		prog:       prog,
		groups:     map[TokenID][]TokenID{},
		typeParams: map[string]Token{},
	}
	b.directives = b.collectDirectives(tree.RootNode(), r.log)
	b.run(tree.RootNode())

	r.log.Debugf("resolved %d tokens, %d findings", len(prog.tokens), len(prog.Findings))
	return prog
}

func (r *Resolver) Close() error {
	r.pool.close()
	return nil
}

type directive struct {
	convention string
	library    string
}

type pendingFunction struct {
	def      *FunctionDefinition
	imported *ImportedFunctionDefinition
	node     *sitter.Node
}

type pendingType struct {
	user    *UserDefinedType
	generic *GenericTypeDefinition
	node    *sitter.Node
}

type pendingGlobal struct {
	first, count int
	declared     *TypeInfo
	value        *sitter.Node
}

type binder struct {
	source []byte
	lines  *lineIndex
	prog   *Program

	// groups maps a declaring token to its uses, declaration first.
	groups     map[TokenID][]TokenID
	fn         *FunctionDefinition
	typeParams map[string]Token
	directives map[uint32]directive

	// implicitTypeParams is set while binding a method receiver, where
	// unknown generic arguments declare the receiver's type parameters.
	implicitTypeParams bool
}

func (b *binder) content(n *sitter.Node) string { return n.Content(b.source) }

func (b *binder) newToken(n *sitter.Node, lexeme string, role Role) Token {
	tok := Token{
		ID:     TokenID(len(b.prog.tokens)),
		Lexeme: lexeme,
		Span:   b.lines.span(n),
		Role:   role,
	}
	b.prog.tokens = append(b.prog.tokens, tok)
	return tok
}

func (b *binder) token(n *sitter.Node, role Role) Token {
	return b.newToken(n, b.content(n), role)
}

// declare creates a declaring token.
func (b *binder) declare(n *sitter.Node, role Role) Token {
	tok := b.token(n, role)
	b.groups[tok.ID] = []TokenID{tok.ID}
	return tok
}

// use creates a token bound to decl.
func (b *binder) use(n *sitter.Node, role Role, decl Token) Token {
	tok := b.token(n, role)
	b.groups[decl.ID] = append(b.groups[decl.ID], tok.ID)
	return tok
}

func (b *binder) report(n *sitter.Node, format string, args ...any) {
	b.prog.Findings = append(b.prog.Findings, Finding{
		Span:    b.lines.span(n),
		Message: fmt.Sprintf(format, args...),
	})
}

func (b *binder) collectDirectives(root *sitter.Node, log commonlog.Logger) map[uint32]directive {
	out := map[uint32]directive{}
	matches, err := executeQuery(root, directiveQuery, b.source)
	if err != nil {
		log.Warningf("directive query: %v", err)
		return out
	}
	for _, m := range matches {
		fields := strings.Fields(strings.TrimPrefix(m.content, "//go:"))
		if len(fields) < 2 {
			continue
		}
		d := directive{convention: fields[0]}
		switch fields[0] {
		case "wasmimport":
			d.library = fields[1]
		case "linkname":
			if len(fields) > 2 {
				if i := strings.LastIndex(fields[2], "."); i > 0 {
					d.library = fields[2][:i]
				}
			}
		}
		out[m.row] = d
	}
	return out
}

func (b *binder) run(root *sitter.Node) {
	var (
		functions []pendingFunction
		types     []pendingType
		globals   [][]pendingGlobal
	)

	// Names first so that every later pass sees all top-level declarations.
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "import_declaration":
			b.imports(n)
		case "function_declaration", "method_declaration":
			functions = append(functions, b.declareFunction(n))
		case "type_declaration":
			types = append(types, b.declareTypes(n)...)
		}
	}

	for _, pt := range types {
		b.typeBody(pt)
	}
	bodies := map[uint32]pendingFunction{}
	for _, pf := range functions {
		b.signature(pf)
		if pf.def != nil {
			bodies[pf.node.StartByte()] = pf
		}
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() == "var_declaration" || n.Type() == "const_declaration" {
			globals = append(globals, b.declareGlobals(n))
		}
	}

	// Bodies and top-level statements in document order.
	gi := 0
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_clause", "import_declaration", "type_declaration", "comment":
		case "function_declaration", "method_declaration":
			if pf, ok := bodies[n.StartByte()]; ok {
				b.body(pf)
			}
		case "var_declaration", "const_declaration":
			for _, pg := range globals[gi] {
				b.globalValue(pg)
			}
			gi++
		default:
			b.fn = nil
			b.walk(n)
		}
	}

	b.danglingDots(root, nil)
	b.syntaxFindings(root)
	b.finish()
}

func (b *binder) finish() {
	prog := b.prog
	for _, ids := range b.groups {
		group := make([]Token, len(ids))
		for i, id := range ids {
			group[i] = prog.tokens[id]
		}
		for _, id := range ids {
			prog.References[id] = group
		}
	}

	prog.order = make([]int, len(prog.tokens))
	for i := range prog.order {
		prog.order[i] = i
	}
	sort.SliceStable(prog.order, func(i, j int) bool {
		return prog.tokens[prog.order[i]].Span.Start.Before(prog.tokens[prog.order[j]].Span.Start)
	})

	sort.SliceStable(prog.Findings, func(i, j int) bool {
		return prog.Findings[i].Span.Start.Before(prog.Findings[j].Span.Start)
	})
}

func (b *binder) imports(n *sitter.Node) {
	var specs []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "import_spec":
			specs = append(specs, c)
		case "import_spec_list":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if s := c.NamedChild(j); s.Type() == "import_spec" {
					specs = append(specs, s)
				}
			}
		}
	}

	for _, spec := range specs {
		path := spec.ChildByFieldName("path")
		if path == nil {
			continue
		}
		libPath := strings.Trim(b.content(path), "\"`")
		def := &ImportLibraryDefinition{LibraryPath: libPath, Span: b.lines.span(spec)}

		if name := spec.ChildByFieldName("name"); name != nil {
			if name.Type() != "package_identifier" {
				continue // dot and blank imports bind nothing
			}
			def.LibraryAlias = b.declare(name, RoleImportLibrary)
		} else {
			alias := libPath
			if i := strings.LastIndex(alias, "/"); i >= 0 {
				alias = alias[i+1:]
			}
			def.LibraryAlias = b.newToken(path, alias, RoleImportLibrary)
			b.groups[def.LibraryAlias.ID] = []TokenID{def.LibraryAlias.ID}
		}
		b.prog.ImportLibraries = append(b.prog.ImportLibraries, def)
	}
}

func (b *binder) declareFunction(n *sitter.Node) pendingFunction {
	name := n.ChildByFieldName("name")
	span := b.lines.span(n)

	if n.ChildByFieldName("body") == nil && n.Type() == "function_declaration" {
		def := &ImportedFunctionDefinition{
			FunctionName: b.declare(name, RoleImportedFunction),
			Span:         span,
		}
		if d, ok := b.directives[n.StartPoint().Row-1]; ok && n.StartPoint().Row > 0 {
			def.LibraryAlias = d.library
			def.CallingConvention = d.convention
		}
		b.prog.ImportedFunctions = append(b.prog.ImportedFunctions, def)
		return pendingFunction{imported: def, node: n}
	}

	def := &FunctionDefinition{
		FunctionName: b.declare(name, RoleFunction),
		Span:         span,
	}
	if n.ChildByFieldName("type_parameters") != nil {
		b.prog.GenericFunctions = append(b.prog.GenericFunctions, def)
	} else {
		b.prog.Functions = append(b.prog.Functions, def)
	}
	return pendingFunction{def: def, node: n}
}

func (b *binder) declareTypes(n *sitter.Node) []pendingType {
	var out []pendingType
	for i := 0; i < int(n.NamedChildCount()); i++ {
		spec := n.NamedChild(i)
		if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
			continue
		}
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		span := b.lines.span(spec)
		if spec.ChildByFieldName("type_parameters") != nil {
			def := &GenericTypeDefinition{TypeName: b.declare(name, RoleType), Span: span}
			b.prog.GenericTypes = append(b.prog.GenericTypes, def)
			out = append(out, pendingType{generic: def, node: spec})
			continue
		}
		def := &UserDefinedType{Name: b.declare(name, RoleType), Span: span}
		b.prog.Types = append(b.prog.Types, def)
		out = append(out, pendingType{user: def, node: spec})
	}
	return out
}

func (b *binder) typeBody(pt pendingType) {
	b.typeParams = map[string]Token{}
	defer func() { b.typeParams = map[string]Token{} }()

	var tparams []TypeParameter
	if list := pt.node.ChildByFieldName("type_parameters"); list != nil {
		tparams = b.typeParameters(list)
	}

	underlying := pt.node.ChildByFieldName("type")
	var (
		typ      *TypeInfo
		fields   []Field
		isStruct bool
	)
	if underlying != nil && underlying.Type() == "struct_type" {
		isStruct = true
		fields = b.structFields(underlying)
		typ = other("struct")
	} else if underlying != nil {
		typ = b.typeExpr(underlying)
	}

	if pt.generic != nil {
		pt.generic.TypeParameters = tparams
		pt.generic.Underlying = typ
		pt.generic.IsStruct = isStruct
		pt.generic.Fields = fields
		return
	}
	pt.user.Underlying = typ
	pt.user.IsStruct = isStruct
	pt.user.Fields = fields
}

func (b *binder) structFields(n *sitter.Node) []Field {
	var fields []Field
	list := firstNamedOfType(n, "field_declaration_list")
	if list == nil {
		return nil
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		decl := list.NamedChild(i)
		if decl.Type() != "field_declaration" {
			continue
		}
		var names []*sitter.Node
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			if c := decl.NamedChild(j); c.Type() == "field_identifier" {
				names = append(names, c)
			}
		}
		toks := make([]Token, len(names))
		for j, name := range names {
			toks[j] = b.declare(name, RoleTypeField)
		}
		var typ *TypeInfo
		if t := decl.ChildByFieldName("type"); t != nil {
			typ = b.typeExpr(t)
		}
		for _, tok := range toks {
			fields = append(fields, Field{Name: tok, Type: typ})
		}
	}
	return fields
}

func (b *binder) typeParameters(list *sitter.Node) []TypeParameter {
	var out []TypeParameter
	for i := 0; i < int(list.NamedChildCount()); i++ {
		decl := list.NamedChild(i)
		var toks []Token
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			if c := decl.NamedChild(j); c.Type() == "identifier" {
				tok := b.declare(c, RoleType)
				b.typeParams[tok.Lexeme] = tok
				toks = append(toks, tok)
			}
		}
		var constraint *TypeInfo
		if t := decl.ChildByFieldName("type"); t != nil {
			constraint = b.typeExpr(t)
		}
		for _, tok := range toks {
			out = append(out, TypeParameter{Name: tok, Constraint: constraint})
		}
	}
	return out
}

// parameters declares the names in a parameter_list. Unnamed parameters
// only contribute their type tokens.
func (b *binder) parameters(list *sitter.Node, role Role) []Parameter {
	var out []Parameter
	for i := 0; i < int(list.NamedChildCount()); i++ {
		decl := list.NamedChild(i)
		if decl.Type() != "parameter_declaration" && decl.Type() != "variadic_parameter_declaration" {
			continue
		}
		var toks []Token
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			if c := decl.NamedChild(j); c.Type() == "identifier" {
				toks = append(toks, b.declare(c, role))
			}
		}
		var typ *TypeInfo
		if t := decl.ChildByFieldName("type"); t != nil {
			typ = b.typeExpr(t)
		}
		if decl.Type() == "variadic_parameter_declaration" {
			typ = &TypeInfo{Kind: KindVariadic, Elem: typ}
		}
		if len(toks) == 0 {
			out = append(out, Parameter{Type: typ})
			continue
		}
		for _, tok := range toks {
			out = append(out, Parameter{Name: tok, Type: typ})
		}
	}
	return out
}

// results returns the result types and any named results.
func (b *binder) results(n *sitter.Node) ([]*TypeInfo, []Parameter) {
	if n == nil {
		return nil, nil
	}
	if n.Type() != "parameter_list" {
		return []*TypeInfo{b.typeExpr(n)}, nil
	}
	params := b.parameters(n, RoleVariable)
	types := make([]*TypeInfo, len(params))
	var named []Parameter
	for i, p := range params {
		types[i] = p.Type
		if p.Name.Lexeme != "" {
			named = append(named, p)
		}
	}
	return types, named
}

func (b *binder) signature(pf pendingFunction) {
	b.typeParams = map[string]Token{}
	defer func() { b.typeParams = map[string]Token{} }()

	n := pf.node
	var tparams []TypeParameter
	if list := n.ChildByFieldName("type_parameters"); list != nil {
		tparams = b.typeParameters(list)
	}

	var params []Parameter
	receiver := ""
	if recv := n.ChildByFieldName("receiver"); recv != nil {
		b.implicitTypeParams = true
		params = b.parameters(recv, RoleParameter)
		b.implicitTypeParams = false
		if len(params) > 0 {
			receiver = params[0].Type.BaseName()
		}
	}
	if list := n.ChildByFieldName("parameters"); list != nil {
		params = append(params, b.parameters(list, RoleParameter)...)
	}
	results, named := b.results(n.ChildByFieldName("result"))

	if pf.imported != nil {
		pf.imported.Parameters = params
		pf.imported.Results = results
		return
	}
	pf.def.TypeParameters = tparams
	for name, tok := range b.typeParams {
		if pf.def.FindTypeParameter(name) == nil {
			pf.def.receiverTypeParams = append(pf.def.receiverTypeParams, tok)
		}
	}
	pf.def.Parameters = params
	pf.def.Results = results
	pf.def.receiver = receiver
	for _, p := range named {
		pf.def.locals = append(pf.def.locals, LocalVariable{Identifier: p.Name, VariableType: p.Type})
	}
}

func (b *binder) body(pf pendingFunction) {
	b.fn = pf.def
	b.typeParams = map[string]Token{}
	for _, tp := range pf.def.TypeParameters {
		b.typeParams[tp.Name.Lexeme] = tp.Name
	}
	for _, tok := range pf.def.receiverTypeParams {
		b.typeParams[tok.Lexeme] = tok
	}
	defer func() {
		b.fn = nil
		b.typeParams = map[string]Token{}
	}()

	if body := pf.node.ChildByFieldName("body"); body != nil {
		b.walk(body)
	}
}

func (b *binder) declareGlobals(n *sitter.Node) []pendingGlobal {
	var out []pendingGlobal
	for _, spec := range specs(n) {
		pg := pendingGlobal{first: len(b.prog.Globals), value: spec.ChildByFieldName("value")}
		if t := spec.ChildByFieldName("type"); t != nil {
			pg.declared = b.typeExpr(t)
		}
		for j := 0; j < int(spec.NamedChildCount()); j++ {
			if c := spec.NamedChild(j); c.Type() == "identifier" {
				b.prog.Globals = append(b.prog.Globals, LocalVariable{
					Identifier:   b.declare(c, RoleVariable),
					VariableType: pg.declared,
				})
				pg.count++
			}
		}
		out = append(out, pg)
	}
	return out
}

func (b *binder) globalValue(pg pendingGlobal) {
	if pg.value == nil {
		return
	}
	b.fn = nil
	types := b.expressionList(pg.value)
	if pg.declared != nil {
		return
	}
	for i := 0; i < pg.count && i < len(types); i++ {
		b.prog.Globals[pg.first+i].VariableType = types[i]
	}
}

// specs flattens var_spec/const_spec children, including grouped lists.
func specs(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "var_spec", "const_spec":
			out = append(out, c)
		case "var_spec_list", "const_spec_list":
			out = append(out, specs(c)...)
		}
	}
	return out
}

func firstNamedOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// danglingDots records member accesses whose field name is still missing,
// as in "p." while the user is typing. They only occur under parse errors.
func (b *binder) danglingDots(n, parent *sitter.Node) {
	if n.Type() == "." && !n.IsNamed() && parent != nil {
		field := parent.ChildByFieldName("field")
		if parent.Type() == "ERROR" || (parent.Type() == "selector_expression" && (field == nil || field.IsMissing())) {
			b.danglingDot(n)
		}
		return
	}
	if !n.HasError() && !n.IsMissing() {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		b.danglingDots(n.Child(i), n)
	}
}

func (b *binder) danglingDot(dot *sitter.Node) {
	at := b.lines.position(dot.StartPoint())
	var fn *FunctionDefinition
	for _, list := range [][]*FunctionDefinition{b.prog.Functions, b.prog.GenericFunctions} {
		for _, f := range list {
			if f.Span.Contains(at) {
				fn = f
			}
		}
	}
	if fn == nil {
		return
	}

	operand, ok := expressionEndingAt(fn, at)
	if !ok {
		// The operand may sit in an error node the binder never walked.
		prev := dot.PrevSibling()
		if prev == nil || prev.Type() != "identifier" {
			return
		}
		t := namedValueType(fn, b.content(prev), at)
		if t == nil {
			return
		}
		operand = Expression{Span: b.lines.span(prev), Type: t}
	}
	fn.accesses = append(fn.accesses, Expression{
		Span:     Span{Start: operand.Span.Start, End: b.lines.span(dot).End},
		Instance: operand.Type,
	})
}

// expressionEndingAt returns the widest typed expression of fn that ends
// at pos.
func expressionEndingAt(fn *FunctionDefinition, pos Position) (Expression, bool) {
	var best Expression
	ok := false
	for _, e := range fn.expressions {
		if e.Span.End != pos || e.Type == nil {
			continue
		}
		if !ok || best.Span.Within(e.Span) {
			best, ok = e, true
		}
	}
	return best, ok
}

// namedValueType is the type of the parameter or local called name that is
// visible at pos.
func namedValueType(fn *FunctionDefinition, name string, pos Position) *TypeInfo {
	var t *TypeInfo
	for _, p := range fn.Parameters {
		if p.Name.Lexeme == name {
			t = p.Type
		}
	}
	for _, l := range fn.locals {
		if l.Identifier.Lexeme == name && l.Identifier.Span.Start.Before(pos) {
			t = l.VariableType
		}
	}
	return t
}

func (b *binder) syntaxFindings(n *sitter.Node) {
	switch {
	case n.IsMissing():
		b.report(n, "syntax error: missing %s", n.Type())
		return
	case n.Type() == "ERROR":
		text := strings.Join(strings.Fields(b.content(n)), " ")
		if len(text) > 32 {
			text = text[:32] + "..."
		}
		b.report(n, "syntax error: unexpected %q", text)
		return
	case !n.HasError():
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		b.syntaxFindings(n.Child(i))
	}
}

// suggest returns the visible name closest to name, if any is close enough.
func (b *binder) suggest(name string) string {
	var candidates []string
	if b.fn != nil {
		for _, p := range b.fn.Parameters {
			candidates = append(candidates, p.Name.Lexeme)
		}
		for _, l := range b.fn.locals {
			candidates = append(candidates, l.Identifier.Lexeme)
		}
	}
	for _, g := range b.prog.Globals {
		candidates = append(candidates, g.Identifier.Lexeme)
	}
	for _, f := range b.prog.Functions {
		candidates = append(candidates, f.FunctionName.Lexeme)
	}
	for _, f := range b.prog.GenericFunctions {
		candidates = append(candidates, f.FunctionName.Lexeme)
	}
	for _, f := range b.prog.ImportedFunctions {
		candidates = append(candidates, f.FunctionName.Lexeme)
	}
	for _, l := range b.prog.ImportLibraries {
		candidates = append(candidates, l.LibraryAlias.Lexeme)
	}

	best, bestDistance := "", maxSuggestionDistance+1
	for _, c := range candidates {
		if c == "" || c == name {
			continue
		}
		if d := levenshtein.ComputeDistance(name, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}
