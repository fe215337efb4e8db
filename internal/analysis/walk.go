package analysis

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var typeNodes = map[string]bool{
	"type_identifier":            true,
	"qualified_type":             true,
	"generic_type":               true,
	"pointer_type":               true,
	"slice_type":                 true,
	"array_type":                 true,
	"implicit_length_array_type": true,
	"map_type":                   true,
	"channel_type":               true,
	"function_type":              true,
	"struct_type":                true,
	"interface_type":             true,
	"parenthesized_type":         true,
	"negated_type":               true,
	"union_type":                 true,
	"type_elem":                  true,
	"type_constraint":            true,
}

func (b *binder) collapse(n *sitter.Node) string {
	return strings.Join(strings.Fields(b.content(n)), " ")
}

func unwrap(n *sitter.Node) *sitter.Node {
	if n != nil && n.Type() == "literal_element" && n.NamedChildCount() > 0 {
		return n.NamedChild(0)
	}
	return n
}

// typeExpr binds the identifiers of a type expression and describes it.
func (b *binder) typeExpr(n *sitter.Node) *TypeInfo {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "type_identifier":
		return b.typeName(n)

	case "qualified_type":
		if pkg := n.ChildByFieldName("package"); pkg != nil {
			b.library(pkg)
		}
		if name := n.ChildByFieldName("name"); name != nil {
			b.token(name, RoleOther)
		}
		return named(b.content(n))

	case "pointer_type":
		if n.NamedChildCount() == 0 {
			return nil
		}
		return pointerTo(b.typeExpr(n.NamedChild(0)))

	case "slice_type":
		return &TypeInfo{Kind: KindSlice, Elem: b.typeExpr(n.ChildByFieldName("element"))}

	case "array_type":
		t := &TypeInfo{Kind: KindArray, Elem: b.typeExpr(n.ChildByFieldName("element"))}
		if length := n.ChildByFieldName("length"); length != nil {
			t.Len = b.content(length)
			b.walk(length)
		}
		return t

	case "implicit_length_array_type":
		return &TypeInfo{Kind: KindArray, Len: "...", Elem: b.typeExpr(n.ChildByFieldName("element"))}

	case "map_type":
		return &TypeInfo{
			Kind: KindMap,
			Key:  b.typeExpr(n.ChildByFieldName("key")),
			Elem: b.typeExpr(n.ChildByFieldName("value")),
		}

	case "channel_type":
		b.typeExpr(n.ChildByFieldName("value"))
		return other(b.collapse(n))

	case "function_type":
		t := &TypeInfo{Kind: KindFunc}
		if list := n.ChildByFieldName("parameters"); list != nil {
			t.Params = b.unnamedParameters(list)
		}
		if result := n.ChildByFieldName("result"); result != nil {
			if result.Type() == "parameter_list" {
				t.Results = b.unnamedParameters(result)
			} else {
				t.Results = []*TypeInfo{b.typeExpr(result)}
			}
		}
		return t

	case "generic_type":
		t := b.typeExpr(n.ChildByFieldName("type"))
		if t == nil {
			return nil
		}
		if args := n.ChildByFieldName("type_arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				if arg.Type() == "type_elem" && arg.NamedChildCount() == 1 {
					arg = arg.NamedChild(0)
				}
				t.Args = append(t.Args, b.typeArgument(arg))
			}
		}
		return t

	case "parenthesized_type":
		if n.NamedChildCount() == 0 {
			return nil
		}
		return b.typeExpr(n.NamedChild(0))

	case "struct_type":
		if list := firstNamedOfType(n, "field_declaration_list"); list != nil {
			for i := 0; i < int(list.NamedChildCount()); i++ {
				if t := list.NamedChild(i).ChildByFieldName("type"); t != nil {
					b.typeExpr(t)
				}
			}
		}
		return other(b.collapse(n))

	case "interface_type":
		return other(b.collapse(n))
	}

	// Constraint syntax: a single member stands for itself.
	var last *TypeInfo
	count := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		last = b.typeExpr(c)
		count++
	}
	if count == 1 && n.Type() != "negated_type" {
		return last
	}
	return other(b.collapse(n))
}

// typeArgument binds a generic argument. Inside a method receiver an unknown
// name declares a type parameter of the receiver.
func (b *binder) typeArgument(arg *sitter.Node) *TypeInfo {
	if b.implicitTypeParams && arg.Type() == "type_identifier" {
		name := b.content(arg)
		if _, known := b.typeParams[name]; !known && !b.isTypeName(name) {
			b.typeParams[name] = b.declare(arg, RoleType)
			return named(name)
		}
	}
	return b.typeExpr(arg)
}

func (b *binder) isTypeName(name string) bool {
	return b.prog.FindType(name) != nil || b.prog.FindGenericType(name) != nil || IsIntrinsicType(name)
}

func (b *binder) unnamedParameters(list *sitter.Node) []*TypeInfo {
	var out []*TypeInfo
	for i := 0; i < int(list.NamedChildCount()); i++ {
		decl := list.NamedChild(i)
		t := b.typeExpr(decl.ChildByFieldName("type"))
		if decl.Type() == "variadic_parameter_declaration" {
			t = &TypeInfo{Kind: KindVariadic, Elem: t}
		}
		names := 0
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			if decl.NamedChild(j).Type() == "identifier" {
				names++
			}
		}
		if names == 0 {
			names = 1
		}
		for ; names > 0; names-- {
			out = append(out, t)
		}
	}
	return out
}

func (b *binder) typeName(n *sitter.Node) *TypeInfo {
	name := b.content(n)
	if tok, ok := b.typeParams[name]; ok {
		b.use(n, RoleType, tok)
		return named(name)
	}
	if ut := b.prog.FindType(name); ut != nil {
		b.use(n, RoleType, ut.Name)
		return named(name)
	}
	if gt := b.prog.FindGenericType(name); gt != nil {
		b.use(n, RoleType, gt.TypeName)
		return named(name)
	}
	if IsIntrinsicType(name) {
		b.token(n, RoleIntrinsicType)
		return intrinsic(name)
	}
	b.token(n, RoleType)
	b.report(n, "undeclared type: %s", name)
	return named(name)
}

func (b *binder) library(n *sitter.Node) {
	name := b.content(n)
	if lib := b.prog.FindImportLibrary(name); lib != nil {
		b.use(n, RoleImportLibrary, lib.LibraryAlias)
		return
	}
	b.token(n, RoleImportLibrary)
	b.report(n, "undeclared import: %s", name)
}

// expr records a typed expression of the current function.
func (b *binder) expr(n *sitter.Node, t *TypeInfo) *TypeInfo {
	if b.fn != nil && t != nil {
		b.fn.expressions = append(b.fn.expressions, Expression{Span: b.lines.span(n), Type: t})
	}
	return t
}

// walk binds a statement or expression and returns the expression's type.
func (b *binder) walk(n *sitter.Node) *TypeInfo {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "comment", "label_name", "type_declaration":
		return nil
	case "identifier":
		return b.expr(n, b.identifier(n))
	case "field_identifier":
		b.token(n, RoleOther)
		return nil
	case "int_literal":
		return b.expr(n, intrinsic("int"))
	case "float_literal":
		return b.expr(n, intrinsic("float64"))
	case "imaginary_literal":
		return b.expr(n, intrinsic("complex128"))
	case "rune_literal":
		return b.expr(n, intrinsic("rune"))
	case "interpreted_string_literal", "raw_string_literal":
		return b.expr(n, intrinsic("string"))
	case "true", "false", "nil", "iota":
		return b.expr(n, builtinValues[n.Type()])
	case "parenthesized_expression":
		if n.NamedChildCount() == 0 {
			return nil
		}
		return b.expr(n, b.walk(n.NamedChild(0)))
	case "selector_expression":
		return b.selector(n)
	case "call_expression":
		return b.expr(n, b.call(n))
	case "composite_literal":
		return b.expr(n, b.compositeLiteral(n))
	case "unary_expression":
		return b.expr(n, b.unary(n))
	case "binary_expression":
		return b.expr(n, b.binary(n))
	case "index_expression":
		return b.expr(n, b.index(n))
	case "slice_expression":
		t := b.walk(n.ChildByFieldName("operand"))
		for _, field := range []string{"start", "end", "capacity"} {
			b.walk(n.ChildByFieldName(field))
		}
		return b.expr(n, t)
	case "type_assertion_expression":
		b.walk(n.ChildByFieldName("operand"))
		return b.expr(n, b.typeExpr(n.ChildByFieldName("type")))
	case "type_conversion_expression":
		t := b.typeExpr(n.ChildByFieldName("type"))
		b.walk(n.ChildByFieldName("operand"))
		return b.expr(n, t)
	case "func_literal":
		return b.expr(n, b.funcLiteral(n))
	case "short_var_declaration":
		b.shortVar(n)
		return nil
	case "var_declaration", "const_declaration":
		b.localVars(n)
		return nil
	case "range_clause":
		b.rangeClause(n)
		return nil
	case "receive_statement":
		b.receive(n)
		return nil
	case "type_switch_statement":
		b.typeSwitch(n)
		return nil
	case "return_statement":
		b.returnStatement(n)
		return nil
	}

	if typeNodes[n.Type()] {
		return b.typeExpr(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.walk(n.NamedChild(i))
	}
	return nil
}

func (b *binder) visibleFunction(name string) *FunctionDefinition {
	for _, list := range [][]*FunctionDefinition{b.prog.Functions, b.prog.GenericFunctions} {
		for _, f := range list {
			if f.receiver == "" && f.FunctionName.Lexeme == name {
				return f
			}
		}
	}
	return nil
}

func (b *binder) localBefore(name string, at Position) (LocalVariable, bool) {
	var found LocalVariable
	ok := false
	for _, l := range b.fn.locals {
		if l.Identifier.Lexeme == name && l.Identifier.Span.Start.Before(at) {
			found, ok = l, true
		}
	}
	return found, ok
}

// identifier binds a name used in an expression.
func (b *binder) identifier(n *sitter.Node) *TypeInfo {
	name := b.content(n)
	if name == "_" {
		return nil
	}

	if b.fn != nil {
		for _, p := range b.fn.Parameters {
			if p.Name.Lexeme == name {
				b.use(n, RoleParameter, p.Name)
				return p.Type
			}
		}
		if l, ok := b.localBefore(name, b.lines.position(n.StartPoint())); ok {
			b.use(n, RoleVariable, l.Identifier)
			return l.VariableType
		}
	}
	if g, ok := b.prog.FindGlobal(name); ok {
		b.use(n, RoleVariable, g.Identifier)
		return g.VariableType
	}
	if f := b.visibleFunction(name); f != nil {
		b.use(n, RoleFunction, f.FunctionName)
		return f.PointerType()
	}
	if f := b.prog.FindImportedFunction(name); f != nil {
		b.use(n, RoleImportedFunction, f.FunctionName)
		return f.PointerType()
	}
	if lib := b.prog.FindImportLibrary(name); lib != nil {
		b.use(n, RoleImportLibrary, lib.LibraryAlias)
		return nil
	}
	if tok, ok := b.typeParams[name]; ok {
		b.use(n, RoleType, tok)
		return named(name)
	}
	if ut := b.prog.FindType(name); ut != nil {
		b.use(n, RoleType, ut.Name)
		return named(name)
	}
	if gt := b.prog.FindGenericType(name); gt != nil {
		b.use(n, RoleType, gt.TypeName)
		return named(name)
	}
	if IsIntrinsicType(name) {
		b.token(n, RoleIntrinsicType)
		return intrinsic(name)
	}
	if t, ok := builtinValues[name]; ok {
		b.token(n, RoleOther)
		return t
	}
	b.token(n, RoleOther)
	if builtinFuncs[name] {
		return nil
	}
	if hint := b.suggest(name); hint != "" {
		b.report(n, "undeclared name: %s (did you mean %q?)", name, hint)
	} else {
		b.report(n, "undeclared name: %s", name)
	}
	return nil
}

func (b *binder) declareLocal(n *sitter.Node, t *TypeInfo) {
	if b.content(n) == "_" {
		return
	}
	b.addLocal(b.declare(n, RoleVariable), t)
}

func (b *binder) addLocal(tok Token, t *TypeInfo) {
	l := LocalVariable{Identifier: tok, VariableType: t}
	if b.fn != nil {
		b.fn.locals = append(b.fn.locals, l)
		return
	}
	b.prog.Globals = append(b.prog.Globals, l)
}

// expressionList walks the expressions of n. A single call returning
// several values spreads into its results.
func (b *binder) expressionList(n *sitter.Node) []*TypeInfo {
	if n == nil {
		return nil
	}
	var out []*TypeInfo
	if n.Type() == "expression_list" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() != "comment" {
				out = append(out, b.walk(c))
			}
		}
	} else {
		out = append(out, b.walk(n))
	}
	if len(out) == 1 && out[0] != nil && out[0].Kind == KindTuple {
		return out[0].Params
	}
	return out
}

func typeAt(types []*TypeInfo, i int) *TypeInfo {
	if i < len(types) {
		return types[i]
	}
	return nil
}

func identifiers(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() != "expression_list" {
		return []*sitter.Node{n}
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func hasToken(n *sitter.Node, text string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() && c.Type() == text {
			return true
		}
	}
	return false
}

// shortVar binds the right-hand side before declaring the left, so that
// "x := x + 1" refers to the outer x.
func (b *binder) shortVar(n *sitter.Node) {
	types := b.expressionList(n.ChildByFieldName("right"))
	for i, id := range identifiers(n.ChildByFieldName("left")) {
		if id.Type() == "identifier" {
			b.declareLocal(id, typeAt(types, i))
		} else {
			b.walk(id)
		}
	}
}

func (b *binder) localVars(n *sitter.Node) {
	for _, spec := range specs(n) {
		declared := b.typeExpr(spec.ChildByFieldName("type"))
		values := b.expressionList(spec.ChildByFieldName("value"))
		i := 0
		for j := 0; j < int(spec.NamedChildCount()); j++ {
			c := spec.NamedChild(j)
			if c.Type() != "identifier" {
				continue
			}
			t := declared
			if t == nil {
				t = typeAt(values, i)
			}
			b.declareLocal(c, t)
			i++
		}
	}
}

func rangeTypes(t *TypeInfo) (key, value *TypeInfo) {
	if t = t.Deref(); t == nil {
		return nil, nil
	}
	switch t.Kind {
	case KindSlice, KindArray:
		return intrinsic("int"), t.Elem
	case KindMap:
		return t.Key, t.Elem
	case KindIntrinsic:
		if t.Name == "string" {
			return intrinsic("int"), intrinsic("rune")
		}
		return t, nil
	}
	return nil, nil
}

func (b *binder) rangeClause(n *sitter.Node) {
	t := b.walk(n.ChildByFieldName("right"))
	left := n.ChildByFieldName("left")
	if left == nil {
		return
	}
	if !hasToken(n, ":=") {
		b.walk(left)
		return
	}
	key, value := rangeTypes(t)
	for i, id := range identifiers(left) {
		if id.Type() != "identifier" {
			continue
		}
		if i == 0 {
			b.declareLocal(id, key)
		} else {
			b.declareLocal(id, value)
		}
	}
}

func (b *binder) receive(n *sitter.Node) {
	b.walk(n.ChildByFieldName("right"))
	left := n.ChildByFieldName("left")
	if left == nil {
		return
	}
	if !hasToken(n, ":=") {
		b.walk(left)
		return
	}
	for _, id := range identifiers(left) {
		if id.Type() == "identifier" {
			b.declareLocal(id, nil)
		}
	}
}

func (b *binder) typeSwitch(n *sitter.Node) {
	alias := n.ChildByFieldName("alias")
	value := n.ChildByFieldName("value")
	b.walk(n.ChildByFieldName("initializer"))
	b.walk(value)
	for _, id := range identifiers(alias) {
		if id.Type() == "identifier" {
			b.declareLocal(id, nil)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "type_case", "default_case", "comment":
			b.walk(c)
		}
	}
}

func (b *binder) returnStatement(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() {
			if c.Type() == "return" {
				b.token(c, RoleReturn)
			}
			continue
		}
		b.walk(c)
	}
}

func (b *binder) method(receiver, name string) *FunctionDefinition {
	if receiver == "" {
		return nil
	}
	for _, list := range [][]*FunctionDefinition{b.prog.Functions, b.prog.GenericFunctions} {
		for _, f := range list {
			if f.receiver == receiver && f.FunctionName.Lexeme == name {
				return f
			}
		}
	}
	return nil
}

func (b *binder) selector(n *sitter.Node) *TypeInfo {
	operand := n.ChildByFieldName("operand")
	field := n.ChildByFieldName("field")
	instance := b.walk(operand)
	if field == nil || field.IsMissing() {
		return nil
	}
	name := b.content(field)

	var (
		t      *TypeInfo
		target Token
		bound  bool
	)
	if fields, _, ok := b.prog.StructFields(instance); ok {
		for _, f := range fields {
			if f.Name.Lexeme == name {
				target, t, bound = b.use(field, RoleTypeField, f.Name), f.Type, true
				break
			}
		}
	}
	if !bound {
		if m := b.method(instance.BaseName(), name); m != nil {
			target, t, bound = b.use(field, RoleFunction, m.FunctionName), m.PointerType(), true
		}
	}
	if !bound {
		target = b.token(field, RoleOther)
	}

	if b.fn != nil && instance != nil {
		b.fn.expressions = append(b.fn.expressions, Expression{
			Span:     b.lines.span(n),
			Type:     t,
			Instance: instance,
			Target:   &target,
		})
	}
	return t
}

func (b *binder) call(n *sitter.Node) *TypeInfo {
	fn := n.ChildByFieldName("function")
	ft := b.walk(fn)
	if targs := n.ChildByFieldName("type_arguments"); targs != nil {
		b.walk(targs)
	}

	var args []*TypeInfo
	if list := n.ChildByFieldName("arguments"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			if c := list.NamedChild(i); c.Type() != "comment" {
				args = append(args, b.walk(c))
			}
		}
	}

	if ft == nil && fn != nil && fn.Type() == "identifier" {
		switch b.content(fn) {
		case "len", "cap", "copy":
			return intrinsic("int")
		case "new":
			if t := typeAt(args, 0); t != nil {
				return pointerTo(t)
			}
		case "make", "append", "min", "max":
			return typeAt(args, 0)
		case "complex":
			return intrinsic("complex128")
		case "real", "imag":
			return intrinsic("float64")
		}
		return nil
	}
	if ft != nil && ft.Kind == KindFunc {
		return resultOf(ft.Results)
	}
	// Calling a type is a conversion.
	return ft
}

func (b *binder) compositeLiteral(n *sitter.Node) *TypeInfo {
	t := b.typeExpr(n.ChildByFieldName("type"))
	if body := n.ChildByFieldName("body"); body != nil {
		b.literalValue(body, t)
	}
	return t
}

func elementType(t *TypeInfo) *TypeInfo {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindSlice, KindArray, KindMap:
		return t.Elem
	}
	return nil
}

func (b *binder) literalValue(body *sitter.Node, t *TypeInfo) {
	fields, _, isStruct := b.prog.StructFields(t)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		switch c.Type() {
		case "comment":
		case "keyed_element":
			if c.NamedChildCount() < 2 {
				b.walk(c)
				continue
			}
			key, value := unwrap(c.NamedChild(0)), unwrap(c.NamedChild(1))
			if isStruct && (key.Type() == "field_identifier" || key.Type() == "identifier") {
				b.fieldKey(key, fields)
			} else if key.Type() == "literal_value" {
				b.literalValue(key, nil)
			} else {
				b.walk(key)
			}
			b.element(value, t)
		default:
			b.element(unwrap(c), t)
		}
	}
}

func (b *binder) element(n *sitter.Node, container *TypeInfo) {
	if n.Type() == "literal_value" {
		b.literalValue(n, elementType(container))
		return
	}
	b.walk(n)
}

func (b *binder) fieldKey(key *sitter.Node, fields []Field) {
	name := b.content(key)
	for _, f := range fields {
		if f.Name.Lexeme == name {
			b.use(key, RoleTypeField, f.Name)
			return
		}
	}
	b.token(key, RoleOther)
	b.report(key, "unknown field: %s", name)
}

func (b *binder) unary(n *sitter.Node) *TypeInfo {
	t := b.walk(n.ChildByFieldName("operand"))
	op := ""
	if o := n.ChildByFieldName("operator"); o != nil {
		op = o.Type()
	}
	switch op {
	case "&":
		if t != nil {
			return pointerTo(t)
		}
		return nil
	case "*":
		if t != nil && t.Kind == KindPointer {
			return t.Elem
		}
		return nil
	case "!":
		return intrinsic("bool")
	case "<-":
		return nil
	}
	return t
}

func (b *binder) binary(n *sitter.Node) *TypeInfo {
	left := b.walk(n.ChildByFieldName("left"))
	right := b.walk(n.ChildByFieldName("right"))
	op := ""
	if o := n.ChildByFieldName("operator"); o != nil {
		op = o.Type()
	}
	if comparisonOperator(op) {
		return intrinsic("bool")
	}
	if left != nil {
		return left
	}
	return right
}

func (b *binder) index(n *sitter.Node) *TypeInfo {
	t := b.walk(n.ChildByFieldName("operand"))
	b.walk(n.ChildByFieldName("index"))
	if t = t.Deref(); t == nil {
		return nil
	}
	switch t.Kind {
	case KindSlice, KindArray, KindMap:
		return t.Elem
	case KindIntrinsic:
		if t.Name == "string" {
			return intrinsic("byte")
		}
	case KindFunc:
		return t
	}
	return nil
}

func (b *binder) funcLiteral(n *sitter.Node) *TypeInfo {
	var params []Parameter
	if list := n.ChildByFieldName("parameters"); list != nil {
		params = b.parameters(list, RoleVariable)
	}
	results, named := b.results(n.ChildByFieldName("result"))
	for _, p := range append(params, named...) {
		if p.Name.Lexeme != "" {
			b.addLocal(p.Name, p.Type)
		}
	}
	b.walk(n.ChildByFieldName("body"))
	return funcType(params, results)
}
