package analysis

import (
	"fmt"
	"sort"
	"strings"
)

type Parameter struct {
	Name Token
	Type *TypeInfo
}

func (p Parameter) String() string {
	return fmt.Sprintf("(param %s %s)", p.Name.Lexeme, p.Type)
}

type LocalVariable struct {
	Identifier   Token
	VariableType *TypeInfo
}

type Field struct {
	Name Token
	Type *TypeInfo
}

type TypeParameter struct {
	Name       Token
	Constraint *TypeInfo
}

func (tp TypeParameter) String() string {
	return tp.Name.Lexeme + " " + tp.Constraint.String()
}

func joinTypeParameters(params []TypeParameter) string {
	parts := make([]string, len(params))
	for i, tp := range params {
		parts[i] = tp.String()
	}
	return strings.Join(parts, ", ")
}

func renderSignature(name string, ret *TypeInfo, params []Parameter) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(':')
	if ret == nil {
		b.WriteString("void")
	} else {
		b.WriteString(ret.String())
	}
	for _, p := range params {
		b.WriteByte(' ')
		b.WriteString(p.String())
	}
	return b.String()
}

func funcType(params []Parameter, results []*TypeInfo) *TypeInfo {
	t := &TypeInfo{Kind: KindFunc, Results: results}
	for _, p := range params {
		t.Params = append(t.Params, p.Type)
	}
	return t
}

// FunctionDefinition is a function or method with a body. Methods list
// their receiver as the first parameter.
type FunctionDefinition struct {
	FunctionName   Token
	TypeParameters []TypeParameter
	Parameters     []Parameter
	Results        []*TypeInfo
	Span           Span

	receiver           string
	receiverTypeParams []Token
	locals             []LocalVariable
	expressions        []Expression
	accesses           []Expression
}

// FindTypeParameter returns the type parameter called name.
func (f *FunctionDefinition) FindTypeParameter(name string) *TypeParameter {
	for i := range f.TypeParameters {
		if f.TypeParameters[i].Name.Lexeme == name {
			return &f.TypeParameters[i]
		}
	}
	return nil
}

// ReturnType folds the results into one type; nil means no result.
func (f *FunctionDefinition) ReturnType() *TypeInfo { return resultOf(f.Results) }

// IsGeneric reports whether f declares type parameters.
func (f *FunctionDefinition) IsGeneric() bool { return len(f.TypeParameters) > 0 }

// DecoratedName is the name followed by its type parameters, if any.
func (f *FunctionDefinition) DecoratedName() string {
	if !f.IsGeneric() {
		return f.FunctionName.Lexeme
	}
	return f.FunctionName.Lexeme + "[" + joinTypeParameters(f.TypeParameters) + "]"
}

// Signature renders "name:ret (param a int) ...".
func (f *FunctionDefinition) Signature() string {
	return renderSignature(f.DecoratedName(), f.ReturnType(), f.Parameters)
}

// PointerType is the function's type as a value.
func (f *FunctionDefinition) PointerType() *TypeInfo {
	return funcType(f.Parameters, f.Results)
}

// LocalVariables returns every local declared in the body, in source order.
func (f *FunctionDefinition) LocalVariables() []LocalVariable { return f.locals }

// ImportedFunctionDefinition is a bodyless function provided by the host.
type ImportedFunctionDefinition struct {
	FunctionName      Token
	LibraryAlias      string
	CallingConvention string
	Parameters        []Parameter
	Results           []*TypeInfo
	Span              Span
}

func (f *ImportedFunctionDefinition) ReturnType() *TypeInfo { return resultOf(f.Results) }

func (f *ImportedFunctionDefinition) PointerType() *TypeInfo {
	return funcType(f.Parameters, f.Results)
}

// Signature renders "<library> <convention> name:ret (param ...)", omitting
// an absent library or convention.
func (f *ImportedFunctionDefinition) Signature() string {
	var parts []string
	if f.LibraryAlias != "" {
		parts = append(parts, f.LibraryAlias)
	}
	if f.CallingConvention != "" {
		parts = append(parts, f.CallingConvention)
	}
	parts = append(parts, renderSignature(f.FunctionName.Lexeme, f.ReturnType(), f.Parameters))
	return strings.Join(parts, " ")
}

// UserDefinedType is a non-generic named type.
type UserDefinedType struct {
	Name       Token
	Underlying *TypeInfo
	IsStruct   bool
	Fields     []Field
	Span       Span
}

func (t *UserDefinedType) String() string {
	return t.Name.Lexeme + " " + underlyingString(t.IsStruct, t.Fields, t.Underlying)
}

func underlyingString(isStruct bool, fields []Field, underlying *TypeInfo) string {
	if !isStruct {
		return underlying.String()
	}
	if len(fields) == 0 {
		return "struct{}"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name.Lexeme + " " + f.Type.String()
	}
	return "struct { " + strings.Join(parts, "; ") + " }"
}

// GenericTypeDefinition is a named type with type parameters.
type GenericTypeDefinition struct {
	TypeName       Token
	TypeParameters []TypeParameter
	Underlying     *TypeInfo
	IsStruct       bool
	Fields         []Field
	Span           Span
}

// DecoratedName renders "Name[T any, ...]".
func (t *GenericTypeDefinition) DecoratedName() string {
	return t.TypeName.Lexeme + "[" + joinTypeParameters(t.TypeParameters) + "]"
}

type ImportLibraryDefinition struct {
	LibraryAlias Token
	LibraryPath  string
	Span         Span
}

// Finding is a problem the resolver noticed.
type Finding struct {
	Span    Span
	Message string
}

// Expression is a typed expression inside a function body. Selector
// expressions also carry the operand type and the selected field.
type Expression struct {
	Span     Span
	Type     *TypeInfo
	Instance *TypeInfo
	Target   *Token
}

// Program is the analysed form of one document.
type Program struct {
	Functions         []*FunctionDefinition
	GenericFunctions  []*FunctionDefinition
	ImportedFunctions []*ImportedFunctionDefinition
	Types             []*UserDefinedType
	GenericTypes      []*GenericTypeDefinition
	ImportLibraries   []*ImportLibraryDefinition
	Globals           []LocalVariable

	// References maps every bound token to all tokens denoting the same
	// declaration, declaration first.
	References map[TokenID][]Token

	Findings []Finding

	tokens []Token // indexed by TokenID
	order  []int   // token indexes sorted by position
}

// Tokens returns the classified tokens in document order.
func (p *Program) Tokens() []Token {
	out := make([]Token, len(p.order))
	for i, idx := range p.order {
		out[i] = p.tokens[idx]
	}
	return out
}

// TokenAt returns the token whose span contains pos.
func (p *Program) TokenAt(pos Position) (Token, bool) {
	i := sort.Search(len(p.order), func(i int) bool {
		return pos.Before(p.tokens[p.order[i]].Span.End)
	})
	if i < len(p.order) {
		if tok := p.tokens[p.order[i]]; tok.Span.Contains(pos) {
			return tok, true
		}
	}
	return Token{}, false
}

// TokenEndingAt returns the token whose span ends exactly at pos.
func (p *Program) TokenEndingAt(pos Position) (Token, bool) {
	for _, idx := range p.order {
		tok := p.tokens[idx]
		if tok.Span.End == pos {
			return tok, true
		}
		if pos.Before(tok.Span.Start) {
			break
		}
	}
	return Token{}, false
}

// Declaration returns the declaring token of tok, if tok is bound.
func (p *Program) Declaration(tok Token) (Token, bool) {
	group, ok := p.References[tok.ID]
	if !ok || len(group) == 0 {
		return Token{}, false
	}
	return group[0], true
}

func (p *Program) FindFunction(name string) *FunctionDefinition {
	for _, f := range p.Functions {
		if f.FunctionName.Lexeme == name {
			return f
		}
	}
	return nil
}

func (p *Program) FindGenericFunction(name string) *FunctionDefinition {
	for _, f := range p.GenericFunctions {
		if f.FunctionName.Lexeme == name {
			return f
		}
	}
	return nil
}

func (p *Program) FindImportedFunction(name string) *ImportedFunctionDefinition {
	for _, f := range p.ImportedFunctions {
		if f.FunctionName.Lexeme == name {
			return f
		}
	}
	return nil
}

func (p *Program) FindType(name string) *UserDefinedType {
	for _, t := range p.Types {
		if t.Name.Lexeme == name {
			return t
		}
	}
	return nil
}

func (p *Program) FindGenericType(name string) *GenericTypeDefinition {
	for _, t := range p.GenericTypes {
		if t.TypeName.Lexeme == name {
			return t
		}
	}
	return nil
}

func (p *Program) FindImportLibrary(name string) *ImportLibraryDefinition {
	for _, l := range p.ImportLibraries {
		if l.LibraryAlias.Lexeme == name {
			return l
		}
	}
	return nil
}

func (p *Program) FindGlobal(name string) (LocalVariable, bool) {
	for _, g := range p.Globals {
		if g.Identifier.Lexeme == name {
			return g, true
		}
	}
	return LocalVariable{}, false
}

// StructFields returns the fields of the struct t names, looking through
// one pointer, along with the struct's declaring token.
func (p *Program) StructFields(t *TypeInfo) ([]Field, Token, bool) {
	t = t.Deref()
	if t == nil || t.Kind != KindNamed {
		return nil, Token{}, false
	}
	if ut := p.FindType(t.Name); ut != nil && ut.IsStruct {
		return ut.Fields, ut.Name, true
	}
	if gt := p.FindGenericType(t.Name); gt != nil && gt.IsStruct {
		return gt.Fields, gt.TypeName, true
	}
	return nil, Token{}, false
}

// FunctionContext returns the context of the ordinary function enclosing pos.
func (p *Program) FunctionContext(pos Position) (*FunctionContext, bool) {
	return enclosing(p.Functions, pos)
}

// GenericFunctionContext returns the context of the generic function
// enclosing pos.
func (p *Program) GenericFunctionContext(pos Position) (*FunctionContext, bool) {
	return enclosing(p.GenericFunctions, pos)
}

func enclosing(defs []*FunctionDefinition, pos Position) (*FunctionContext, bool) {
	for _, f := range defs {
		if f.Span.Contains(pos) {
			return &FunctionContext{Function: f}, true
		}
	}
	return nil, false
}

// FunctionContext answers scoped queries inside one function.
type FunctionContext struct {
	Function *FunctionDefinition
}

// Parameter finds the parameter named like tok.
func (c *FunctionContext) Parameter(tok Token) (Parameter, bool) {
	for _, param := range c.Function.Parameters {
		if param.Name.Lexeme == tok.Lexeme {
			return param, true
		}
	}
	return Parameter{}, false
}

// LocalVariable finds the declaration of the local named like tok that is
// nearest at or before tok.
func (c *FunctionContext) LocalVariable(tok Token) (LocalVariable, bool) {
	var found LocalVariable
	ok := false
	for _, l := range c.Function.locals {
		if l.Identifier.Lexeme != tok.Lexeme {
			continue
		}
		if tok.Span.Start.Before(l.Identifier.Span.Start) {
			break
		}
		found, ok = l, true
	}
	return found, ok
}

// MemberAccess returns the field access with no field name yet whose
// trailing dot ends exactly at pos, as in "p." with the cursor after the dot.
func (c *FunctionContext) MemberAccess(pos Position) (Expression, bool) {
	for _, e := range c.Function.accesses {
		if e.Span.End == pos {
			return e, true
		}
	}
	return Expression{}, false
}

// Expression returns the innermost typed expression containing pos.
func (c *FunctionContext) Expression(pos Position) (Expression, bool) {
	var best Expression
	ok := false
	for _, e := range c.Function.expressions {
		if !e.Span.Contains(pos) {
			continue
		}
		if !ok || e.Span.Within(best.Span) {
			best, ok = e, true
		}
	}
	return best, ok
}
