// Package locator answers position queries against one program model:
// the token under the cursor, its declaration, its hover text, completion
// candidates and references.
//
// Definition and hover dispatch on the token's role through fixed tables.
// A role has at most one handler and the first matching role wins, so the
// outcome for a token never depends on other roles it could have had.
package locator

import (
	"leafls/internal/analysis"
)

// Locator answers queries for one resolved program.
type Locator struct {
	prog *analysis.Program
}

func New(prog *analysis.Program) *Locator {
	return &Locator{prog: prog}
}

// TokenAt returns the token whose span contains pos.
func (l *Locator) TokenAt(pos analysis.Position) (analysis.Token, bool) {
	return l.prog.TokenAt(pos)
}

type definitionFunc func(l *Locator, tok analysis.Token, pos analysis.Position) (analysis.Token, bool)

// definitionTable lists definition handlers in dispatch priority order.
var definitionTable = []struct {
	role    analysis.Role
	resolve definitionFunc
}{
	{analysis.RoleType, (*Locator).typeDeclaration},
	{analysis.RoleParameter, (*Locator).parameterDeclaration},
	{analysis.RoleVariable, (*Locator).variableDeclaration},
	{analysis.RoleFunction, (*Locator).functionDeclaration},
	{analysis.RoleImportedFunction, (*Locator).importedFunctionDeclaration},
	{analysis.RoleTypeField, (*Locator).fieldDeclaration},
	{analysis.RoleImportLibrary, (*Locator).libraryDeclaration},
}

var definitionHandlers = func() [analysis.NumRoles]definitionFunc {
	var table [analysis.NumRoles]definitionFunc
	for _, entry := range definitionTable {
		table[entry.role] = entry.resolve
	}
	return table
}()

// Definition returns the declaring token of the symbol at pos.
func (l *Locator) Definition(pos analysis.Position) (analysis.Token, error) {
	tok, ok := l.prog.TokenAt(pos)
	if !ok {
		return analysis.Token{}, notFound("go to definition", pos, tok, false)
	}
	if resolve := definitionHandlers[tok.Role]; resolve != nil {
		if decl, found := resolve(l, tok, pos); found {
			return decl, nil
		}
	}
	return analysis.Token{}, notFound("go to definition", pos, tok, true)
}

// TypeDefinition returns the declaration of the named type of the symbol at
// pos: the type itself for type tokens, the declared (pointee) type for
// parameters, variables and fields.
func (l *Locator) TypeDefinition(pos analysis.Position) (analysis.Token, error) {
	tok, ok := l.prog.TokenAt(pos)
	if !ok {
		return analysis.Token{}, notFound("go to type definition", pos, tok, false)
	}

	name := tok.Lexeme
	switch tok.Role {
	case analysis.RoleParameter, analysis.RoleVariable, analysis.RoleTypeField:
		t, found := l.symbolType(tok, pos)
		if !found {
			return analysis.Token{}, notFound("go to type definition", pos, tok, true)
		}
		name = t.BaseName()
	}

	if decl, found := l.namedType(name); found {
		return decl, nil
	}
	return analysis.Token{}, notFound("go to type definition", pos, tok, true)
}

// References returns every token denoting the same declaration as the token
// at pos, declaration first unless includeDeclaration is false. An unbound
// or missing token yields an empty list.
func (l *Locator) References(pos analysis.Position, includeDeclaration bool) []analysis.Token {
	refs := []analysis.Token{}
	tok, ok := l.prog.TokenAt(pos)
	if !ok {
		return refs
	}
	group, ok := l.prog.References[tok.ID]
	if !ok {
		return refs
	}
	if !includeDeclaration && len(group) > 0 {
		group = group[1:]
	}
	return append(refs, group...)
}

func (l *Locator) namedType(name string) (analysis.Token, bool) {
	if t := l.prog.FindType(name); t != nil {
		return t.Name, true
	}
	if t := l.prog.FindGenericType(name); t != nil {
		return t.TypeName, true
	}
	return analysis.Token{}, false
}

// contexts returns the ordinary then the generic function context at pos.
func (l *Locator) contexts(pos analysis.Position) []*analysis.FunctionContext {
	var out []*analysis.FunctionContext
	if ctx, ok := l.prog.FunctionContext(pos); ok {
		out = append(out, ctx)
	}
	if ctx, ok := l.prog.GenericFunctionContext(pos); ok {
		out = append(out, ctx)
	}
	return out
}

func (l *Locator) typeDeclaration(tok analysis.Token, _ analysis.Position) (analysis.Token, bool) {
	if decl, ok := l.namedType(tok.Lexeme); ok {
		return decl, true
	}
	// Type parameters are only reachable through their binding.
	if decl, ok := l.prog.Declaration(tok); ok && decl.Role == analysis.RoleType {
		return decl, true
	}
	return analysis.Token{}, false
}

func (l *Locator) parameter(tok analysis.Token, pos analysis.Position) (analysis.Parameter, bool) {
	for _, ctx := range l.contexts(pos) {
		if p, ok := ctx.Parameter(tok); ok {
			return p, true
		}
	}
	return analysis.Parameter{}, false
}

func (l *Locator) parameterDeclaration(tok analysis.Token, pos analysis.Position) (analysis.Token, bool) {
	p, ok := l.parameter(tok, pos)
	return p.Name, ok
}

func (l *Locator) variable(tok analysis.Token, pos analysis.Position) (analysis.LocalVariable, bool) {
	for _, ctx := range l.contexts(pos) {
		if v, ok := ctx.LocalVariable(tok); ok {
			return v, true
		}
	}
	return l.prog.FindGlobal(tok.Lexeme)
}

func (l *Locator) variableDeclaration(tok analysis.Token, pos analysis.Position) (analysis.Token, bool) {
	v, ok := l.variable(tok, pos)
	return v.Identifier, ok
}

func (l *Locator) functionDeclaration(tok analysis.Token, _ analysis.Position) (analysis.Token, bool) {
	if f := l.prog.FindFunction(tok.Lexeme); f != nil {
		return f.FunctionName, true
	}
	if f := l.prog.FindGenericFunction(tok.Lexeme); f != nil {
		return f.FunctionName, true
	}
	return analysis.Token{}, false
}

func (l *Locator) importedFunctionDeclaration(tok analysis.Token, _ analysis.Position) (analysis.Token, bool) {
	if f := l.prog.FindImportedFunction(tok.Lexeme); f != nil {
		return f.FunctionName, true
	}
	return analysis.Token{}, false
}

// field resolves a field token through the selector expression around it,
// or through its binding when it is a declaration or a literal key.
func (l *Locator) field(tok analysis.Token, pos analysis.Position) (analysis.Field, bool) {
	for _, ctx := range l.contexts(pos) {
		expr, ok := ctx.Expression(pos)
		if !ok || expr.Target == nil || expr.Target.Lexeme != tok.Lexeme {
			continue
		}
		fields, _, ok := l.prog.StructFields(expr.Instance)
		if !ok {
			continue
		}
		for _, f := range fields {
			if f.Name.Lexeme == tok.Lexeme {
				return f, true
			}
		}
	}

	decl, ok := l.prog.Declaration(tok)
	if !ok {
		return analysis.Field{}, false
	}
	for _, t := range l.prog.Types {
		for _, f := range t.Fields {
			if f.Name.ID == decl.ID {
				return f, true
			}
		}
	}
	for _, t := range l.prog.GenericTypes {
		for _, f := range t.Fields {
			if f.Name.ID == decl.ID {
				return f, true
			}
		}
	}
	return analysis.Field{}, false
}

func (l *Locator) fieldDeclaration(tok analysis.Token, pos analysis.Position) (analysis.Token, bool) {
	f, ok := l.field(tok, pos)
	return f.Name, ok
}

func (l *Locator) libraryDeclaration(tok analysis.Token, _ analysis.Position) (analysis.Token, bool) {
	if lib := l.prog.FindImportLibrary(tok.Lexeme); lib != nil {
		return lib.LibraryAlias, true
	}
	return analysis.Token{}, false
}

// symbolType is the declared type of a parameter, variable or field token.
func (l *Locator) symbolType(tok analysis.Token, pos analysis.Position) (*analysis.TypeInfo, bool) {
	switch tok.Role {
	case analysis.RoleParameter:
		p, ok := l.parameter(tok, pos)
		return p.Type, ok && p.Type != nil
	case analysis.RoleVariable:
		v, ok := l.variable(tok, pos)
		return v.VariableType, ok && v.VariableType != nil
	case analysis.RoleTypeField:
		f, ok := l.field(tok, pos)
		return f.Type, ok && f.Type != nil
	}
	return nil, false
}
