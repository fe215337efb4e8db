package locator

import (
	"strconv"

	"leafls/internal/analysis"
)

type hoverFunc func(l *Locator, tok analysis.Token, pos analysis.Position) (string, bool)

// hoverTable lists hover handlers in dispatch priority order.
var hoverTable = []struct {
	role   analysis.Role
	render hoverFunc
}{
	{analysis.RoleType, (*Locator).hoverType},
	{analysis.RoleParameter, (*Locator).hoverParameter},
	{analysis.RoleVariable, (*Locator).hoverVariable},
	{analysis.RoleFunction, (*Locator).hoverFunction},
	{analysis.RoleImportedFunction, (*Locator).hoverImportedFunction},
	{analysis.RoleTypeField, (*Locator).hoverField},
	{analysis.RoleImportLibrary, (*Locator).hoverLibrary},
	{analysis.RoleIntrinsicType, (*Locator).hoverIntrinsic},
	{analysis.RoleReturn, (*Locator).hoverReturn},
}

var hoverHandlers = func() [analysis.NumRoles]hoverFunc {
	var table [analysis.NumRoles]hoverFunc
	for _, entry := range hoverTable {
		table[entry.role] = entry.render
	}
	return table
}()

// Hover returns the code shown for the symbol at pos. Tokens without a
// role handler fall back to the type of the innermost expression at pos;
// when there is none the result is empty and not an error.
func (l *Locator) Hover(pos analysis.Position) (string, error) {
	tok, ok := l.prog.TokenAt(pos)
	if ok {
		if render := hoverHandlers[tok.Role]; render != nil {
			if code, found := render(l, tok, pos); found {
				return code, nil
			}
			return "", notFound("get hover information", pos, tok, true)
		}
	}
	return l.hoverExpression(pos), nil
}

func (l *Locator) hoverType(tok analysis.Token, _ analysis.Position) (string, bool) {
	if t := l.prog.FindType(tok.Lexeme); t != nil {
		return "type " + t.String(), true
	}
	if t := l.prog.FindGenericType(tok.Lexeme); t != nil {
		return "type " + t.DecoratedName(), true
	}
	return "", false
}

func (l *Locator) hoverParameter(tok analysis.Token, pos analysis.Position) (string, bool) {
	p, ok := l.parameter(tok, pos)
	if !ok {
		return "", false
	}
	return p.Type.String(), true
}

func (l *Locator) hoverVariable(tok analysis.Token, pos analysis.Position) (string, bool) {
	v, ok := l.variable(tok, pos)
	if !ok {
		return "", false
	}
	return v.VariableType.String(), true
}

func (l *Locator) hoverFunction(tok analysis.Token, _ analysis.Position) (string, bool) {
	if f := l.prog.FindFunction(tok.Lexeme); f != nil {
		return f.Signature(), true
	}
	if f := l.prog.FindGenericFunction(tok.Lexeme); f != nil {
		return f.Signature(), true
	}
	return "", false
}

func (l *Locator) hoverImportedFunction(tok analysis.Token, _ analysis.Position) (string, bool) {
	if f := l.prog.FindImportedFunction(tok.Lexeme); f != nil {
		return f.Signature(), true
	}
	return "", false
}

func (l *Locator) hoverField(tok analysis.Token, pos analysis.Position) (string, bool) {
	for _, ctx := range l.contexts(pos) {
		if expr, ok := ctx.Expression(pos); ok {
			return expr.Type.String(), true
		}
	}
	if f, ok := l.field(tok, pos); ok {
		return f.Type.String(), true
	}
	return "", false
}

func (l *Locator) hoverLibrary(tok analysis.Token, _ analysis.Position) (string, bool) {
	if lib := l.prog.FindImportLibrary(tok.Lexeme); lib != nil {
		return strconv.Quote(lib.LibraryPath), true
	}
	return "", false
}

func (l *Locator) hoverIntrinsic(tok analysis.Token, _ analysis.Position) (string, bool) {
	return tok.Lexeme, true
}

func (l *Locator) hoverReturn(_ analysis.Token, pos analysis.Position) (string, bool) {
	if contexts := l.contexts(pos); len(contexts) > 0 {
		return contexts[0].Function.Signature(), true
	}
	return "", false
}

func (l *Locator) hoverExpression(pos analysis.Position) string {
	for _, ctx := range l.contexts(pos) {
		if expr, ok := ctx.Expression(pos); ok {
			return expr.Type.String()
		}
	}
	return ""
}
