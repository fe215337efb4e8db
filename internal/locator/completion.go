package locator

import (
	"strings"

	"leafls/internal/analysis"
)

// CompletionKind tells which source produced a candidate.
type CompletionKind int

const (
	CompletionField CompletionKind = iota
	CompletionParameter
	CompletionLocal
	CompletionFunction
	CompletionImportedFunction
	CompletionType
)

// Completion is one candidate. Category is the one-word tag shown to the
// user ("local", "function", "importedfunction", "type" or, for fields,
// "type <Struct>").
type Completion struct {
	Label    string
	Detail   string
	Category string
	Kind     CompletionKind
}

// Completions gathers candidates in a fixed order without deduplication:
// fields of a pointer-to-struct selector, parameters, locals, functions,
// generic functions, imported functions, then types. A word at or right
// before the cursor filters them by case-insensitive prefix.
func (l *Locator) Completions(pos analysis.Position) []Completion {
	prefix, hasPrefix := l.prog.TokenAt(pos)
	if !hasPrefix {
		prefix, hasPrefix = l.prog.TokenEndingAt(pos)
	}
	at := pos
	if hasPrefix {
		at = prefix.Span.Start
	}

	var out []Completion
	contexts := l.contexts(at)

	for _, ctx := range contexts {
		expr, ok := ctx.Expression(at)
		if !hasPrefix {
			// Right after the dot of "p." no field name has been typed yet.
			expr, ok = ctx.MemberAccess(pos)
		}
		if !ok || expr.Instance == nil || expr.Instance.Kind != analysis.KindPointer {
			continue
		}
		fields, structName, ok := l.prog.StructFields(expr.Instance)
		if !ok {
			continue
		}
		for _, f := range fields {
			out = append(out, Completion{
				Label:    f.Name.Lexeme,
				Detail:   f.Type.String(),
				Category: "type " + structName.Lexeme,
				Kind:     CompletionField,
			})
		}
		break
	}

	if len(contexts) > 0 {
		fn := contexts[0].Function
		for _, p := range fn.Parameters {
			if p.Name.Lexeme == "" {
				continue
			}
			out = append(out, Completion{
				Label:    p.Name.Lexeme,
				Detail:   p.Type.String(),
				Category: "local",
				Kind:     CompletionParameter,
			})
		}
		for _, v := range fn.LocalVariables() {
			out = append(out, Completion{
				Label:    v.Identifier.Lexeme,
				Detail:   v.VariableType.String(),
				Category: "local",
				Kind:     CompletionLocal,
			})
		}
	}

	for _, f := range l.prog.Functions {
		out = append(out, Completion{
			Label:    f.FunctionName.Lexeme,
			Detail:   f.PointerType().String(),
			Category: "function",
			Kind:     CompletionFunction,
		})
	}
	for _, f := range l.prog.GenericFunctions {
		out = append(out, Completion{
			Label:    f.FunctionName.Lexeme,
			Detail:   f.DecoratedName(),
			Category: "function",
			Kind:     CompletionFunction,
		})
	}
	for _, f := range l.prog.ImportedFunctions {
		out = append(out, Completion{
			Label:    f.FunctionName.Lexeme,
			Detail:   f.PointerType().String(),
			Category: "importedfunction",
			Kind:     CompletionImportedFunction,
		})
	}
	for _, t := range l.prog.Types {
		out = append(out, Completion{
			Label:    t.Name.Lexeme,
			Detail:   t.String(),
			Category: "type",
			Kind:     CompletionType,
		})
	}
	for _, t := range l.prog.GenericTypes {
		out = append(out, Completion{
			Label:    t.TypeName.Lexeme,
			Detail:   t.DecoratedName(),
			Category: "type",
			Kind:     CompletionType,
		})
	}

	if !hasPrefix {
		return out
	}
	return filterPrefix(out, prefix.Lexeme)
}

func filterPrefix(candidates []Completion, prefix string) []Completion {
	prefix = strings.ToLower(prefix)
	out := candidates[:0]
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.Label), prefix) {
			out = append(out, c)
		}
	}
	return out
}
