package analysis_test

import (
	"strings"
	"testing"

	"leafls/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/commonlog"
)

func resolve(t *testing.T, text string) *analysis.Program {
	t.Helper()
	r := analysis.NewResolver(commonlog.GetLogger("test"))
	t.Cleanup(func() { r.Close() })
	return r.Resolve(text)
}

func at(line, column int) analysis.Position {
	return analysis.Position{Line: line, Column: column}
}

const addSource = `func add(a int, b int) int { return a + b }
func main() {
	total := add(1, 2)
	_ = total
}
`

func TestFunctionSignature(t *testing.T) {
	prog := resolve(t, addSource)

	add := prog.FindFunction("add")
	require.NotNil(t, add)
	assert.Equal(t, "add:int (param a int) (param b int)", add.Signature())
	assert.Equal(t, "main:void", prog.FindFunction("main").Signature())
	assert.Empty(t, prog.Findings)

	tok, ok := prog.TokenAt(at(0, 5))
	require.True(t, ok)
	assert.Equal(t, "add", tok.Lexeme)
	assert.Equal(t, analysis.RoleFunction, tok.Role)
	assert.Equal(t, analysis.Span{Start: at(0, 5), End: at(0, 8)}, tok.Span)

	_, ok = prog.TokenAt(at(0, 8))
	assert.False(t, ok, "spans are half-open")
}

func TestRolesAndReferences(t *testing.T) {
	prog := resolve(t, addSource)

	// "a" in "return a + b"
	use, ok := prog.TokenAt(at(0, 36))
	require.True(t, ok)
	assert.Equal(t, "a", use.Lexeme)
	assert.Equal(t, analysis.RoleParameter, use.Role)

	group := prog.References[use.ID]
	require.Len(t, group, 2)
	assert.Equal(t, at(0, 9), group[0].Span.Start, "declaration comes first")
	assert.Equal(t, group, prog.References[group[0].ID])

	ret, ok := prog.TokenAt(at(0, 29))
	require.True(t, ok)
	assert.Equal(t, analysis.RoleReturn, ret.Role)

	call, ok := prog.TokenAt(at(2, 10))
	require.True(t, ok)
	assert.Equal(t, analysis.RoleFunction, call.Role)
	decl, ok := prog.Declaration(call)
	require.True(t, ok)
	assert.Equal(t, at(0, 5), decl.Span.Start)

	ctx, ok := prog.FunctionContext(at(2, 2))
	require.True(t, ok)
	local, ok := ctx.LocalVariable(analysis.Token{Lexeme: "total", Span: analysis.Span{Start: at(3, 5)}})
	require.True(t, ok)
	assert.Equal(t, "int", local.VariableType.String())
}

func TestUndeclaredNameSuggestion(t *testing.T) {
	prog := resolve(t, "func add(a int, b int) int { return a + b }\nfunc main() { ad(1, 2) }\n")

	require.Len(t, prog.Findings, 1)
	finding := prog.Findings[0]
	assert.Contains(t, finding.Message, "undeclared name: ad")
	assert.Contains(t, finding.Message, `did you mean "add"?`)
	assert.Equal(t, analysis.Span{Start: at(1, 14), End: at(1, 16)}, finding.Span)
}

func TestSyntaxErrorsAreFindings(t *testing.T) {
	prog := resolve(t, "func broken( {\n")
	require.NotEmpty(t, prog.Findings)
	syntax := 0
	for _, f := range prog.Findings {
		if strings.HasPrefix(f.Message, "syntax error") {
			syntax++
		}
	}
	assert.NotZero(t, syntax)
}

func TestGenericsAndTypes(t *testing.T) {
	prog := resolve(t, `type Point struct {
	X int
	Y int
}

type List[T any] struct {
	items []T
}

func Map[T any, U any](xs []T, f func(T) U) []U {
	var out []U
	for _, x := range xs {
		out = append(out, f(x))
	}
	return out
}

func norm(p Point) int {
	return p.X
}
`)
	assert.Empty(t, prog.Findings)

	m := prog.FindGenericFunction("Map")
	require.NotNil(t, m)
	assert.Equal(t, "Map[T any, U any]", m.DecoratedName())
	assert.Equal(t, "[]U", m.ReturnType().String())
	assert.Nil(t, prog.FindFunction("Map"))

	list := prog.FindGenericType("List")
	require.NotNil(t, list)
	assert.Equal(t, "List[T any]", list.DecoratedName())

	point := prog.FindType("Point")
	require.NotNil(t, point)
	assert.Equal(t, "Point struct { X int; Y int }", point.String())

	// "X" in "return p.X"
	field, ok := prog.TokenAt(at(18, 10))
	require.True(t, ok)
	assert.Equal(t, analysis.RoleTypeField, field.Role)
	decl, ok := prog.Declaration(field)
	require.True(t, ok)
	assert.Equal(t, at(1, 1), decl.Span.Start)

	ctx, ok := prog.FunctionContext(at(18, 10))
	require.True(t, ok)
	expr, ok := ctx.Expression(at(18, 10))
	require.True(t, ok)
	assert.Equal(t, "int", expr.Type.String())
	assert.Equal(t, "Point", expr.Instance.String())
	require.NotNil(t, expr.Target)
	assert.Equal(t, "X", expr.Target.Lexeme)

	_, ok = prog.GenericFunctionContext(at(18, 10))
	assert.False(t, ok)
	_, ok = prog.GenericFunctionContext(at(11, 2))
	assert.True(t, ok)
}

func TestImportsAndImportedFunctions(t *testing.T) {
	prog := resolve(t, `import "strings"

//go:wasmimport env log
func hostLog(msg string)

func shout(s string) string {
	hostLog(s)
	return strings.ToUpper(s)
}
`)
	assert.Empty(t, prog.Findings)

	require.Len(t, prog.ImportLibraries, 1)
	lib := prog.ImportLibraries[0]
	assert.Equal(t, "strings", lib.LibraryAlias.Lexeme)
	assert.Equal(t, "strings", lib.LibraryPath)

	host := prog.FindImportedFunction("hostLog")
	require.NotNil(t, host)
	assert.Equal(t, "env wasmimport hostLog:void (param msg string)", host.Signature())

	use, ok := prog.TokenAt(at(7, 8))
	require.True(t, ok)
	assert.Equal(t, "strings", use.Lexeme)
	assert.Equal(t, analysis.RoleImportLibrary, use.Role)

	call, ok := prog.TokenAt(at(6, 1))
	require.True(t, ok)
	assert.Equal(t, analysis.RoleImportedFunction, call.Role)
}

func TestColumnsCountUTF16Units(t *testing.T) {
	prog := resolve(t, `func f() int { s := "😀"; n := 1; _ = s; return n }`)

	// "n" of "n := 1" sits after a surrogate pair.
	tok, ok := prog.TokenAt(at(0, 26))
	require.True(t, ok)
	assert.Equal(t, "n", tok.Lexeme)
	assert.Equal(t, analysis.RoleVariable, tok.Role)
}

func TestMethodsAndShadowing(t *testing.T) {
	prog := resolve(t, `type Counter struct {
	n int
}

func (c *Counter) Inc() int {
	c.n = c.n + 1
	return c.n
}

func use() int {
	c := &Counter{n: 1}
	c = &Counter{}
	return c.Inc()
}
`)
	assert.Empty(t, prog.Findings)

	inc := prog.FindFunction("Inc")
	require.NotNil(t, inc)
	assert.Equal(t, "Inc:int (param c *Counter)", inc.Signature())

	// "Inc" in "return c.Inc()"
	call, ok := prog.TokenAt(at(12, 10))
	require.True(t, ok)
	assert.Equal(t, analysis.RoleFunction, call.Role)

	// "n" key in the composite literal
	key, ok := prog.TokenAt(at(10, 15))
	require.True(t, ok)
	assert.Equal(t, analysis.RoleTypeField, key.Role)

	ctx, ok := prog.FunctionContext(at(10, 1))
	require.True(t, ok)
	local, ok := ctx.LocalVariable(analysis.Token{Lexeme: "c", Span: analysis.Span{Start: at(12, 8)}})
	require.True(t, ok)
	assert.Equal(t, "*Counter", local.VariableType.String())
}
