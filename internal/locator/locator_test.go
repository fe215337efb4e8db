package locator

import (
	"errors"
	"testing"

	"leafls/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/commonlog"
)

func locate(t *testing.T, text string) *Locator {
	t.Helper()
	r := analysis.NewResolver(commonlog.GetLogger("test"))
	t.Cleanup(func() { r.Close() })
	return New(r.Resolve(text))
}

func at(line, column int) analysis.Position {
	return analysis.Position{Line: line, Column: column}
}

const fixture = `import "strings"

type Point struct {
	X int
	Y int
}

func add(a int, b int) int { return a + b }

func move(p *Point, dx int) int {
	next := p.X + dx
	return add(next, 1)
}

func shout(s string) string { return strings.ToUpper(s) }
`

func TestDispatchOrder(t *testing.T) {
	want := []analysis.Role{
		analysis.RoleType,
		analysis.RoleParameter,
		analysis.RoleVariable,
		analysis.RoleFunction,
		analysis.RoleImportedFunction,
		analysis.RoleTypeField,
		analysis.RoleImportLibrary,
	}
	var got []analysis.Role
	for _, entry := range definitionTable {
		got = append(got, entry.role)
	}
	assert.Equal(t, want, got)

	got = got[:0]
	for _, entry := range hoverTable {
		got = append(got, entry.role)
	}
	assert.Equal(t, append(want, analysis.RoleIntrinsicType, analysis.RoleReturn), got)

	assert.Nil(t, definitionHandlers[analysis.RoleOther])
	assert.Nil(t, hoverHandlers[analysis.RoleOther])
}

func TestHover(t *testing.T) {
	l := locate(t, fixture)

	tests := []struct {
		name string
		pos  analysis.Position
		want string
	}{
		{"function call", at(11, 8), "add:int (param a int) (param b int)"},
		{"field selector", at(10, 11), "int"},
		{"parameter", at(10, 9), "*Point"},
		{"local", at(10, 1), "int"},
		{"intrinsic", at(9, 23), "int"},
		{"return", at(11, 1), "move:int (param p *Point) (param dx int)"},
		{"library", at(14, 37), `"strings"`},
		{"type", at(9, 13), "type Point struct { X int; Y int }"},
		{"expression fallback", at(11, 18), "int"},
		{"nothing", at(13, 0), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Hover(tt.pos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHoverUnknownTypeIsNotFound(t *testing.T) {
	l := locate(t, "func f(x Missing) {}\n")
	_, err := l.Hover(at(0, 9))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.NotNil(t, nf.Token)
	assert.Equal(t, "Missing", nf.Token.Lexeme)
}

func TestDefinition(t *testing.T) {
	l := locate(t, fixture)

	tests := []struct {
		name string
		pos  analysis.Position
		want analysis.Position
	}{
		{"function", at(11, 8), at(7, 5)},
		{"field", at(10, 11), at(3, 1)},
		{"local", at(11, 12), at(10, 1)},
		{"parameter", at(10, 15), at(9, 20)},
		{"type", at(9, 13), at(2, 5)},
		{"library", at(14, 37), at(0, 7)},
		{"declaration itself", at(7, 5), at(7, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl, err := l.Definition(tt.pos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decl.Span.Start)
		})
	}

	t.Run("span of the declaring token", func(t *testing.T) {
		decl, err := l.Definition(at(11, 9))
		require.NoError(t, err)
		assert.Equal(t, analysis.Span{Start: at(7, 5), End: at(7, 8)}, decl.Span)
	})
}

func TestDefinitionErrors(t *testing.T) {
	l := locate(t, fixture)

	_, err := l.Definition(at(13, 0))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Unable to go to definition at (13, col. 0). No token found.", err.Error())

	_, err = l.Definition(at(14, 45))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "(14, col. 45)")
	assert.Contains(t, err.Error(), `Token: "ToUpper"`)
}

func TestDefinitionPriority(t *testing.T) {
	l := locate(t, `type point struct{}

func point() int { return 0 }

func use(p point, add int) int {
	return add + point()
}

func add(x int) int { return x }
`)

	// A type name shared with a function resolves to the type.
	decl, err := l.Definition(at(4, 11))
	require.NoError(t, err)
	assert.Equal(t, at(0, 5), decl.Span.Start)

	// A parameter shadowing a function resolves to the parameter.
	decl, err = l.Definition(at(5, 8))
	require.NoError(t, err)
	assert.Equal(t, at(4, 18), decl.Span.Start)

	// A call resolves to the function.
	decl, err = l.Definition(at(5, 14))
	require.NoError(t, err)
	assert.Equal(t, at(2, 5), decl.Span.Start)
}

func TestTypeDefinition(t *testing.T) {
	l := locate(t, fixture)

	decl, err := l.TypeDefinition(at(10, 9))
	require.NoError(t, err)
	assert.Equal(t, at(2, 5), decl.Span.Start)

	decl, err = l.TypeDefinition(at(9, 13))
	require.NoError(t, err)
	assert.Equal(t, at(2, 5), decl.Span.Start)

	_, err = l.TypeDefinition(at(10, 1))
	assert.ErrorIs(t, err, ErrNotFound, "int has no declaration")
}

func TestReferences(t *testing.T) {
	l := locate(t, fixture)

	refs := l.References(at(7, 36), true)
	require.Len(t, refs, 2)
	assert.Equal(t, at(7, 9), refs[0].Span.Start)
	assert.Equal(t, at(7, 36), refs[1].Span.Start)

	refs = l.References(at(7, 36), false)
	require.Len(t, refs, 1)
	assert.Equal(t, at(7, 36), refs[0].Span.Start)

	refs = l.References(at(14, 45), true)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)

	refs = l.References(at(13, 0), true)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

const completionFixture = `func foo() int { return 1 }
func Format(s string) string { return s }
func bar(focus int) int {
	fox := focus + foo()
	return fo
}
`

func labels(items []Completion) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Label
	}
	return out
}

func TestCompletionPrefixFilter(t *testing.T) {
	l := locate(t, completionFixture)

	items := l.Completions(at(4, 10))
	assert.Equal(t, []string{"focus", "fox", "foo", "Format"}, labels(items))
	for _, c := range items {
		assert.Regexp(t, "^(?i)fo", c.Label)
	}

	// Inside the word as well as right after it.
	assert.Equal(t, labels(items), labels(l.Completions(at(4, 9))))
}

func TestCompletionWithoutPrefix(t *testing.T) {
	l := locate(t, completionFixture)

	items := l.Completions(at(3, 0))
	assert.Equal(t, []string{"focus", "fox", "foo", "Format", "bar"}, labels(items))

	byLabel := map[string]Completion{}
	for _, c := range items {
		byLabel[c.Label] = c
	}
	assert.Equal(t, "local", byLabel["focus"].Category)
	assert.Equal(t, CompletionParameter, byLabel["focus"].Kind)
	assert.Equal(t, "local", byLabel["fox"].Category)
	assert.Equal(t, "int", byLabel["fox"].Detail)
	assert.Equal(t, "function", byLabel["foo"].Category)
	assert.Equal(t, "func() int", byLabel["foo"].Detail)

	// Outside any function only top-level names are offered.
	items = l.Completions(at(6, 0))
	assert.Equal(t, []string{"foo", "Format", "bar"}, labels(items))
}

func TestCompletionPointerFields(t *testing.T) {
	l := locate(t, `type Point struct {
	X int
	Y int
}

func move(p *Point) int {
	return p.X
}
`)
	items := l.Completions(at(6, 11))
	require.Len(t, items, 1)
	assert.Equal(t, Completion{Label: "X", Detail: "int", Category: "type Point", Kind: CompletionField}, items[0])
}

func TestCompletionCategories(t *testing.T) {
	l := locate(t, `//go:wasmimport env log
func hostLog(msg string)

type List[T any] struct {
	items []T
}
`)
	items := l.Completions(at(6, 0))
	require.Len(t, items, 2)
	assert.Equal(t, Completion{Label: "hostLog", Detail: "func(string)", Category: "importedfunction", Kind: CompletionImportedFunction}, items[0])
	assert.Equal(t, Completion{Label: "List", Detail: "List[T any]", Category: "type", Kind: CompletionType}, items[1])
}

const fieldsFixture = `type Point struct {
	Xval int
	Yval int
}

func norm(p Point) int {
	return p.X
}

func move(p *Point) int {
	return p.X
}
`

func TestCompletionFieldsNeedPointer(t *testing.T) {
	l := locate(t, fieldsFixture)

	items := l.Completions(at(10, 11))
	require.Len(t, items, 1)
	assert.Equal(t, Completion{Label: "Xval", Detail: "int", Category: "type Point", Kind: CompletionField}, items[0])

	// A struct value does not offer its fields.
	items = l.Completions(at(6, 11))
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCompletionAfterDot(t *testing.T) {
	l := locate(t, `type Point struct {
	Xval int
	Yval int
}

func move(p *Point) int {
	q := p.
}
`)
	items := l.Completions(at(6, 8))
	require.GreaterOrEqual(t, len(items), 2)
	assert.Equal(t, Completion{Label: "Xval", Detail: "int", Category: "type Point", Kind: CompletionField}, items[0])
	assert.Equal(t, Completion{Label: "Yval", Detail: "int", Category: "type Point", Kind: CompletionField}, items[1])
	assert.Contains(t, labels(items), "p")
}

const genericFixture = `func Map[T any, U any](xs []T, f func(T) U) []U {
	var out []U
	for _, x := range xs {
		out = append(out, f(x))
	}
	return out
}

func double(n int) int { return n * 2 }

func twice(xs []int) []int {
	return Map(xs, double)
}
`

func TestGenericFunction(t *testing.T) {
	l := locate(t, genericFixture)

	t.Run("hover", func(t *testing.T) {
		got, err := l.Hover(at(11, 9))
		require.NoError(t, err)
		assert.Contains(t, got, "Map[T any, U any]:[]U (param xs []T)")
	})

	t.Run("definition", func(t *testing.T) {
		decl, err := l.Definition(at(11, 9))
		require.NoError(t, err)
		assert.Equal(t, analysis.Span{Start: at(0, 5), End: at(0, 8)}, decl.Span)
	})

	t.Run("completion", func(t *testing.T) {
		items := l.Completions(at(9, 0))
		assert.Equal(t, []string{"double", "twice", "Map"}, labels(items))
		assert.Equal(t, Completion{Label: "Map", Detail: "Map[T any, U any]", Category: "function", Kind: CompletionFunction}, items[2])
	})
}
