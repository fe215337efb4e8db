package analysis

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
)

func point(row, column uint32) sitter.Point {
	return sitter.Point{Row: row, Column: column}
}

func TestTypeInfoString(t *testing.T) {
	tests := []struct {
		name string
		typ  *TypeInfo
		want string
	}{
		{"unknown", nil, "unknown"},
		{"intrinsic", intrinsic("int"), "int"},
		{"generic", &TypeInfo{Kind: KindNamed, Name: "List", Args: []*TypeInfo{intrinsic("string")}}, "List[string]"},
		{"pointer", pointerTo(named("Point")), "*Point"},
		{"map", &TypeInfo{Kind: KindMap, Key: intrinsic("string"), Elem: &TypeInfo{Kind: KindSlice, Elem: intrinsic("int")}}, "map[string][]int"},
		{"func", &TypeInfo{Kind: KindFunc, Params: []*TypeInfo{intrinsic("int"), intrinsic("int")}, Results: []*TypeInfo{intrinsic("int")}}, "func(int, int) int"},
		{"func tuple", &TypeInfo{Kind: KindFunc, Results: []*TypeInfo{intrinsic("int"), intrinsic("error")}}, "func() (int, error)"},
		{"variadic", &TypeInfo{Kind: KindVariadic, Elem: intrinsic("any")}, "...any"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "Point", pointerTo(named("Point")).BaseName())
	assert.Equal(t, "int", (&TypeInfo{Kind: KindSlice, Elem: intrinsic("int")}).BaseName())
	assert.Equal(t, "", (&TypeInfo{Kind: KindFunc}).BaseName())
	assert.Equal(t, "", (*TypeInfo)(nil).BaseName())
}

func TestSpan(t *testing.T) {
	s := Span{Start: Position{Line: 1, Column: 4}, End: Position{Line: 1, Column: 7}}
	assert.True(t, s.Contains(Position{Line: 1, Column: 4}))
	assert.True(t, s.Contains(Position{Line: 1, Column: 6}))
	assert.False(t, s.Contains(Position{Line: 1, Column: 7}))
	assert.False(t, s.Contains(Position{Line: 0, Column: 5}))

	outer := Span{Start: Position{Line: 0}, End: Position{Line: 2}}
	assert.True(t, s.Within(outer))
	assert.False(t, outer.Within(s))
}

func TestLineIndexCountsSurrogatePairs(t *testing.T) {
	li := newLineIndex("a\n😀b")
	// "b" starts at byte 4 of the second line.
	assert.Equal(t, Position{Line: 1, Column: 2}, li.position(point(1, 4)))
	assert.Equal(t, Position{Line: 0, Column: 1}, li.position(point(0, 1)))
}
