package analysis

import "strings"

// TypeKind is the shape of a TypeInfo.
type TypeKind int

const (
	KindUnknown TypeKind = iota
	KindIntrinsic
	KindNamed
	KindPointer
	KindSlice
	KindArray
	KindMap
	KindVariadic
	KindFunc
	KindTuple
	KindOther
)

// TypeInfo describes the static type of a declaration or expression.
// A nil *TypeInfo is an unknown type.
type TypeInfo struct {
	Kind TypeKind

	// Name is the base name for intrinsic and named types.
	Name string
	// Args holds generic type arguments of a named type.
	Args []*TypeInfo

	// Elem is the element of pointers, slices, arrays, variadics and the
	// value of maps.
	Elem *TypeInfo
	// Key is the key of a map.
	Key *TypeInfo
	// Len is the literal length of an array.
	Len string

	// Params and Results describe functions; Params also holds tuple members.
	Params  []*TypeInfo
	Results []*TypeInfo

	// Text is the rendering of a KindOther type.
	Text string
}

func intrinsic(name string) *TypeInfo { return &TypeInfo{Kind: KindIntrinsic, Name: name} }
func named(name string) *TypeInfo     { return &TypeInfo{Kind: KindNamed, Name: name} }
func pointerTo(t *TypeInfo) *TypeInfo { return &TypeInfo{Kind: KindPointer, Elem: t} }
func other(text string) *TypeInfo     { return &TypeInfo{Kind: KindOther, Text: text} }

// resultOf folds a result list into a single type.
func resultOf(results []*TypeInfo) *TypeInfo {
	switch len(results) {
	case 0:
		return nil
	case 1:
		return results[0]
	}
	return &TypeInfo{Kind: KindTuple, Params: results}
}

func (t *TypeInfo) String() string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind {
	case KindIntrinsic, KindNamed:
		if len(t.Args) == 0 {
			return t.Name
		}
		return t.Name + "[" + joinTypes(t.Args) + "]"
	case KindPointer:
		return "*" + t.Elem.String()
	case KindSlice:
		return "[]" + t.Elem.String()
	case KindArray:
		return "[" + t.Len + "]" + t.Elem.String()
	case KindMap:
		return "map[" + t.Key.String() + "]" + t.Elem.String()
	case KindVariadic:
		return "..." + t.Elem.String()
	case KindFunc:
		s := "func(" + joinTypes(t.Params) + ")"
		switch len(t.Results) {
		case 0:
			return s
		case 1:
			return s + " " + t.Results[0].String()
		}
		return s + " (" + joinTypes(t.Results) + ")"
	case KindTuple:
		return "(" + joinTypes(t.Params) + ")"
	case KindOther:
		return t.Text
	}
	return "unknown"
}

func joinTypes(types []*TypeInfo) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Deref strips one level of pointer.
func (t *TypeInfo) Deref() *TypeInfo {
	if t != nil && t.Kind == KindPointer {
		return t.Elem
	}
	return t
}

// BaseName returns the named or intrinsic type under pointers, slices and
// arrays, or "" when there is none.
func (t *TypeInfo) BaseName() string {
	for t != nil {
		switch t.Kind {
		case KindIntrinsic, KindNamed:
			return t.Name
		case KindPointer, KindSlice, KindArray, KindVariadic:
			t = t.Elem
		default:
			return ""
		}
	}
	return ""
}

var intrinsicTypes = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true,
	"complex64": true, "complex128": true, "error": true,
	"float32": true, "float64": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
}

// IsIntrinsicType reports whether name is a predeclared type.
func IsIntrinsicType(name string) bool { return intrinsicTypes[name] }

var builtinFuncs = map[string]bool{
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
}

var builtinValues = map[string]*TypeInfo{
	"true":  intrinsic("bool"),
	"false": intrinsic("bool"),
	"nil":   other("nil"),
	"iota":  intrinsic("int"),
}

func comparisonOperator(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return true
	}
	return false
}
