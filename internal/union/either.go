// Package union implements the two-variant values used by protocol fields
// typed "A or B" (hover contents, definition results, capabilities).
//
// An Either is built with Left or Right and is transparent on the wire: it
// encodes as the held variant alone and decodes by trying the declared
// shapes in order, binding the first one that matches structurally.
package union

import (
	"bytes"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrEmpty is returned when encoding a zero Either or decoding null.
	ErrEmpty = errors.New("union: value holds no variant")

	// ErrNoMatch is returned when decoded JSON fits neither variant.
	ErrNoMatch = errors.New("union: value matches no variant")
)

var (
	codec = jsoniter.ConfigCompatibleWithStandardLibrary

	// strict refuses unknown object keys so that a shape only matches when
	// every field of the payload belongs to it.
	strict = jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		DisallowUnknownFields:  true,
	}.Froze()
)

// Either holds exactly one of L or R.
type Either[L, R any] struct {
	left  *L
	right *R
}

// Left builds an Either holding the first variant.
func Left[L, R any](v L) Either[L, R] {
	return Either[L, R]{left: &v}
}

// Right builds an Either holding the second variant.
func Right[L, R any](v R) Either[L, R] {
	return Either[L, R]{right: &v}
}

func (e Either[L, R]) IsLeft() bool  { return e.left != nil }
func (e Either[L, R]) IsRight() bool { return e.right != nil }

// Left returns the first variant and whether it is the one held.
func (e Either[L, R]) Left() (L, bool) {
	if e.left == nil {
		var zero L
		return zero, false
	}
	return *e.left, true
}

// Right returns the second variant and whether it is the one held.
func (e Either[L, R]) Right() (R, bool) {
	if e.right == nil {
		var zero R
		return zero, false
	}
	return *e.right, true
}

// Value returns the held variant, or nil for a zero Either.
func (e Either[L, R]) Value() any {
	switch {
	case e.left != nil:
		return *e.left
	case e.right != nil:
		return *e.right
	}
	return nil
}

func (e Either[L, R]) String() string {
	if v := e.Value(); v != nil {
		return fmt.Sprintf("%v", v)
	}
	return "<empty>"
}

// MarshalJSON encodes the held variant only.
func (e Either[L, R]) MarshalJSON() ([]byte, error) {
	switch {
	case e.left != nil:
		return codec.Marshal(e.left)
	case e.right != nil:
		return codec.Marshal(e.right)
	}
	return nil, ErrEmpty
}

// UnmarshalJSON tries L, then R.
func (e *Either[L, R]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrEmpty
	}

	var left L
	leftErr := strict.Unmarshal(trimmed, &left)
	if leftErr == nil {
		*e = Either[L, R]{left: &left}
		return nil
	}

	var right R
	rightErr := strict.Unmarshal(trimmed, &right)
	if rightErr == nil {
		*e = Either[L, R]{right: &right}
		return nil
	}

	return fmt.Errorf("%w: %T: %v; %T: %v", ErrNoMatch, left, leftErr, right, rightErr)
}
