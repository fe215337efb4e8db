package locator

import (
	"errors"
	"fmt"

	"leafls/internal/analysis"
)

// ErrNotFound matches every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a query that no resolver could answer.
type NotFoundError struct {
	Op       string
	Position analysis.Position
	// Token is the token observed at Position, if any.
	Token *analysis.Token
}

func (e *NotFoundError) Error() string {
	if e.Token == nil {
		return fmt.Sprintf("Unable to %s at %s. No token found.", e.Op, e.Position)
	}
	return fmt.Sprintf("Unable to %s at %s. Token: %s.", e.Op, e.Position, e.Token)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(op string, pos analysis.Position, tok analysis.Token, ok bool) error {
	err := &NotFoundError{Op: op, Position: pos}
	if ok {
		err.Token = &tok
	}
	return err
}
