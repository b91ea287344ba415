package similarity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/embedstore/vocab"
)

// ErrUnsupportedOperation is returned for queries on storage without row views.
var ErrUnsupportedOperation = errors.New("similarity: storage does not support row views")

// ErrDimensionMismatch indicates a query of the wrong dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("similarity: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrUnknownWords lists every analogy input that could not be resolved.
type ErrUnknownWords struct {
	Words []string
}

func (e *ErrUnknownWords) Error() string {
	return fmt.Sprintf("similarity: unknown words: %s", strings.Join(e.Words, ", "))
}

// Is matches vocab.ErrUnknownWord.
func (e *ErrUnknownWords) Is(target error) bool {
	return target == vocab.ErrUnknownWord
}
