package embedstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/embedstore/internal/container"
	"github.com/hupe1980/embedstore/metadata"
	"github.com/hupe1980/embedstore/similarity"
	"github.com/hupe1980/embedstore/vocab"
)

var (
	// ErrUnknownWord is returned when a word cannot be resolved to a row.
	ErrUnknownWord = errors.New("embedstore: unknown word")

	// ErrUnsupportedOperation is returned for subword queries on a vocabulary
	// without subword information and for similarity queries on storage that
	// cannot expose rows without copying.
	ErrUnsupportedOperation = errors.New("embedstore: unsupported operation")

	// ErrIndexOutOfRange is returned for out-of-bounds positional access.
	ErrIndexOutOfRange = errors.New("embedstore: index out of range")

	// ErrIO is returned when opening, reading or writing embeddings fails,
	// including malformed files.
	ErrIO = errors.New("embedstore: i/o error")

	// ErrInvalidMetadata is returned for metadata that is not a valid TOML
	// document.
	ErrInvalidMetadata = errors.New("embedstore: invalid metadata")
)

// ErrInvalidShape indicates a vector or matrix of the wrong shape.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidShape struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrInvalidShape) Error() string {
	return fmt.Sprintf("embedstore: invalid shape: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrInvalidShape) Unwrap() error { return e.cause }

// ErrUnknownWords lists every word of a multi-word query that could not be
// resolved. It matches ErrUnknownWord with errors.Is.
type ErrUnknownWords struct {
	Words []string
	cause error
}

func (e *ErrUnknownWords) Error() string {
	return fmt.Sprintf("embedstore: unknown words: %s", strings.Join(e.Words, ", "))
}

// Is reports whether target is ErrUnknownWord.
func (e *ErrUnknownWords) Is(target error) bool { return target == ErrUnknownWord }

func (e *ErrUnknownWords) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var uw *similarity.ErrUnknownWords
	if errors.As(err, &uw) {
		return &ErrUnknownWords{Words: uw.Words, cause: err}
	}
	if errors.Is(err, vocab.ErrUnknownWord) {
		return fmt.Errorf("%w: %w", ErrUnknownWord, err)
	}

	var dm *similarity.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrInvalidShape{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	if errors.Is(err, similarity.ErrUnsupportedOperation) || errors.Is(err, vocab.ErrUnsupportedOperation) {
		return fmt.Errorf("%w: %w", ErrUnsupportedOperation, err)
	}
	if errors.Is(err, vocab.ErrIndexOutOfRange) {
		return fmt.Errorf("%w: %w", ErrIndexOutOfRange, err)
	}
	if errors.Is(err, metadata.ErrInvalid) || errors.Is(err, container.ErrInvalidMetadata) {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	return err
}

// ioError classifies a load or write failure. Metadata errors keep their
// own kind; everything else is an I/O error.
func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIO) || errors.Is(err, ErrInvalidMetadata) {
		return err
	}
	if errors.Is(err, metadata.ErrInvalid) || errors.Is(err, container.ErrInvalidMetadata) {
		return fmt.Errorf("%w: %s: %w", ErrInvalidMetadata, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
