package compat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/embedstore/metadata"
	"github.com/hupe1980/embedstore/storage"
	"github.com/hupe1980/embedstore/vocab"
)

// ErrFormat is returned for malformed input.
var ErrFormat = errors.New("compat: malformed input")

// maxPrealloc bounds the number of values allocated up front from a header.
const maxPrealloc = 1 << 22

// Result holds the components read from a legacy file.
type Result struct {
	Vocab   vocab.Vocab
	Storage *storage.NdArray
	Norms   *storage.Norms
	// Metadata is nil for formats without a training configuration.
	Metadata metadata.Metadata
}

func newResult(words []string, data []float32, dims int) (*Result, error) {
	v, err := vocab.NewSimpleVocab(words)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	s, err := storage.NewNdArray(data, len(words), dims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return &Result{Vocab: v, Storage: s, Norms: storage.ComputeNorms(s, len(words))}, nil
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func fields(line string) []string {
	return strings.FieldsFunc(line, isASCIISpace)
}

// lineReader yields non-empty lines and tracks line numbers for errors.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64<<10)}
}

// next returns the fields of the next non-blank line or io.EOF.
func (lr *lineReader) next() ([]string, error) {
	for {
		s, err := lr.r.ReadString('\n')
		if err != nil && (err != io.EOF || s == "") {
			return nil, err
		}
		lr.line++
		if f := fields(s); len(f) > 0 {
			return f, nil
		}
		if err == io.EOF {
			return nil, io.EOF
		}
	}
}

func (lr *lineReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, lr.line, fmt.Sprintf(format, args...))
}

func parseComponents(dst []float32, parts []string) ([]float32, error) {
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return dst, err
		}
		dst = append(dst, float32(v))
	}
	return dst, nil
}

// ReadText reads the text format. The dimensionality is taken from the first
// line; every later line must have the same number of components.
func ReadText(r io.Reader) (*Result, error) {
	lr := newLineReader(r)

	var (
		words []string
		data  []float32
		dims  = -1
	)
	for {
		parts, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dims < 0 {
			dims = len(parts) - 1
		}
		if len(parts)-1 != dims {
			return nil, lr.errorf("%d components, want %d", len(parts)-1, dims)
		}
		words = append(words, parts[0])
		if data, err = parseComponents(data, parts[1:]); err != nil {
			return nil, lr.errorf("%v", err)
		}
	}

	if dims < 0 {
		return nil, fmt.Errorf("%w: empty input", ErrFormat)
	}
	return newResult(words, data, dims)
}

func parseShape(parts []string) (rows, dims int, err error) {
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: shape line has %d fields", ErrFormat, len(parts))
	}
	rows, err = strconv.Atoi(parts[0])
	if err == nil {
		dims, err = strconv.Atoi(parts[1])
	}
	if err != nil || rows < 0 || dims < 0 || dims > math.MaxInt/4 {
		return 0, 0, fmt.Errorf("%w: invalid shape %q", ErrFormat, strings.Join(parts, " "))
	}
	return rows, dims, nil
}

func prealloc(rows, dims int) []float32 {
	n := rows * dims
	if dims > 0 && rows > maxPrealloc/dims {
		n = maxPrealloc
	}
	return make([]float32, 0, n)
}

// ReadTextDims reads the text format preceded by a "rows cols" line. Lines
// after the declared rows are ignored.
func ReadTextDims(r io.Reader) (*Result, error) {
	lr := newLineReader(r)

	header, err := lr.next()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrFormat)
	}
	if err != nil {
		return nil, err
	}
	rows, dims, err := parseShape(header)
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, min(rows, maxPrealloc))
	data := prealloc(rows, dims)
	for len(words) < rows {
		parts, err := lr.next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %d of %d rows", ErrFormat, len(words), rows)
		}
		if err != nil {
			return nil, err
		}
		if len(parts)-1 != dims {
			return nil, lr.errorf("%d components, want %d", len(parts)-1, dims)
		}
		words = append(words, parts[0])
		if data, err = parseComponents(data, parts[1:]); err != nil {
			return nil, lr.errorf("%v", err)
		}
	}
	return newResult(words, data, dims)
}
