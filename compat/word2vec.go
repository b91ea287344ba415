package compat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

// ReadWord2Vec reads the word2vec binary format.
func ReadWord2Vec(r io.Reader) (*Result, error) {
	br := bufio.NewReaderSize(r, 64<<10)

	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: shape line: %w", ErrFormat, err)
	}
	rows, dims, err := parseShape(fields(header))
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, min(rows, maxPrealloc))
	data := prealloc(rows, dims)
	// dims is untrusted, so vectors are read in bounded pieces.
	buf := make([]byte, 4*min(dims, 1<<14))
	for i := 0; i < rows; i++ {
		word, err := br.ReadString(' ')
		if err != nil {
			return nil, fmt.Errorf("%w: row %d word: %w", ErrFormat, i, err)
		}
		// Rows written with a trailing newline leave it in front of the next word.
		word = strings.TrimFunc(word, isASCIISpace)
		if !utf8.ValidString(word) {
			return nil, fmt.Errorf("%w: row %d: invalid UTF-8 word", ErrFormat, i)
		}

		for left := dims; left > 0; {
			n := min(left, len(buf)/4)
			if _, err := io.ReadFull(br, buf[:4*n]); err != nil {
				return nil, fmt.Errorf("%w: row %d vector: %w", ErrFormat, i, err)
			}
			for j := 0; j < n; j++ {
				data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:])))
			}
			left -= n
		}
		words = append(words, word)
	}
	return newResult(words, data, dims)
}
