// Package metadata holds the free-form TOML document stored alongside
// embeddings. The store never interprets it.
package metadata

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ErrInvalid is returned when text is not a valid TOML document.
var ErrInvalid = errors.New("metadata: invalid TOML")

// Metadata is a parsed TOML document.
type Metadata map[string]any

// Parse parses a TOML document.
func Parse(text string) (Metadata, error) {
	md := Metadata{}
	if _, err := toml.Decode(text, &md); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return md, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(text string) Metadata {
	md, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return md
}

// Encode serializes the document as TOML.
func (m Metadata) Encode() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(map[string]any(m)); err != nil {
		return "", fmt.Errorf("metadata: encode: %w", err)
	}
	return buf.String(), nil
}

// String returns the TOML text, or an empty string if it cannot be encoded.
func (m Metadata) String() string {
	s, err := m.Encode()
	if err != nil {
		return ""
	}
	return s
}

// Clone returns a deep copy of the document.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return cloneValue(map[string]any(m)).(map[string]any)
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Metadata:
		return Metadata(cloneValue(map[string]any(v)).(map[string]any))
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = cloneValue(val)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, val := range v {
			out[i] = cloneValue(val).(map[string]any)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Equal reports whether two documents encode to the same TOML text. Keys
// are encoded in sorted order.
func Equal(a, b Metadata) bool {
	if len(a) != len(b) {
		return false
	}
	return a.String() == b.String()
}
