package subword

const (
	// BOW is prepended to a word before n-gram extraction.
	BOW = "<"
	// EOW is appended to a word before n-gram extraction.
	EOW = ">"
)

// Bracket surrounds word with the begin and end of word markers.
func Bracket(word string) string {
	return BOW + word + EOW
}

// NGrams returns the n-grams of s with lengths in [minN, maxN], counted in
// Unicode code points. n-grams are ordered by length, then by position.
func NGrams(s string, minN, maxN int) []string {
	if minN < 1 || maxN < minN {
		return nil
	}

	// Byte offsets of every code point plus the end of the string.
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))
	chars := len(offsets) - 1

	var ngrams []string
	for n := minN; n <= maxN && n <= chars; n++ {
		for start := 0; start+n <= chars; start++ {
			ngrams = append(ngrams, s[offsets[start]:offsets[start+n]])
		}
	}

	return ngrams
}

func charLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
