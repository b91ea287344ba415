package subword

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
)

// Default parameters of bucket vocabularies.
const (
	DefaultMinN       = 3
	DefaultMaxN       = 6
	DefaultBucketsExp = 21
)

// ErrInvalidBuckets is returned for an unusable bucket configuration.
var ErrInvalidBuckets = errors.New("subword: invalid bucket configuration")

// HashIndexer hashes n-grams into 2^BucketsExp buckets with 64-bit FNV-1a.
//
// The hashed representation of an n-gram is its length in code points as a
// little-endian uint64 followed by each code point as a little-endian uint32.
type HashIndexer struct {
	minN       int
	maxN       int
	bucketsExp int
	mask       uint64
}

// NewHashIndexer creates a hash indexer with 2^bucketsExp buckets.
func NewHashIndexer(bucketsExp, minN, maxN int) (*HashIndexer, error) {
	if err := validateRange(minN, maxN); err != nil {
		return nil, err
	}
	// The upper bound must fit an int on 64-bit platforms.
	if bucketsExp < 0 || bucketsExp > 62 {
		return nil, fmt.Errorf("%w: buckets exponent %d", ErrInvalidBuckets, bucketsExp)
	}
	return &HashIndexer{
		minN:       minN,
		maxN:       maxN,
		bucketsExp: bucketsExp,
		mask:       (uint64(1) << bucketsExp) - 1,
	}, nil
}

// MinN implements Indexer.
func (h *HashIndexer) MinN() int { return h.minN }

// MaxN implements Indexer.
func (h *HashIndexer) MaxN() int { return h.maxN }

// BucketsExp returns the bucket exponent.
func (h *HashIndexer) BucketsExp() int { return h.bucketsExp }

// UpperBound implements Indexer.
func (h *HashIndexer) UpperBound() int { return 1 << h.bucketsExp }

// NGrams implements Indexer.
func (h *HashIndexer) NGrams(word string) []string {
	return NGrams(Bracket(word), h.minN, h.maxN)
}

// Index implements Indexer. Every n-gram is indexable.
func (h *HashIndexer) Index(ngram string) (int, bool) {
	hasher := fnv.New64a()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(charLen(ngram)))
	_, _ = hasher.Write(buf[:])
	for _, r := range ngram {
		binary.LittleEndian.PutUint32(buf[:4], uint32(r))
		_, _ = hasher.Write(buf[:4])
	}

	return int(hasher.Sum64() & h.mask), true
}

// FastTextIndexer reproduces fastText's n-gram bucketing: 32-bit FNV-1a over
// the UTF-8 bytes of the n-gram, with bytes sign-extended before mixing.
type FastTextIndexer struct {
	minN    int
	maxN    int
	buckets int
}

// NewFastTextIndexer creates a fastText indexer with the given bucket count.
func NewFastTextIndexer(buckets, minN, maxN int) (*FastTextIndexer, error) {
	if err := validateRange(minN, maxN); err != nil {
		return nil, err
	}
	if buckets < 0 || uint64(buckets) > 1<<32 {
		return nil, fmt.Errorf("%w: %d buckets", ErrInvalidBuckets, buckets)
	}
	return &FastTextIndexer{minN: minN, maxN: maxN, buckets: buckets}, nil
}

// MinN implements Indexer.
func (f *FastTextIndexer) MinN() int { return f.minN }

// MaxN implements Indexer.
func (f *FastTextIndexer) MaxN() int { return f.maxN }

// UpperBound implements Indexer.
func (f *FastTextIndexer) UpperBound() int { return f.buckets }

// NGrams implements Indexer. Like fastText, the lone boundary markers are
// never produced as unigrams.
func (f *FastTextIndexer) NGrams(word string) []string {
	ngrams := NGrams(Bracket(word), f.minN, f.maxN)
	if f.minN > 1 {
		return ngrams
	}
	out := ngrams[:0]
	for _, ngram := range ngrams {
		if ngram == BOW || ngram == EOW {
			continue
		}
		out = append(out, ngram)
	}
	return out
}

// Index implements Indexer. With zero buckets no n-gram is indexable.
func (f *FastTextIndexer) Index(ngram string) (int, bool) {
	if f.buckets == 0 {
		return 0, false
	}
	return int(uint64(fastTextHash(ngram)) % uint64(f.buckets)), true
}

func fastTextHash(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(int32(int8(s[i])))
		h *= 16777619
	}
	return h
}
