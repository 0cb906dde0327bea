// Package shingle normalizes documents and turns them into sets of 64-bit
// shingle fingerprints, the unit the rest of the similarity engine operates
// on.
package shingle

import (
	"fmt"
	"hash/crc32"
	"strings"
	"unicode"

	"github.com/nearduplicate/lshdedup/internal/lsherr"
)

// Fingerprint is a 64-bit shingle fingerprint. Two shingles collide iff
// their k-grams hash to the same value; fingerprints are only ever used as
// set members, never decoded back to tokens.
type Fingerprint = uint64

// Set is an unordered collection of shingle fingerprints. Duplicates within
// a document collapse naturally since Set is keyed by fingerprint.
type Set map[Fingerprint]struct{}

// NewSet builds a Set from a slice of fingerprints, for persistence
// round-trips.
func NewSet(fingerprints []Fingerprint) Set {
	s := make(Set, len(fingerprints))
	for _, f := range fingerprints {
		s[f] = struct{}{}
	}
	return s
}

// Slice returns the set's members in unspecified order.
func (s Set) Slice() []Fingerprint {
	out := make([]Fingerprint, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	return out
}

// Flags control document normalization before shingling.
type Flags struct {
	// RemoveCapitalization ASCII-case-folds the text to lower case.
	RemoveCapitalization bool `yaml:"remove_capitalization"`
	// FilterPunctuation drops characters that are neither alphanumeric nor
	// whitespace.
	FilterPunctuation bool `yaml:"filter_punctuation"`
	// FilterStopwords removes stopword tokens before shingling. Mutually
	// exclusive with StopwordStart.
	FilterStopwords bool `yaml:"filter_stopwords"`
	// StopwordStart keeps only shingles whose first token is a stopword,
	// applied after shingle generation. Mutually exclusive with
	// FilterStopwords.
	StopwordStart bool `yaml:"stopword_start"`
}

// Validate rejects a flag combination that is a programmer error per
// spec.md §4.1.
func (f Flags) Validate() error {
	if f.FilterStopwords && f.StopwordStart {
		return fmt.Errorf("%w: filter_stopwords and stopword_start are mutually exclusive", lsherr.ErrConfigError)
	}
	return nil
}

// Preprocessor turns document strings into shingle sets under a fixed set
// of Flags and a fixed shingle length k.
type Preprocessor struct {
	flags Flags
	k     int
}

// DefaultK is the shingle length (tokens per window) used when none is
// specified.
const DefaultK = 3

// New creates a Preprocessor. k defaults to DefaultK when <= 0.
func New(flags Flags, k int) (*Preprocessor, error) {
	if err := flags.Validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = DefaultK
	}
	return &Preprocessor{flags: flags, k: k}, nil
}

// Flags returns the flags this Preprocessor was built with, so callers that
// persist an index can carry them forward (spec.md §9's preprocess_flags
// extension).
func (p *Preprocessor) Flags() Flags { return p.flags }

// K returns the shingle length this Preprocessor windows documents into.
func (p *Preprocessor) K() int { return p.k }

// Shingles normalizes doc and returns its set of shingle fingerprints. A
// document with fewer than k tokens after normalization yields the empty
// set — that is not itself an error; EmptyDocument is raised only when a
// signature is requested for an empty set (internal/minhash).
func (p *Preprocessor) Shingles(doc string) Set {
	text := doc
	if p.flags.RemoveCapitalization {
		text = strings.ToLower(text)
	}
	if p.flags.FilterPunctuation {
		text = filterPunctuation(text)
	}

	tokens := strings.Fields(text)

	if p.flags.FilterStopwords {
		tokens = removeStopwords(tokens)
	}

	windows := windowize(tokens, p.k)

	if p.flags.StopwordStart {
		windows = keepStopwordStart(windows)
	}

	set := make(Set, len(windows))
	for _, w := range windows {
		set[longcrc(w)] = struct{}{}
	}
	return set
}

func filterPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func removeStopwords(tokens []string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// windowize returns the contiguous k-token windows of tokens, in order.
func windowize(tokens []string, k int) [][]string {
	if len(tokens) < k {
		return nil
	}
	windows := make([][]string, 0, len(tokens)-k+1)
	for i := 0; i <= len(tokens)-k; i++ {
		window := make([]string, k)
		copy(window, tokens[i:i+k])
		windows = append(windows, window)
	}
	return windows
}

func keepStopwordStart(windows [][]string) [][]string {
	out := windows[:0:0]
	for _, w := range windows {
		if len(w) > 0 && IsStopword(w[0]) {
			out = append(out, w)
		}
	}
	return out
}

// longcrc combines two CRC-32 checksums into a 64-bit shingle fingerprint:
// the low 32 bits are the CRC-32 of the forward-joined k-gram, the high 32
// bits are the CRC-32 of the reverse-joined k-gram.
func longcrc(tokens []string) uint64 {
	forward := strings.Join(tokens, " ")

	reversed := make([]string, len(tokens))
	for i, t := range tokens {
		reversed[len(tokens)-1-i] = t
	}
	backward := strings.Join(reversed, " ")

	low := crc32.ChecksumIEEE([]byte(forward))
	high := crc32.ChecksumIEEE([]byte(backward))

	return uint64(low) | (uint64(high) << 32)
}
