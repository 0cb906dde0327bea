// Package lsh implements the banded LSH index over MinHash signatures:
// construction, banding into buckets, threshold queries, all-pairs
// enumeration and the closed-form sensitivity model.
package lsh

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/nearduplicate/lshdedup/internal/hashfamily"
	"github.com/nearduplicate/lshdedup/internal/lsherr"
	"github.com/nearduplicate/lshdedup/internal/minhash"
	"github.com/nearduplicate/lshdedup/internal/shingle"
	"github.com/nearduplicate/lshdedup/internal/workerpool"
)

// Index is the tuple (M, r, hash functions, docs, buckets). Hash functions
// and documents are fixed at construction; buckets are populated once and
// read-only thereafter — queries and AllPairs never mutate an Index.
type Index struct {
	M int
	R int

	Hashes []hashfamily.Hash
	Docs   []shingle.Set

	// Buckets has length B = M/r. Buckets[b][bandHash] is the list of doc
	// ids sharing that band hash in band b, in insertion (corpus) order.
	Buckets []map[string][]int

	// Flags are the preprocessing flags used to build Docs, carried so
	// that Query can reproduce the exact shingle set after a fresh
	// Load (spec.md §9's preprocess_flags extension).
	Flags shingle.Flags
	K     int

	pre   *shingle.Preprocessor
	ready bool
}

// Bands returns B = M/r, the number of bands.
func (idx *Index) Bands() int {
	if idx.R == 0 {
		return 0
	}
	return idx.M / idx.R
}

// validateParams checks the construction invariants from spec.md §7's
// ConfigError policy: r must be positive, M must be at least r, and M must
// be an exact multiple of r (the tolerant range(0, len(sig), r) behavior
// from the historical reference is deliberately not supported — see
// DESIGN.md).
func validateParams(m, r int) error {
	if r <= 0 {
		return fmt.Errorf("%w: r must be positive, got %d", lsherr.ErrConfigError, r)
	}
	if m < r {
		return fmt.Errorf("%w: M (%d) must be >= r (%d)", lsherr.ErrConfigError, m, r)
	}
	if m%r != 0 {
		return fmt.Errorf("%w: M (%d) must be a multiple of r (%d)", lsherr.ErrConfigError, m, r)
	}
	return nil
}

// Build constructs a fresh Index: it computes the signature matrix over
// docs using m hash functions of the given family (via internal/minhash,
// fanned out over pool), then splits each signature into B = m/r bands and
// files it into one bucket per band.
func Build(ctx context.Context, docs []shingle.Set, m, r int, family hashfamily.Name, flags shingle.Flags, k int, pool *workerpool.Pool) (*Index, error) {
	if err := flags.Validate(); err != nil {
		return nil, err
	}
	if err := validateParams(m, r); err != nil {
		return nil, err
	}

	pre, err := shingle.New(flags, k)
	if err != nil {
		return nil, err
	}

	matrix, hashes, err := minhash.BuildMatrix(ctx, docs, m, family, pool)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		M:      m,
		R:      r,
		Hashes: hashes,
		Docs:   docs,
		Flags:  flags,
		K:      pre.K(),
		pre:    pre,
	}
	idx.populateBuckets(matrix)
	idx.ready = true

	slog.Default().Info("lsh index built", "docs", len(docs), "M", m, "r", r, "bands", idx.Bands())

	return idx, nil
}

// populateBuckets fills idx.Buckets from a full signature matrix. Called
// only during Build, never concurrently with a query — buckets are
// read-only for the rest of the Index's lifetime. An Index loaded from a
// snapshot takes its buckets from the snapshot instead.
func (idx *Index) populateBuckets(matrix []minhash.Signature) {
	b := idx.Bands()
	idx.Buckets = make([]map[string][]int, b)
	for i := range idx.Buckets {
		idx.Buckets[i] = make(map[string][]int)
	}

	for docID, sig := range matrix {
		for band := 0; band < b; band++ {
			h := HashBand(sig, band*idx.R, idx.R)
			idx.Buckets[band][h] = append(idx.Buckets[band][h], docID)
		}
	}
}

// HashBand returns the 32-character lowercase hex MD5 digest of the r
// signature values starting at start, each encoded as a fixed 8-byte
// big-endian unsigned integer and concatenated in positional order.
func HashBand(sig minhash.Signature, start, r int) string {
	buf := make([]byte, 8*r)
	for i := 0; i < r; i++ {
		binary.BigEndian.PutUint64(buf[i*8:i*8+8], sig[start+i])
	}
	sum := md5.Sum(buf)
	return hex.EncodeToString(sum[:])
}

// preprocessor returns the Preprocessor built by Build, or, after Load
// (the Preprocessor itself is not serialized), a fresh one rebuilt from
// Flags/K on each call without storing it, so the Index is not mutated.
func (idx *Index) preprocessor() (*shingle.Preprocessor, error) {
	if idx.pre != nil {
		return idx.pre, nil
	}
	return shingle.New(idx.Flags, idx.K)
}

// MarkReady finalizes an Index reconstructed from a snapshot (used by
// internal/store.Load) once its invariants have been checked.
func (idx *Index) MarkReady() {
	idx.ready = true
}

func (idx *Index) checkReady() error {
	if idx == nil || !idx.ready {
		return lsherr.ErrNotInitialized
	}
	return nil
}
