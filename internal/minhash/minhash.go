// Package minhash computes MinHash signatures over shingle sets, fanning
// out across documents through internal/workerpool while keeping results
// deterministic and in input order.
package minhash

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nearduplicate/lshdedup/internal/hashfamily"
	"github.com/nearduplicate/lshdedup/internal/lsherr"
	"github.com/nearduplicate/lshdedup/internal/shingle"
	"github.com/nearduplicate/lshdedup/internal/workerpool"
)

// Signature is the ordered tuple of M 64-bit hash minimums that represents
// a document under a fixed list of hash functions.
type Signature []uint64

// Compute returns the MinHash signature of shingles under hashes: position
// i holds min_{s in shingles} hashes[i].Calculate(s). An empty shingle set
// is a fatal EmptyDocument error — the caller decides what to do with it.
func Compute(shingles shingle.Set, hashes []hashfamily.Hash) (Signature, error) {
	if len(shingles) == 0 {
		return nil, lsherr.ErrEmptyDocument
	}

	sig := make(Signature, len(hashes))
	for i, h := range hashes {
		var min uint64
		first := true
		for s := range shingles {
			v := h.Calculate(s)
			if first || v < min {
				min = v
				first = false
			}
		}
		sig[i] = min
	}
	return sig, nil
}

// BuildMatrix generates m fresh hash functions of the given family — drawn
// once, in order, before any work is dispatched — then computes every
// document's signature in parallel over pool. Results land in the same
// order as docs regardless of completion order or thread count.
func BuildMatrix(ctx context.Context, docs []shingle.Set, m int, family hashfamily.Name, pool *workerpool.Pool) ([]Signature, []hashfamily.Hash, error) {
	hashes := make([]hashfamily.Hash, m)
	for i := range hashes {
		h, err := hashfamily.New(family)
		if err != nil {
			return nil, nil, err
		}
		hashes[i] = h
	}

	matrix := make([]Signature, len(docs))

	var (
		mu       sync.Mutex
		firstErr error
	)
	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	var wg sync.WaitGroup
	for i, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		i, doc := i, doc
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			sig, err := Compute(doc, hashes)
			if err != nil {
				recordErr(fmt.Errorf("document %d: %w", i, err))
				return
			}
			matrix[i] = sig
		}); err != nil {
			wg.Done()
			recordErr(err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}

	slog.Default().Info("signature matrix built", "documents", len(docs), "M", m, "family", string(family))

	return matrix, hashes, nil
}
