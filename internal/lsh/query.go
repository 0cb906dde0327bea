package lsh

import (
	"context"
	"sort"
	"sync"

	"github.com/nearduplicate/lshdedup/internal/minhash"
	"github.com/nearduplicate/lshdedup/internal/shingle"
	"github.com/nearduplicate/lshdedup/internal/workerpool"
)

// Jaccard computes the exact Jaccard similarity between two shingle sets.
// Jaccard(a, a) = 1 for any non-empty a; Jaccard(a, b) = 0 iff a and b are
// disjoint; the result is symmetric in its arguments.
func Jaccard(a, b shingle.Set) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for s := range small {
		if _, ok := large[s]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Query finds every indexed document whose exact Jaccard similarity to the
// preprocessed queryText exceeds tau (strictly). Candidates are gathered by
// unioning the buckets the query's signature lands in across every band,
// then verified against the original shingle sets — signature-similarity
// is never used as the threshold itself (see spec.md §9). Results are
// returned in the order their doc ids were first encountered during
// candidate enumeration.
func (idx *Index) Query(queryText string, tau float64) ([]int, error) {
	if err := idx.checkReady(); err != nil {
		return nil, err
	}

	pre, err := idx.preprocessor()
	if err != nil {
		return nil, err
	}

	shingles := pre.Shingles(queryText)
	sig, err := minhash.Compute(shingles, idx.Hashes)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var order []int
	for band := 0; band < idx.Bands(); band++ {
		h := HashBand(sig, band*idx.R, idx.R)
		bucket, ok := idx.Buckets[band][h]
		if !ok {
			continue
		}
		for _, docID := range bucket {
			if !seen[docID] {
				seen[docID] = true
				order = append(order, docID)
			}
		}
	}

	results := make([]int, 0, len(order))
	for _, docID := range order {
		if Jaccard(shingles, idx.Docs[docID]) > tau {
			results = append(results, docID)
		}
	}
	return results, nil
}

// Pair is an unordered near-duplicate pair (DocID1 < DocID2) and its exact
// Jaccard similarity.
type Pair struct {
	DocID1     int
	DocID2     int
	Similarity float64
}

type pairKey struct{ a, b int }

// AllPairs enumerates every near-duplicate pair in the indexed corpus
// whose Jaccard similarity exceeds tau (strictly). Candidate pairs are
// gathered by forming every (i, j), i<j combination within each bucket of
// each band, deduplicated across bands with a (min,max)-keyed set rather
// than materializing per-band Cartesian products (spec.md §9's quadratic
// hazard note), then exact-Jaccard-verified in parallel over pool — the
// core's second fan-out point.
func (idx *Index) AllPairs(ctx context.Context, tau float64, pool *workerpool.Pool) ([]Pair, error) {
	if err := idx.checkReady(); err != nil {
		return nil, err
	}

	candidates := make(map[pairKey]struct{})
	for band := 0; band < idx.Bands(); band++ {
		for _, bucket := range idx.Buckets[band] {
			for a := 0; a < len(bucket); a++ {
				for b := a + 1; b < len(bucket); b++ {
					i, j := bucket[a], bucket[b]
					if i > j {
						i, j = j, i
					}
					candidates[pairKey{i, j}] = struct{}{}
				}
			}
		}
	}

	var (
		mu       sync.Mutex
		results  []Pair
		firstErr error
	)

	var wg sync.WaitGroup
	for key := range candidates {
		if ctx.Err() != nil {
			break
		}
		key := key
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			sim := Jaccard(idx.Docs[key.a], idx.Docs[key.b])
			if sim > tau {
				mu.Lock()
				results = append(results, Pair{DocID1: key.a, DocID2: key.b, Similarity: sim})
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sortPairs(results)
	return results, nil
}

// sortPairs orders pairs ascending by (DocID1, DocID2), the same ordering
// used for the CSV side artifact.
func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].DocID1 != pairs[j].DocID1 {
			return pairs[i].DocID1 < pairs[j].DocID1
		}
		return pairs[i].DocID2 < pairs[j].DocID2
	})
}
