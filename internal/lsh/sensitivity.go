package lsh

import "math"

// Sensitivity computes the closed-form (s1, p1, s2, p2)-characterization of
// a banding scheme with B = m/r bands of width r:
//
//	p1 = (1 - s1^r)^B   probability two documents of similarity s1 share no band
//	p2 = 1 - (1 - s2^r)^B   probability two documents of similarity s2 share at least one band
//
// This is a pure function of (s1, s2, m, r) — it does not require an
// Index, though Index.Sensitivity below exposes it against a built
// index's own M and r.
func Sensitivity(s1, s2 float64, m, r int) (p1, p2 float64) {
	b := float64(m / r)
	p1 = math.Pow(1-math.Pow(s1, float64(r)), b)
	p2 = 1 - math.Pow(1-math.Pow(s2, float64(r)), b)
	return p1, p2
}

// Sensitivity computes (p1, p2) for this index's own M and r. It requires
// the index to be built or loaded.
func (idx *Index) Sensitivity(s1, s2 float64) (p1, p2 float64, err error) {
	if err := idx.checkReady(); err != nil {
		return 0, 0, err
	}
	p1, p2 = Sensitivity(s1, s2, idx.M, idx.R)
	return p1, p2, nil
}
