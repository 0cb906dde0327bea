package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nearduplicate/lshdedup/internal/hashfamily"
	"github.com/nearduplicate/lshdedup/internal/lsh"
	"github.com/nearduplicate/lshdedup/internal/lsherr"
	"github.com/nearduplicate/lshdedup/internal/shingle"
	"github.com/nearduplicate/lshdedup/internal/workerpool"
)

func buildTestIndex(t *testing.T) *lsh.Index {
	t.Helper()
	pre, err := shingle.New(shingle.Flags{}, 3)
	if err != nil {
		t.Fatal(err)
	}
	docs := []shingle.Set{
		pre.Shingles("a b c d e f"),
		pre.Shingles("a b c d e f"),
		pre.Shingles("x y z w q p"),
	}

	pool, err := workerpool.New(2)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Shutdown)

	idx, err := lsh.Build(context.Background(), docs, 10, 2, hashfamily.Xorhash, shingle.Flags{}, 3, pool)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestSnapshotRoundTrip(t *testing.T) {
	idx := buildTestIndex(t)

	var buf bytes.Buffer
	snapshotter := &Snapshotter{Indent: true}
	if err := snapshotter.Save(idx, &buf); err != nil {
		t.Fatal(err)
	}

	restored, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if restored.M != idx.M || restored.R != idx.R {
		t.Errorf("M/R mismatch: got (%d,%d), want (%d,%d)", restored.M, restored.R, idx.M, idx.R)
	}
	if len(restored.Hashes) != len(idx.Hashes) {
		t.Fatalf("hash count mismatch: got %d, want %d", len(restored.Hashes), len(idx.Hashes))
	}
	for i := range idx.Hashes {
		if restored.Hashes[i].Store() != idx.Hashes[i].Store() {
			t.Errorf("hash %d round-trip mismatch: got %s, want %s", i, restored.Hashes[i].Store(), idx.Hashes[i].Store())
		}
	}

	results, err := restored.Query("a b c d e f", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 query results after round-trip, got %v", results)
	}
}

func TestLoad_InconsistentHashCount(t *testing.T) {
	bad := `{"m":10,"r":2,"hashfunctions":["Xorhash_1"],"docs":[],"index":[{},{},{},{},{}],"preprocess_flags":{},"k":3}`

	_, err := Load(strings.NewReader(bad))
	if !errors.Is(err, lsherr.ErrInconsistentIndex) {
		t.Fatalf("expected ErrInconsistentIndex, got %v", err)
	}
}

func TestLoad_InconsistentBandCount(t *testing.T) {
	hashes := make([]string, 10)
	for i := range hashes {
		hashes[i] = `"Xorhash_1"`
	}
	bad := `{"m":10,"r":2,"hashfunctions":[` + strings.Join(hashes, ",") + `],"docs":[],"index":[{}],"preprocess_flags":{},"k":3}`

	_, err := Load(strings.NewReader(bad))
	if !errors.Is(err, lsherr.ErrInconsistentIndex) {
		t.Fatalf("expected ErrInconsistentIndex, got %v", err)
	}
}

func TestWritePairsCSV(t *testing.T) {
	pairs := []lsh.Pair{
		{DocID1: 0, DocID2: 1, Similarity: 1.0},
		{DocID1: 0, DocID2: 2, Similarity: 0.6},
	}

	var buf bytes.Buffer
	if err := WritePairsCSV(pairs, &buf); err != nil {
		t.Fatal(err)
	}

	want := "doc_id1,doc_id2\n0,1\n0,2\n"
	if buf.String() != want {
		t.Errorf("WritePairsCSV output = %q, want %q", buf.String(), want)
	}
}
