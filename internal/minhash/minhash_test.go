package minhash

import (
	"context"
	"errors"
	"testing"

	"github.com/nearduplicate/lshdedup/internal/hashfamily"
	"github.com/nearduplicate/lshdedup/internal/lsherr"
	"github.com/nearduplicate/lshdedup/internal/shingle"
	"github.com/nearduplicate/lshdedup/internal/workerpool"
)

func TestCompute_EmptyDocument(t *testing.T) {
	_, err := Compute(shingle.Set{}, []hashfamily.Hash{hashfamily.NewXorhash()})
	if !errors.Is(err, lsherr.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestCompute_IdenticalShingleSetsIdenticalSignature(t *testing.T) {
	hashes := []hashfamily.Hash{hashfamily.NewXorhash(), hashfamily.NewLinconhash(), hashfamily.NewMD5hash()}

	a := shingle.NewSet([]uint64{1, 2, 3, 4})
	b := shingle.NewSet([]uint64{4, 3, 2, 1})

	sigA, err := Compute(a, hashes)
	if err != nil {
		t.Fatal(err)
	}
	sigB, err := Compute(b, hashes)
	if err != nil {
		t.Fatal(err)
	}

	if len(sigA) != len(sigB) {
		t.Fatalf("signature length mismatch: %d vs %d", len(sigA), len(sigB))
	}
	for i := range sigA {
		if sigA[i] != sigB[i] {
			t.Errorf("position %d: %d != %d", i, sigA[i], sigB[i])
		}
	}
}

func TestCompute_KnownMinimum(t *testing.T) {
	h := hashfamily.NewXorhash()
	shingles := shingle.NewSet([]uint64{10, 20, 30})

	sig, err := Compute(shingles, []hashfamily.Hash{h})
	if err != nil {
		t.Fatal(err)
	}

	var want uint64
	first := true
	for _, s := range []uint64{10, 20, 30} {
		v := h.Calculate(s)
		if first || v < want {
			want = v
			first = false
		}
	}

	if sig[0] != want {
		t.Errorf("Compute produced %d, want min %d", sig[0], want)
	}
}

func TestBuildMatrix_OrderMatchesInputRegardlessOfCompletionOrder(t *testing.T) {
	pool, err := workerpool.New(8)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Shutdown()

	docs := make([]shingle.Set, 50)
	for i := range docs {
		docs[i] = shingle.NewSet([]uint64{uint64(i), uint64(i + 1), uint64(i + 2)})
	}

	matrix, hashes, err := BuildMatrix(context.Background(), docs, 16, hashfamily.Xorhash, pool)
	if err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 16 {
		t.Fatalf("expected 16 hash functions, got %d", len(hashes))
	}
	if len(matrix) != len(docs) {
		t.Fatalf("expected %d signatures, got %d", len(docs), len(matrix))
	}

	for i, doc := range docs {
		want, err := Compute(doc, hashes)
		if err != nil {
			t.Fatal(err)
		}
		got := matrix[i]
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("doc %d position %d: got %d want %d", i, j, got[j], want[j])
			}
		}
	}
}

func TestBuildMatrix_PropagatesEmptyDocumentError(t *testing.T) {
	pool, err := workerpool.New(2)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Shutdown()

	docs := []shingle.Set{
		shingle.NewSet([]uint64{1, 2, 3}),
		{}, // empty document
	}

	_, _, err = BuildMatrix(context.Background(), docs, 4, hashfamily.Xorhash, pool)
	if !errors.Is(err, lsherr.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}
