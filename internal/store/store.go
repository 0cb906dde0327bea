// Package store persists a built index to a JSON snapshot and writes the
// CSV side-output used for downstream tooling that doesn't want to parse
// JSON.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nearduplicate/lshdedup/internal/hashfamily"
	"github.com/nearduplicate/lshdedup/internal/lsh"
	"github.com/nearduplicate/lshdedup/internal/lsherr"
	"github.com/nearduplicate/lshdedup/internal/shingle"
)

// snapshot is the on-disk JSON representation of an *lsh.Index. Buckets
// are stored per band as plain JSON objects (bucket key -> doc ids),
// matching the in-memory layout directly.
type snapshot struct {
	M               int                `json:"M"`
	R               int                `json:"r"`
	HashFunctions   []string           `json:"hashfunctions"`
	Docs            [][]uint64         `json:"docs"`
	Index           []map[string][]int `json:"index"`
	PreprocessFlags shingle.Flags      `json:"preprocess_flags"`
	K               int                `json:"k"`
}

// Snapshotter writes indexes as JSON, optionally pretty-printed.
type Snapshotter struct {
	Indent bool
}

// Save serializes idx to w as JSON.
func (s *Snapshotter) Save(idx *lsh.Index, w io.Writer) error {
	snap := toSnapshot(idx)

	encoder := json.NewEncoder(w)
	if s.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(snap)
}

// SaveFile serializes idx to a JSON file at path.
func (s *Snapshotter) SaveFile(idx *lsh.Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()
	return s.Save(idx, f)
}

func toSnapshot(idx *lsh.Index) snapshot {
	hashTags := make([]string, len(idx.Hashes))
	for i, h := range idx.Hashes {
		hashTags[i] = h.Store()
	}

	docs := make([][]uint64, len(idx.Docs))
	for i, d := range idx.Docs {
		docs[i] = d.Slice()
	}

	return snapshot{
		M:               idx.M,
		R:               idx.R,
		HashFunctions:   hashTags,
		Docs:            docs,
		Index:           idx.Buckets,
		PreprocessFlags: idx.Flags,
		K:               idx.K,
	}
}

// Load reconstructs an *lsh.Index from a JSON snapshot read from r,
// validating the structural invariants a hand-edited or corrupted
// snapshot could violate.
func Load(r io.Reader) (*lsh.Index, error) {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return fromSnapshot(&snap)
}

// LoadFile reconstructs an *lsh.Index from a JSON snapshot file at path.
func LoadFile(path string) (*lsh.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func fromSnapshot(snap *snapshot) (*lsh.Index, error) {
	if len(snap.HashFunctions) != snap.M {
		return nil, fmt.Errorf("%w: snapshot has %d hash functions, want M=%d", lsherr.ErrInconsistentIndex, len(snap.HashFunctions), snap.M)
	}
	if snap.R <= 0 || snap.M%snap.R != 0 {
		return nil, fmt.Errorf("%w: M=%d is not a multiple of r=%d", lsherr.ErrInconsistentIndex, snap.M, snap.R)
	}
	wantBands := snap.M / snap.R
	if len(snap.Index) != wantBands {
		return nil, fmt.Errorf("%w: snapshot has %d bands, want %d", lsherr.ErrInconsistentIndex, len(snap.Index), wantBands)
	}

	hashes := make([]hashfamily.Hash, len(snap.HashFunctions))
	for i, tag := range snap.HashFunctions {
		h, err := hashfamily.Load(tag)
		if err != nil {
			return nil, fmt.Errorf("loading hash function %d: %w", i, err)
		}
		hashes[i] = h
	}

	docs := make([]shingle.Set, len(snap.Docs))
	for i, fingerprints := range snap.Docs {
		docs[i] = shingle.NewSet(fingerprints)
	}

	idx := &lsh.Index{
		M:       snap.M,
		R:       snap.R,
		Hashes:  hashes,
		Docs:    docs,
		Buckets: snap.Index,
		Flags:   snap.PreprocessFlags,
		K:       snap.K,
	}
	idx.MarkReady()

	return idx, nil
}
