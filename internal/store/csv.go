package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nearduplicate/lshdedup/internal/lsh"
)

// WritePairsCSV writes pairs to w as a CSV side-output: a header row
// followed by one "doc_id1,doc_id2" row per pair, in the order given
// (AllPairs already returns them sorted ascending by (DocID1, DocID2)).
func WritePairsCSV(pairs []lsh.Pair, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"doc_id1", "doc_id2"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, p := range pairs {
		row := []string{strconv.Itoa(p.DocID1), strconv.Itoa(p.DocID2)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	return writer.Error()
}

// WritePairsCSVFile writes pairs to a CSV file at path.
func WritePairsCSVFile(pairs []lsh.Pair, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating pairs csv file: %w", err)
	}
	defer f.Close()
	return WritePairsCSV(pairs, f)
}
