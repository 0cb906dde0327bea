// Package corpus reads document collections from external storage. The
// only concrete implementation is CSVReader; callers that want a different
// source implement Reader directly.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Document is a single corpus entry: its source id and raw text, before
// any shingle preprocessing.
type Document struct {
	ID   string
	Text string
}

// Reader loads a corpus of documents. Implementations read from whatever
// backing store is convenient (CSV file, database, object store); the
// rest of the pipeline only depends on this interface.
type Reader interface {
	Read() ([]Document, error)
}

// CSVReader reads a corpus from a CSV file with a header row. IDColumn and
// TextColumn name the columns holding the document id and body; every
// other column is ignored.
type CSVReader struct {
	Path       string
	IDColumn   string
	TextColumn string
}

// NewCSVReader creates a CSVReader with the conventional column names used
// throughout the news-corpus examples this package was built against.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{
		Path:       path,
		IDColumn:   "News_ID",
		TextColumn: "article",
	}
}

// Read loads every row of the CSV file into memory. Rows are returned in
// file order, which is also the order doc ids are assigned elsewhere in
// the pipeline.
func (r *CSVReader) Read() ([]Document, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading corpus header: %w", err)
	}

	idIdx, textIdx, err := columnIndices(header, r.IDColumn, r.TextColumn)
	if err != nil {
		return nil, err
	}

	var docs []Document
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading corpus row: %w", err)
		}
		docs = append(docs, Document{
			ID:   record[idIdx],
			Text: record[textIdx],
		})
	}

	return docs, nil
}

func columnIndices(header []string, idColumn, textColumn string) (idIdx, textIdx int, err error) {
	idIdx, textIdx = -1, -1
	for i, col := range header {
		switch col {
		case idColumn:
			idIdx = i
		case textColumn:
			textIdx = i
		}
	}
	if idIdx == -1 {
		return 0, 0, fmt.Errorf("corpus header missing id column %q", idColumn)
	}
	if textIdx == -1 {
		return 0, 0, fmt.Errorf("corpus header missing text column %q", textColumn)
	}
	return idIdx, textIdx, nil
}
