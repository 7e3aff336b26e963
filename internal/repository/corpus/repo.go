// Package corpus reads and writes the persisted JSON corpus with precomputed embeddings.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	domcorpus "github.com/kailas-cloud/faqdex/internal/domain/corpus"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// Load reads and validates the corpus file at path.
// Any malformed entry fails the whole load; an empty array yields an empty corpus.
func Load(path string) (*domcorpus.Corpus, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load corpus %s: %w", path, err)
	}
	return c, nil
}

// Decode reads a corpus from r.
func Decode(r io.Reader) (*domcorpus.Corpus, error) {
	var rows []entryRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	records := make([]qa.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := recordFromRow(i, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	c, err := domcorpus.New(records)
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}
	return c, nil
}

// Save writes records to path in corpus order, replacing any existing file.
func Save(path string, records []qa.Record) error {
	f, err := os.Create(path) //nolint:gosec // path comes from CLI flag
	if err != nil {
		return fmt.Errorf("create corpus: %w", err)
	}
	if err := Encode(f, records); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close corpus: %w", err)
	}
	return nil
}

// Encode writes records as an indented JSON array without HTML escaping.
func Encode(w io.Writer, records []qa.Record) error {
	rows := make([]entryRow, len(records))
	for i, r := range records {
		rows[i] = rowFromRecord(r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return nil
}
