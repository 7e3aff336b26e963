// Package corpus holds the immutable, ordered set of Q&A records served by the process.
package corpus

import (
	"fmt"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// Corpus is an ordered, read-only record set. Insertion order is significant: it decides
// match tie-breaks and the order of related records. Safe for concurrent readers.
type Corpus struct {
	records   []qa.Record
	dimension int
}

// New builds a corpus, enforcing unique ids and one embedding dimension for all records.
// An empty record set is valid.
func New(records []qa.Record) (*Corpus, error) {
	c := &Corpus{records: make([]qa.Record, len(records))}
	copy(c.records, records)

	seen := make(map[int]int, len(records))
	for i, r := range c.records {
		if prev, ok := seen[r.ID()]; ok {
			return nil, &domain.CorpusEntryError{
				Index: i, ID: r.ID(), Field: "id",
				Reason: fmt.Sprintf("duplicate of entry #%d", prev),
			}
		}
		seen[r.ID()] = i

		if i == 0 {
			c.dimension = r.Dimension()
			continue
		}
		if r.Dimension() != c.dimension {
			return nil, fmt.Errorf("%w: %w", &domain.CorpusEntryError{
				Index: i, ID: r.ID(), Field: "embedding",
				Reason: fmt.Sprintf("length %d, corpus dimension %d", r.Dimension(), c.dimension),
			}, domain.ErrVectorDimMismatch)
		}
	}
	return c, nil
}

// Len returns the number of records.
func (c *Corpus) Len() int { return len(c.records) }

// Empty reports whether the corpus has no records.
func (c *Corpus) Empty() bool { return len(c.records) == 0 }

// Dimension returns the shared embedding length, 0 for an empty corpus.
func (c *Corpus) Dimension() int { return c.dimension }

// At returns the record at position i in corpus order.
func (c *Corpus) At(i int) qa.Record { return c.records[i] }

// Records returns a copy of the record slice in corpus order.
func (c *Corpus) Records() []qa.Record {
	out := make([]qa.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Topics returns the distinct topics in order of first appearance.
func (c *Corpus) Topics() []string {
	seen := make(map[string]struct{})
	var topics []string
	for _, r := range c.records {
		if _, ok := seen[r.Topic()]; ok {
			continue
		}
		seen[r.Topic()] = struct{}{}
		topics = append(topics, r.Topic())
	}
	return topics
}

// Related returns up to limit records sharing seed's topic, excluding seed by id, in corpus order.
func (c *Corpus) Related(seed qa.Record, limit int) []qa.Record {
	if limit <= 0 {
		return nil
	}
	var out []qa.Record
	for _, r := range c.records {
		if r.Topic() != seed.Topic() || r.ID() == seed.ID() {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
