// Package qa holds the question/answer record of the static corpus.
package qa

import (
	"fmt"
	"strings"
)

// DefaultTopic is assigned by the corpus builder to entries without a topic.
const DefaultTopic = "General"

// Record is one precomputed question/answer pair (immutable value object).
type Record struct {
	id         int
	topic      string
	question   string
	variations []string
	answer     string
	keywords   []string
	embedding  []float32
}

// New validates and creates a Record.
// Topic, question and answer must be non-blank; the embedding must be non-empty.
// Dimension consistency across records is checked by the corpus, not here.
func New(
	id int, topic, question, answer string,
	variations, keywords []string, embedding []float32,
) (Record, error) {
	if strings.TrimSpace(topic) == "" {
		return Record{}, &FieldError{Field: "topic", Reason: "must not be empty"}
	}
	if strings.TrimSpace(question) == "" {
		return Record{}, &FieldError{Field: "question", Reason: "must not be empty"}
	}
	if strings.TrimSpace(answer) == "" {
		return Record{}, &FieldError{Field: "answer", Reason: "must not be empty"}
	}
	if len(embedding) == 0 {
		return Record{}, &FieldError{Field: "embedding", Reason: "must not be empty"}
	}

	return Record{
		id:         id,
		topic:      topic,
		question:   question,
		variations: cloneStrings(variations),
		answer:     answer,
		keywords:   cloneStrings(keywords),
		embedding:  embedding,
	}, nil
}

// FieldError reports which record field failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s %s", e.Field, e.Reason) }

// ID returns the record identifier.
func (r Record) ID() int { return r.id }

// Topic returns the grouping topic.
func (r Record) Topic() string { return r.topic }

// Question returns the canonical question text.
func (r Record) Question() string { return r.question }

// Variations returns a copy of the alternate phrasings.
func (r Record) Variations() []string { return cloneStrings(r.variations) }

// Answer returns the stored answer text.
func (r Record) Answer() string { return r.answer }

// Keywords returns a copy of the keyword set.
func (r Record) Keywords() []string { return cloneStrings(r.keywords) }

// Embedding returns the precomputed vector. Callers must not modify it.
func (r Record) Embedding() []float32 { return r.embedding }

// Dimension returns the embedding length.
func (r Record) Dimension() int { return len(r.embedding) }

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}

// Draft is a source entry before it is numbered and embedded.
type Draft struct {
	Topic      string
	Question   string
	Variations []string
	Answer     string
	Keywords   []string
}

// Normalize trims the texts and applies DefaultTopic to a blank topic.
func (d Draft) Normalize() Draft {
	d.Topic = strings.TrimSpace(d.Topic)
	if d.Topic == "" {
		d.Topic = DefaultTopic
	}
	d.Question = strings.TrimSpace(d.Question)
	d.Answer = strings.TrimSpace(d.Answer)
	return d
}

// Build numbers and embeds a draft into a Record.
func (d Draft) Build(id int, embedding []float32) (Record, error) {
	return New(id, d.Topic, d.Question, d.Answer, d.Variations, d.Keywords, embedding)
}
