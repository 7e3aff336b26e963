package faqdex

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/faqdex/internal/domain"
	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// Outcome tells which path produced an answer.
type Outcome string

// Outcomes.
const (
	OutcomeDirect    Outcome = Outcome(domanswer.OutcomeDirect)
	OutcomeGenerated Outcome = Outcome(domanswer.OutcomeGenerated)
	OutcomeFallback  Outcome = Outcome(domanswer.OutcomeFallback)
	OutcomeError     Outcome = Outcome(domanswer.OutcomeError)
)

// Answer is the result of one question.
type Answer struct {
	Text            string
	Confidence      float64 // rounded to 3 decimals; 0 for fallback and error
	MatchedQuestion string
	Topic           string
	HasTopic        bool
	Outcome         Outcome
}

// Record is one corpus entry, used with WithRecords.
type Record struct {
	ID         int
	Topic      string
	Question   string
	Variations []string
	Answer     string
	Keywords   []string
	Embedding  []float32
}

func answerFromDomain(r domanswer.Result) Answer {
	topic, ok := r.Topic()
	return Answer{
		Text:            r.Text(),
		Confidence:      r.Confidence(),
		MatchedQuestion: r.MatchedQuestion(),
		Topic:           topic,
		HasTopic:        ok,
		Outcome:         Outcome(r.Outcome()),
	}
}

func recordsToDomain(in []Record) ([]qa.Record, error) {
	out := make([]qa.Record, len(in))
	for i, r := range in {
		rec, err := qa.New(r.ID, r.Topic, r.Question, r.Answer, r.Variations, r.Keywords, r.Embedding)
		if err != nil {
			var fe *qa.FieldError
			if errors.As(err, &fe) {
				return nil, &domain.CorpusEntryError{Index: i, ID: r.ID, Field: fe.Field, Reason: fe.Reason}
			}
			return nil, fmt.Errorf("record #%d: %w", i, err)
		}
		out[i] = rec
	}
	return out, nil
}
