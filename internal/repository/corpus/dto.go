package corpus

import (
	"errors"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// entryRow is one persisted corpus object. Pointer fields tell a missing key from a zero value.
type entryRow struct {
	ID         *int      `json:"id"`
	Topic      *string   `json:"topic"`
	Question   *string   `json:"question"`
	Variations []string  `json:"variations"`
	Answer     *string   `json:"answer"`
	Keywords   []string  `json:"keywords"`
	Embedding  []float32 `json:"embedding"`
}

// recordFromRow validates a row and hydrates a domain record.
func recordFromRow(index int, row entryRow) (qa.Record, error) {
	if row.ID == nil {
		return qa.Record{}, &domain.CorpusEntryError{Index: index, Field: "id", Reason: "missing"}
	}
	id := *row.ID

	for _, f := range []struct {
		name string
		val  *string
	}{
		{"topic", row.Topic},
		{"question", row.Question},
		{"answer", row.Answer},
	} {
		if f.val == nil {
			return qa.Record{}, &domain.CorpusEntryError{Index: index, ID: id, Field: f.name, Reason: "missing"}
		}
	}

	rec, err := qa.New(id, *row.Topic, *row.Question, *row.Answer, row.Variations, row.Keywords, row.Embedding)
	if err != nil {
		var fe *qa.FieldError
		if errors.As(err, &fe) {
			return qa.Record{}, &domain.CorpusEntryError{Index: index, ID: id, Field: fe.Field, Reason: fe.Reason}
		}
		return qa.Record{}, &domain.CorpusEntryError{Index: index, ID: id, Field: "", Reason: err.Error()}
	}
	return rec, nil
}

// rowFromRecord converts a domain record to its persisted form.
// Nil slices are written as empty arrays to keep the schema stable.
func rowFromRecord(r qa.Record) entryRow {
	id, topic, question, answer := r.ID(), r.Topic(), r.Question(), r.Answer()
	variations := r.Variations()
	if variations == nil {
		variations = []string{}
	}
	keywords := r.Keywords()
	if keywords == nil {
		keywords = []string{}
	}
	return entryRow{
		ID:         &id,
		Topic:      &topic,
		Question:   &question,
		Variations: variations,
		Answer:     &answer,
		Keywords:   keywords,
		Embedding:  r.Embedding(),
	}
}
