// Package answer defines the routed result returned for a single question.
package answer

import (
	"math"

	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// Outcome is the terminal route taken for a question.
type Outcome string

// Outcome values.
const (
	// OutcomeDirect returns a stored answer verbatim.
	OutcomeDirect Outcome = "direct"
	// OutcomeGenerated returns text synthesized from related corpus context.
	OutcomeGenerated Outcome = "generated"
	// OutcomeFallback is the fixed no-confident-match reply.
	OutcomeFallback Outcome = "fallback"
	// OutcomeError marks a batch item that failed outside the routing rules.
	OutcomeError Outcome = "error"
)

// Fixed texts of the fallback and error replies.
const (
	FallbackText = "I apologize, but I don't have information about that specific question. " +
		"Please try rephrasing or select from our predefined questions."
	NoMatchQuestion = "No match found"
	ErrorText       = "Sorry, I'm having trouble processing your question right now."
	ErrorQuestion   = "error"
	GeneratedPrefix = "Generated from: "
)

// Result is the answer for one question (immutable value object).
type Result struct {
	text            string
	confidence      float64
	matchedQuestion string
	topic           string
	hasTopic        bool
	outcome         Outcome
	score           float64
}

// Direct returns the record's stored answer.
func Direct(rec qa.Record, score float64) Result {
	return Result{
		text:            rec.Answer(),
		confidence:      Round(score),
		matchedQuestion: rec.Question(),
		topic:           rec.Topic(),
		hasTopic:        true,
		outcome:         OutcomeDirect,
		score:           score,
	}
}

// Generated returns synthesized text seeded by rec.
func Generated(text string, rec qa.Record, score float64) Result {
	return Result{
		text:            text,
		confidence:      Round(score),
		matchedQuestion: GeneratedPrefix + rec.Question(),
		topic:           rec.Topic(),
		hasTopic:        true,
		outcome:         OutcomeGenerated,
		score:           score,
	}
}

// Fallback returns the fixed no-match reply. score is kept for observability only.
func Fallback(score float64) Result {
	return Result{
		text:            FallbackText,
		matchedQuestion: NoMatchQuestion,
		outcome:         OutcomeFallback,
		score:           score,
	}
}

// Failed returns the reply substituted for a batch item that could not be processed.
func Failed() Result {
	return Result{
		text:            ErrorText,
		matchedQuestion: ErrorQuestion,
		outcome:         OutcomeError,
	}
}

// Text returns the answer text.
func (r Result) Text() string { return r.text }

// Confidence returns the match score rounded to 3 decimals, 0 for fallback and error.
func (r Result) Confidence() float64 { return r.confidence }

// MatchedQuestion returns the matched question, the generated annotation, or a sentinel.
func (r Result) MatchedQuestion() string { return r.matchedQuestion }

// Topic returns the record topic; ok is false for fallback and error results.
func (r Result) Topic() (topic string, ok bool) { return r.topic, r.hasTopic }

// Outcome returns the route taken.
func (r Result) Outcome() Outcome { return r.outcome }

// Score returns the full-precision best-match score.
func (r Result) Score() float64 { return r.score }

// Round rounds a score to 3 decimal digits.
func Round(score float64) float64 {
	return math.Round(score*1000) / 1000
}
