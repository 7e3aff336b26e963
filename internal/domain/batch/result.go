package batch

import "github.com/kailas-cloud/faqdex/internal/domain/answer"

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of answering one question in a batch.
// Failed items still carry an answer: the substituted error reply.
type Result struct {
	index  int
	answer answer.Result
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(index int, a answer.Result) Result {
	return Result{index: index, answer: a, status: StatusOK}
}

// NewError creates a failed batch result carrying the error reply.
func NewError(index int, err error) Result {
	return Result{index: index, answer: answer.Failed(), status: StatusError, err: err}
}

// Index returns the item position in the request.
func (r Result) Index() int { return r.index }

// Answer returns the answer, or the error reply for failed items.
func (r Result) Answer() answer.Result { return r.answer }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
