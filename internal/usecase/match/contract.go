package match

import "github.com/kailas-cloud/faqdex/internal/domain/qa"

// Corpus is the ordered record set scanned by the matcher.
type Corpus interface {
	Len() int
	At(i int) qa.Record
}
