package answer

import (
	"strings"

	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// BuildContext renders the generation context: the best match first with its topic,
// then up to maxSnippets-1 same-topic records in corpus order, separated by blank lines.
func BuildContext(c Corpus, best qa.Record, maxSnippets int) string {
	if maxSnippets < 1 {
		maxSnippets = 1
	}

	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(best.Topic())
	b.WriteString("\nQ: ")
	b.WriteString(best.Question())
	b.WriteString("\nA: ")
	b.WriteString(best.Answer())

	for _, r := range c.Related(best, maxSnippets-1) {
		b.WriteString("\n\nQ: ")
		b.WriteString(r.Question())
		b.WriteString("\nA: ")
		b.WriteString(r.Answer())
	}
	return b.String()
}
