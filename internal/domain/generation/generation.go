// Package generation holds the prompt and parameter types shared by generation backends.
package generation

import (
	"fmt"
	"strings"
)

// Params are the sampling settings passed to a backend for one call.
type Params struct {
	Temperature float64
	MaxTokens   int
	MinTokens   int
}

// Prompt keeps the instruction block apart from the literal user question.
type Prompt struct {
	System string
	User   string
}

// Flat renders the prompt for backends without role-separated messages:
// instructions and context first, then the question.
func (p Prompt) Flat() string {
	return p.System + "\n\nQuestion: " + p.User + "\n\nAnswer:"
}

// Instructions is the fixed persona and domain scope of the assistant.
type Instructions struct {
	Persona string
	Domain  string
}

// Build assembles the prompt for a question, its detected topic, and the assembled context.
func (in Instructions) Build(question, contextText, topic string) Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, the support assistant for %s.\n", in.Persona, in.Domain)
	b.WriteString("Answer the user's question using ONLY the information in the context below.\n")
	b.WriteString("Keep the answer short and factual. Do not invent policies, prices or dates.\n")
	fmt.Fprintf(&b, "If the question is about something outside %s, say plainly that it is outside "+
		"what you can help with here and that you only answer questions about %s. "+
		"Do not guess an answer for it.\n", in.Domain, in.Domain)
	b.WriteString("If the context does not contain the answer, say that you don't have that information.\n")

	if topic != "" {
		fmt.Fprintf(&b, "\nDetected topic: %s\n", topic)
	}
	b.WriteString("\nContext:\n")
	b.WriteString(contextText)

	return Prompt{System: b.String(), User: question}
}
