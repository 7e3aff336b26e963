package local

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/generation"
)

// fakeModel records the last call and returns canned output.
type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	reply    string
	choices  int
	err      error
}

func (f *fakeModel) GenerateContent(
	_ context.Context, messages []llms.MessageContent, options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	resp := &llms.ContentResponse{}
	for i := 0; i < f.choices; i++ {
		resp.Choices = append(resp.Choices, &llms.ContentChoice{Content: f.reply, StopReason: "stop"})
	}
	return resp, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textOf(t *testing.T, m llms.MessageContent) string {
	t.Helper()
	if len(m.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(m.Parts))
	}
	tc, ok := m.Parts[0].(llms.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", m.Parts[0])
	}
	return tc.Text
}

var testPrompt = generation.Prompt{System: "rules\n\nContext:\nTopic: billing", User: "Can I pay by invoice?"}

func TestComplete_RoleSeparated(t *testing.T) {
	fm := &fakeModel{reply: "Yes, invoices are available for annual plans.", choices: 1}
	g := newWithModel(fm, &Config{Model: "llama3"})

	text, err := g.Complete(context.Background(), testPrompt,
		generation.Params{Temperature: 0.2, MaxTokens: 120, MinTokens: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Yes, invoices are available for annual plans." {
		t.Errorf("unexpected text %q", text)
	}

	if len(fm.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(fm.messages))
	}
	if fm.messages[0].Role != llms.ChatMessageTypeSystem || textOf(t, fm.messages[0]) != testPrompt.System {
		t.Errorf("unexpected system message: %+v", fm.messages[0])
	}
	if fm.messages[1].Role != llms.ChatMessageTypeHuman || textOf(t, fm.messages[1]) != testPrompt.User {
		t.Errorf("unexpected user message: %+v", fm.messages[1])
	}
	if fm.opts.Temperature != 0.2 || fm.opts.MaxTokens != 120 || fm.opts.MinLength != 0 {
		t.Errorf("unexpected call options: %+v", fm.opts)
	}
}

func TestComplete_SinglePrompt(t *testing.T) {
	fm := &fakeModel{reply: "flat answer", choices: 1}
	g := newWithModel(fm, &Config{Model: "phi", SinglePrompt: true})

	text, err := g.Complete(context.Background(), testPrompt, generation.Params{Temperature: 0.6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "flat answer" {
		t.Errorf("unexpected text %q", text)
	}
	if len(fm.messages) != 1 {
		t.Fatalf("expected a single message, got %d", len(fm.messages))
	}
	if got := textOf(t, fm.messages[0]); got != testPrompt.Flat() {
		t.Errorf("expected flat prompt, got %q", got)
	}
	if fm.opts.MaxTokens != 0 {
		t.Errorf("zero limits must not be sent: %+v", fm.opts)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
		flat  bool
	}{
		{"transport error", &fakeModel{err: errors.New("connection refused")}, false},
		{"no choices", &fakeModel{}, false},
		{"flat transport error", &fakeModel{err: errors.New("connection refused")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newWithModel(tt.model, &Config{SinglePrompt: tt.flat})
			_, err := g.Complete(context.Background(), testPrompt, generation.Params{})
			if !errors.Is(err, domain.ErrGenerationFailed) {
				t.Fatalf("expected ErrGenerationFailed, got %v", err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	g, err := New(&Config{ServerURL: "http://localhost:11434/v1", Model: "llama3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Name() != "local" {
		t.Errorf("Name() = %q", g.Name())
	}
}
