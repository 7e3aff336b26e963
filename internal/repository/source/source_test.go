package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_YAML(t *testing.T) {
	data := []byte(`
- topic: billing
  question: Do you store payment info?
  variations: ["Is my card saved?"]
  answer: No, payments are processed via a secure partner.
  keywords: [payment, card]
- question: How do I reset my password?
  answer: Use the "Forgot password" link.
`)
	entries, err := Parse(".yaml", data)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "billing", entries[0].Topic)
	assert.Equal(t, []string{"Is my card saved?"}, entries[0].Variations)
	assert.Equal(t, []string{"payment", "card"}, entries[0].Keywords)
	assert.Empty(t, entries[1].Topic)
	assert.Equal(t, `Use the "Forgot password" link.`, entries[1].Answer)
}

func TestParse_JSON(t *testing.T) {
	data := []byte(`[{"topic":"shipping","question":"Where is my order?","answer":"See tracking.","keywords":["order"]}]`)
	entries, err := Parse(".json", data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "shipping", entries[0].Topic)
	assert.Equal(t, "See tracking.", entries[0].Answer)
}

func TestParse_TypeScriptModule(t *testing.T) {
	data := []byte(`/* Billing questions */
export const billingQuestions = [
  // most asked
  {
    topic: 'billing',
    question: 'Do you store payment info?',
    variations: ['Is my card saved?',],
    answer: 'No. See https://example.com/security for details.',
    keywords: ['payment'],
  },
];
`)
	entries, err := Parse(".ts", data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "billing", entries[0].Topic)
	assert.Equal(t, []string{"Is my card saved?"}, entries[0].Variations)
	assert.Equal(t, "No. See https://example.com/security for details.", entries[0].Answer)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(".txt", []byte("x"))
	assert.Error(t, err)

	_, err = Parse(".ts", []byte("export const x = 42;"))
	assert.Error(t, err)

	_, err = Parse(".yaml", []byte("topic: not-a-list"))
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		t.Helper()
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("[]"), 0o600))
	}
	write("b_shipping.yaml")
	write("a_billing.json")
	write("nested/c_account.yml")
	write("notes.md")

	files, err := Discover(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a_billing.json"),
		filepath.Join(root, "b_shipping.yaml"),
		filepath.Join(root, "nested", "c_account.yml"),
	}, files)

	files, err = Discover(root, []string{"*.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a_billing.json")}, files)

	_, err = Discover(root, []string{"[bad"})
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "topics.yaml")
	require.NoError(t, os.WriteFile(p, []byte("- question: q\n  answer: a\n"), 0o600))

	entries, err := ReadFile(p)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "q", entries[0].Question)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
