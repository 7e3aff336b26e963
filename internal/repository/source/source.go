// Package source reads the hand-written topic files the corpus is built from.
//
// A topic file holds a list of entries with topic, question, variations, answer and keywords.
// YAML and JSON are parsed directly. TypeScript data modules ("export const x = [...]") are
// reduced to their array literal first.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// DefaultPattern matches every supported topic file below the source root.
const DefaultPattern = "**/*.{yaml,yml,json,ts}"

// entry is one source question as written in a topic file.
type entry struct {
	Topic      string   `yaml:"topic"`
	Question   string   `yaml:"question"`
	Variations []string `yaml:"variations"`
	Answer     string   `yaml:"answer"`
	Keywords   []string `yaml:"keywords"`
}

// Discover returns the files under root matching any pattern, sorted by path.
// Patterns are doublestar globs relative to root.
func Discover(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, rel); ok {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// ReadFile parses the topic file at path.
func ReadFile(path string) ([]qa.Draft, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from Discover
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	entries, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes topic file content. ext selects the format and includes the dot.
// Drafts are returned as written; normalization is left to the builder.
func Parse(ext string, data []byte) ([]qa.Draft, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", ".json":
	case ".ts", ".js":
		cleaned, err := extractArray(string(data))
		if err != nil {
			return nil, err
		}
		data = []byte(cleaned)
	default:
		return nil, fmt.Errorf("unsupported source format %q", ext)
	}

	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	drafts := make([]qa.Draft, len(entries))
	for i, e := range entries {
		drafts[i] = qa.Draft{
			Topic:      e.Topic,
			Question:   e.Question,
			Variations: e.Variations,
			Answer:     e.Answer,
			Keywords:   e.Keywords,
		}
	}
	return drafts, nil
}

var (
	exportDecl     = regexp.MustCompile(`export\s+(?:default\s+)?(?:const|let|var)\s+\w+(?:\s*:\s*[\w\[\]<>]+)?\s*=\s*`)
	lineComment    = regexp.MustCompile(`(?m)^\s*//.*$`)
	blockComment   = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	arrayLiteral   = regexp.MustCompile(`\[[\s\S]*\]`)
	trailingCommas = regexp.MustCompile(`,+(\s*[\]}])`)
)

// extractArray strips declarations, comments and trailing commas from a script data module,
// leaving a flow-style array that YAML can decode. Only full-line // comments are removed so
// URLs inside strings survive.
func extractArray(src string) (string, error) {
	src = exportDecl.ReplaceAllString(src, "")
	src = blockComment.ReplaceAllString(src, "")
	src = lineComment.ReplaceAllString(src, "")

	arr := arrayLiteral.FindString(src)
	if arr == "" {
		return "", fmt.Errorf("no array literal found")
	}
	return trailingCommas.ReplaceAllString(arr, "$1"), nil
}

// Reader exposes ReadFile as a method for consumers that take a source interface.
type Reader struct{}

// ReadFile parses the topic file at path.
func (Reader) ReadFile(path string) ([]qa.Draft, error) { return ReadFile(path) }
