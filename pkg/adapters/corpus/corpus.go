// Package corpus provides an in-memory document collection loaded from YAML that
// implements ports.Retriever with term-overlap scoring.
package corpus

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Document is one entry in a collection.
type Document struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title,omitempty"`
	Text  string `yaml:"text"`
}

// Content is the text handed to the workflow.
func (d Document) Content() string {
	if d.Title == "" {
		return d.Text
	}
	return d.Title + ": " + d.Text
}

// Collection is a named set of documents.
type Collection struct {
	Name      string     `yaml:"name"`
	Documents []Document `yaml:"documents"`

	terms []map[string]struct{}
}

// Load reads a collection from a YAML file.
func Load(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a collection from r.
func Decode(r io.Reader) (*Collection, error) {
	var c Collection
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	c.index()
	return &c, nil
}

// New builds a collection from documents.
func New(name string, docs ...Document) *Collection {
	c := &Collection{Name: name, Documents: docs}
	c.index()
	return c
}

func (c *Collection) index() {
	c.terms = make([]map[string]struct{}, len(c.Documents))
	for i, d := range c.Documents {
		set := make(map[string]struct{})
		for _, t := range Terms(d.Content()) {
			set[t] = struct{}{}
		}
		c.terms[i] = set
	}
}

// Len returns the number of documents.
func (c *Collection) Len() int { return len(c.Documents) }

// Query returns up to k documents sharing the most distinct terms with query.
// Documents with no shared term are never returned. Ties keep collection order.
func (c *Collection) Query(ctx context.Context, query string, k int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	type hit struct {
		idx   int
		score int
	}
	q := Terms(query)
	var hits []hit
	for i, set := range c.terms {
		score := 0
		seen := make(map[string]bool, len(q))
		for _, t := range q {
			if seen[t] {
				continue
			}
			seen[t] = true
			if _, ok := set[t]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{idx: i, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = c.Documents[h.idx].Content()
	}
	return out, nil
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "what": {}, "how": {}, "with": {},
	"this": {}, "that": {}, "from": {}, "can": {}, "does": {}, "you": {}, "your": {},
	"which": {}, "when": {}, "why": {}, "who": {}, "into": {}, "about": {},
}

// Terms lowercases text and splits it into letter/digit words, dropping stopwords and
// words shorter than three characters.
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
