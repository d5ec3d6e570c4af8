// Package symptom finds taxonomy symptoms mentioned in free text.
package symptom

import (
	"context"
	"sort"
	"strings"

	"headdowell/internal/taxonomy"
)

// Detected is a symptom flagged by a matcher. Confirmed is set only by the
// dialogue once enough affirmative answers were given.
type Detected struct {
	Name      string `json:"name"`
	Disorder  string `json:"disorder"`
	Confirmed bool   `json:"confirmed"`
}

// Matcher turns an utterance into candidate symptoms.
type Matcher interface {
	Detect(ctx context.Context, text string) ([]Detected, error)
}

type entry struct {
	disorder string
	name     string
	triggers []string
}

// KeywordMatcher does case-insensitive substring matching of trigger
// phrases. It never returns an error.
type KeywordMatcher struct {
	entries []entry
}

func NewKeywordMatcher(tax *taxonomy.Taxonomy) *KeywordMatcher {
	m := &KeywordMatcher{}
	tax.Each(func(disorder string, s taxonomy.Symptom) {
		triggers := make([]string, 0, len(s.Triggers))
		for _, t := range s.Triggers {
			triggers = append(triggers, strings.ToLower(t))
		}
		m.entries = append(m.entries, entry{disorder: disorder, name: s.Name, triggers: triggers})
	})
	return m
}

func (m *KeywordMatcher) Detect(_ context.Context, text string) ([]Detected, error) {
	return m.Match(text), nil
}

// Match returns every symptom with at least one trigger phrase in text,
// once each, in taxonomy declaration order.
func (m *KeywordMatcher) Match(text string) []Detected {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return []Detected{}
	}
	out := []Detected{}
	for _, e := range m.entries {
		for _, t := range e.triggers {
			if strings.Contains(lower, t) {
				out = append(out, Detected{Name: e.name, Disorder: e.disorder})
				break
			}
		}
	}
	return out
}

// Resolve maps a free-form symptom label, as returned by a remote
// analyzer, onto taxonomy symptoms. A label matches a symptom by name or
// by one of its trigger phrases.
func (m *KeywordMatcher) Resolve(label string) []Detected {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return nil
	}
	var out []Detected
	for _, e := range m.entries {
		if strings.ToLower(e.name) == l {
			out = append(out, Detected{Name: e.name, Disorder: e.disorder})
			continue
		}
		for _, t := range e.triggers {
			if t == l {
				out = append(out, Detected{Name: e.name, Disorder: e.disorder})
				break
			}
		}
	}
	return out
}

// Normalize drops duplicates and sorts ds into declaration order. Entries
// unknown to the taxonomy are dropped.
func (m *KeywordMatcher) Normalize(ds []Detected) []Detected {
	rank := make(map[string]int, len(m.entries))
	for i, e := range m.entries {
		rank[key(e.disorder, e.name)] = i
	}
	seen := make(map[string]bool, len(ds))
	out := make([]Detected, 0, len(ds))
	for _, d := range ds {
		k := key(d.Disorder, d.Name)
		if _, ok := rank[k]; !ok || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[key(out[i].Disorder, out[i].Name)] < rank[key(out[j].Disorder, out[j].Name)]
	})
	return out
}

func key(disorder, name string) string {
	return strings.ToLower(disorder) + "\x00" + strings.ToLower(name)
}
