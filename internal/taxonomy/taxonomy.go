// Package taxonomy holds the static disorder/symptom data the conversation
// engine matches against and questions from.
package taxonomy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/taxonomy.yaml
var defaultData []byte

// Symptom is a named condition nested under a disorder.
type Symptom struct {
	Name         string   `yaml:"name"`
	Triggers     []string `yaml:"triggers"`
	Questions    []string `yaml:"questions"`
	Affirmations []string `yaml:"affirmations"`
}

// Disorder is a top-level category.
type Disorder struct {
	Name     string    `yaml:"name"`
	Symptoms []Symptom `yaml:"symptoms"`
}

// Taxonomy is immutable after loading. Disorders and symptoms keep
// their declaration order.
type Taxonomy struct {
	Disorders []Disorder `yaml:"disorders"`
}

// Default returns the taxonomy embedded in the binary.
func Default() (*Taxonomy, error) {
	return Load(bytes.NewReader(defaultData))
}

// LoadFile reads a taxonomy from a YAML file on disk.
func LoadFile(path string) (*Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open taxonomy: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a YAML taxonomy.
func Load(r io.Reader) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every symptom can be detected and questioned.
func (t *Taxonomy) Validate() error {
	if len(t.Disorders) == 0 {
		return fmt.Errorf("taxonomy has no disorders")
	}
	seenDisorders := make(map[string]bool, len(t.Disorders))
	for _, d := range t.Disorders {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("taxonomy contains a disorder without a name")
		}
		key := strings.ToLower(d.Name)
		if seenDisorders[key] {
			return fmt.Errorf("duplicate disorder %q", d.Name)
		}
		seenDisorders[key] = true

		seen := make(map[string]bool, len(d.Symptoms))
		for _, s := range d.Symptoms {
			if strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("disorder %q contains a symptom without a name", d.Name)
			}
			sk := strings.ToLower(s.Name)
			if seen[sk] {
				return fmt.Errorf("duplicate symptom %q in disorder %q", s.Name, d.Name)
			}
			seen[sk] = true
			if len(s.Triggers) == 0 {
				return fmt.Errorf("symptom %s/%s has no trigger phrases", d.Name, s.Name)
			}
			for _, tr := range s.Triggers {
				if strings.TrimSpace(tr) == "" {
					return fmt.Errorf("symptom %s/%s has an empty trigger phrase", d.Name, s.Name)
				}
			}
			if len(s.Questions) == 0 {
				return fmt.Errorf("symptom %s/%s has no questions", d.Name, s.Name)
			}
			if len(s.Affirmations) == 0 {
				return fmt.Errorf("symptom %s/%s has no affirmations", d.Name, s.Name)
			}
		}
	}
	return nil
}

// Lookup finds a symptom by disorder and symptom name, case-insensitively.
func (t *Taxonomy) Lookup(disorder, symptom string) (Symptom, bool) {
	for _, d := range t.Disorders {
		if !strings.EqualFold(d.Name, disorder) {
			continue
		}
		for _, s := range d.Symptoms {
			if strings.EqualFold(s.Name, symptom) {
				return s, true
			}
		}
	}
	return Symptom{}, false
}

// Questions returns the question list for a symptom, or an empty slice
// when the pair is unknown.
func (t *Taxonomy) Questions(disorder, symptom string) []string {
	s, ok := t.Lookup(disorder, symptom)
	if !ok {
		return []string{}
	}
	return s.Questions
}

// Affirmations returns the affirmation list for a symptom, or an empty
// slice when the pair is unknown.
func (t *Taxonomy) Affirmations(disorder, symptom string) []string {
	s, ok := t.Lookup(disorder, symptom)
	if !ok {
		return []string{}
	}
	return s.Affirmations
}

// Each calls fn for every symptom in declaration order.
func (t *Taxonomy) Each(fn func(disorder string, s Symptom)) {
	for _, d := range t.Disorders {
		for _, s := range d.Symptoms {
			fn(d.Name, s)
		}
	}
}
