// Package knowledge is a read-only table from disorder names to the
// therapies, coping strategies and supportive responses suggested for them.
package knowledge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/therapies.yaml
var defaultData []byte

type Therapy struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
}

type Disorder struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Therapies   []Therapy `yaml:"therapies"`
	Coping      []string  `yaml:"coping"`
	Responses   []string  `yaml:"responses"`
}

type document struct {
	// Responses are fallback templates for disorders without their own.
	Responses []string   `yaml:"responses"`
	Support   []string   `yaml:"support"`
	Disorders []Disorder `yaml:"disorders"`
}

type Graph struct {
	disorders []Disorder
	responses []string
	support   []string
}

// Default returns the graph embedded in the binary.
func Default() (*Graph, error) {
	return Parse(defaultData)
}

func Parse(data []byte) (*Graph, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge graph: %w", err)
	}
	return &Graph{disorders: doc.Disorders, responses: doc.Responses, support: doc.Support}, nil
}

// find prefers an exact case-insensitive match and otherwise takes the
// first disorder whose name contains the query, so "Anxiety" resolves to
// "Anxiety Disorder".
func (g *Graph) find(name string) (Disorder, bool) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return Disorder{}, false
	}
	for _, d := range g.disorders {
		if strings.ToLower(d.Name) == q {
			return d, true
		}
	}
	for _, d := range g.disorders {
		if strings.Contains(strings.ToLower(d.Name), q) {
			return d, true
		}
	}
	return Disorder{}, false
}

// Therapies returns the suggested therapies, or an empty slice for an
// unknown disorder.
func (g *Graph) Therapies(disorder string) []Therapy {
	d, ok := g.find(disorder)
	if !ok {
		return []Therapy{}
	}
	return d.Therapies
}

func (g *Graph) Describe(disorder string) string {
	d, _ := g.find(disorder)
	return d.Description
}

func (g *Graph) Disorders() []string {
	names := make([]string, 0, len(g.disorders))
	for _, d := range g.disorders {
		names = append(names, d.Name)
	}
	return names
}

// Coping returns self-help strategies for the disorder. Most disorders have
// none.
func (g *Graph) Coping(disorder string) []string {
	d, _ := g.find(disorder)
	return d.Coping
}

// Support returns the general professional-support recommendations.
func (g *Graph) Support() []string {
	return g.support
}

// Responses returns the therapeutic responses for the disorder, falling back
// to the generic templates filled in with its name. Unknown disorders get
// nothing.
func (g *Graph) Responses(disorder string) []string {
	d, ok := g.find(disorder)
	if !ok {
		return nil
	}
	if len(d.Responses) > 0 {
		return d.Responses
	}
	out := make([]string, 0, len(g.responses))
	for _, tmpl := range g.responses {
		out = append(out, fmt.Sprintf(tmpl, d.Name))
	}
	return out
}
