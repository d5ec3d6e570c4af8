// Package app assembles the conversation engine from configuration.
package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"headdowell/internal/agent"
	"headdowell/internal/config"
	"headdowell/internal/conversation"
	"headdowell/internal/knowledge"
	"headdowell/internal/symptom"
	"headdowell/internal/taxonomy"
)

// LoadTaxonomy returns the embedded taxonomy unless path names an override.
func LoadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	if path == "" {
		return taxonomy.Default()
	}
	tax, err := taxonomy.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Loaded taxonomy override")
	return tax, nil
}

func Picker(name string, seed int64) conversation.Picker {
	switch name {
	case "rotating":
		return conversation.RotatingPicker()
	case "random":
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return conversation.RandomPicker(seed)
	default:
		return conversation.FirstPicker
	}
}

// NewEngine builds the engine described by cfg. With an analysis endpoint
// configured, detection goes to the remote analyzer first.
func NewEngine(cfg *config.Config) (*conversation.Engine, error) {
	tax, err := LoadTaxonomy(cfg.Dialogue.TaxonomyPath)
	if err != nil {
		return nil, err
	}
	graph, err := knowledge.Default()
	if err != nil {
		return nil, err
	}

	opts := []conversation.Option{
		conversation.WithConfirmThreshold(cfg.Dialogue.ConfirmThreshold),
		conversation.WithPicker(Picker(cfg.Dialogue.Picker, cfg.Dialogue.Seed)),
	}
	if cfg.Analysis.Endpoint != "" {
		client := agent.NewAnalysisClient(cfg.Analysis.Endpoint, symptom.NewKeywordMatcher(tax), cfg.Analysis.Timeout)
		opts = append(opts, conversation.WithMatcher(client))
		log.Info().Str("endpoint", cfg.Analysis.Endpoint).Msg("Using remote analyzer")
	}
	return conversation.NewEngine(tax, graph, opts...), nil
}
