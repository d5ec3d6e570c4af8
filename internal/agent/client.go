package agent

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"headdowell/internal/symptom"
)

// Analysis is the payload returned by the remote /analyze endpoint.
type Analysis struct {
	DetectedSymptoms []struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"detectedSymptoms"`
	Sentiment string   `json:"sentiment"`
	Topics    []string `json:"topics"`
	Entities  []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"entities"`
	SuggestedResponses []string `json:"suggestedResponses"`
	Language           string   `json:"language"`
	Source             string   `json:"source,omitempty"`
}

type analyzeRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// AnalysisClient is a symptom.Matcher backed by an external analysis
// service. Labels it returns are mapped onto the local taxonomy.
type AnalysisClient struct {
	baseURL  string
	resolver *symptom.KeywordMatcher
	api      endpoint
}

func NewAnalysisClient(baseURL string, resolver *symptom.KeywordMatcher, timeout time.Duration) *AnalysisClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AnalysisClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		resolver: resolver,
		api:      newEndpoint("analysis", timeout),
	}
}

// Analyze posts the text to the analysis service.
func (c *AnalysisClient) Analyze(ctx context.Context, text, source string) (*Analysis, error) {
	if source == "" {
		source = "text"
	}
	var result Analysis
	if err := c.api.postJSON(ctx, c.baseURL+"/analyze", nil, analyzeRequest{Text: text, Source: source}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Detect implements symptom.Matcher.
func (c *AnalysisClient) Detect(ctx context.Context, text string) ([]symptom.Detected, error) {
	if strings.TrimSpace(text) == "" {
		return []symptom.Detected{}, nil
	}
	analysis, err := c.Analyze(ctx, text, "text")
	if err != nil {
		return nil, err
	}

	var found []symptom.Detected
	for _, s := range analysis.DetectedSymptoms {
		resolved := c.resolver.Resolve(s.Name)
		if len(resolved) == 0 {
			log.Debug().Str("label", s.Name).Msg("Analysis label has no taxonomy match")
		}
		found = append(found, resolved...)
	}
	return c.resolver.Normalize(found), nil
}
