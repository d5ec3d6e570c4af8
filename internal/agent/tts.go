package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTTSURL is the ElevenLabs text-to-speech API.
const DefaultTTSURL = "https://api.elevenlabs.io/v1/text-to-speech"

const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM" // Rachel

type TTSClient interface {
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)
}

type elevenLabsClient struct {
	baseURL string
	apiKey  string
	api     endpoint
}

func NewElevenLabsClient(baseURL, apiKey string) TTSClient {
	if baseURL == "" {
		baseURL = DefaultTTSURL
	}
	return &elevenLabsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		api:     newEndpoint("TTS", 60*time.Second),
	}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func (c *elevenLabsClient) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}
	if voiceID == "" {
		voiceID = defaultVoiceID
	}

	// A calm, steady voice suits a wellness companion.
	req := ttsRequest{
		Text:          stripMarkdown(text),
		ModelID:       "eleven_turbo_v2",
		VoiceSettings: voiceSettings{Stability: 0.7, SimilarityBoost: 0.75},
	}

	var audio []byte
	header := http.Header{}
	header.Set("xi-api-key", c.apiKey)
	if err := c.api.postJSON(ctx, c.baseURL+"/"+voiceID, header, req, &audio); err != nil {
		return nil, err
	}
	return audio, nil
}

// stripMarkdown removes the bold markers and bullets used in summaries so
// they are not read aloud.
func stripMarkdown(text string) string {
	r := strings.NewReplacer("**", "", "• ", "")
	return r.Replace(text)
}
