package agent

import (
	"context"
	"strings"
	"time"
)

// DefaultSTTURL is the local Whisper service started next to the backend.
const DefaultSTTURL = "http://stt:8000/transcribe"

type STTClient interface {
	Transcribe(ctx context.Context, audioData []byte) (string, error)
}

// WhisperClient uploads recordings to a Whisper-compatible /transcribe
// endpoint. An empty Language lets the service detect it.
type WhisperClient struct {
	url      string
	language string
	api      endpoint
}

func NewWhisperClient(url, language string) *WhisperClient {
	if url == "" {
		url = DefaultSTTURL
	}
	return &WhisperClient{
		url:      url,
		language: language,
		api:      newEndpoint("STT", 60*time.Second),
	}
}

type transcription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe returns the recognised text. Silence comes back as "".
func (c *WhisperClient) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	var fields map[string]string
	if c.language != "" {
		fields = map[string]string{"language": c.language}
	}

	var result transcription
	if err := c.api.upload(ctx, c.url, "file", "audio.wav", audioData, fields, &result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}
