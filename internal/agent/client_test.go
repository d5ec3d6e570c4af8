package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"headdowell/internal/symptom"
	"headdowell/internal/taxonomy"
)

func newResolver(t *testing.T) *symptom.KeywordMatcher {
	t.Helper()
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	return symptom.NewKeywordMatcher(tax)
}

func TestAnalysisClientDetect(t *testing.T) {
	var got analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"detectedSymptoms": [
				{"name": "sweating", "confidence": 0.8},
				{"name": "Fatigue", "confidence": 0.9},
				{"name": "hallucinations", "confidence": 0.4}
			],
			"sentiment": "negative",
			"language": "en"
		}`)
	}))
	defer srv.Close()

	client := NewAnalysisClient(srv.URL+"/", newResolver(t), time.Second)
	found, err := client.Detect(context.Background(), "I am tired and sweaty")
	require.NoError(t, err)

	assert.Equal(t, "I am tired and sweaty", got.Text)
	assert.Equal(t, "text", got.Source)
	// Declaration order, unknown labels dropped.
	assert.Equal(t, []symptom.Detected{
		{Name: "Fatigue", Disorder: "Depression"},
		{Name: "Sweating", Disorder: "Anxiety"},
	}, found)
}

func TestAnalysisClientEmptyInput(t *testing.T) {
	client := NewAnalysisClient("http://127.0.0.1:0", newResolver(t), time.Second)
	found, err := client.Detect(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAnalysisClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewAnalysisClient(srv.URL, newResolver(t), time.Second)
	_, err := client.Detect(context.Background(), "I feel sad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestAnalysisClientBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer srv.Close()

	client := NewAnalysisClient(srv.URL, newResolver(t), time.Second)
	_, err := client.Analyze(context.Background(), "hi", "")
	assert.Error(t, err)
}
