package conversation

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	svc        Service
	replyDelay time.Duration
}

// NewHandler builds the HTTP handlers. replyDelay only paces the
// streaming endpoint between its typing and message events.
func NewHandler(svc Service, replyDelay time.Duration) *Handler {
	return &Handler{svc: svc, replyDelay: replyDelay}
}

type SubmitRequest struct {
	Text string `json:"text"`
}

type TTSRequest struct {
	Text string `json:"text"`
}

// StreamEvent is one server-sent event of the streaming endpoint.
type StreamEvent struct {
	Type string `json:"type"` // "typing", "message", "notice", "done", "error"
	Data any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "Session not found", http.StatusNotFound)
	case errors.Is(err, ErrSpeechUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("Request failed")
		http.Error(w, "Processing failed: "+err.Error(), http.StatusInternalServerError)
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.CreateSession(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": snap.ID.String(),
		"messages":   snap.Transcript,
	})
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	messages, err := h.svc.Transcript(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	turn, err := h.svc.Submit(r.Context(), id, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (h *Handler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	messages, err := h.svc.Clear(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// SubmitMessageStream replies with server-sent events. A typing event
// precedes every message event, and the reply delay is applied between
// them.
func (h *Handler) SubmitMessageStream(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	turn, err := h.svc.Submit(r.Context(), id, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(ev StreamEvent) {
		data, _ := json.Marshal(ev)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	for _, n := range turn.Notices {
		send(StreamEvent{Type: "notice", Data: n})
	}
	for _, m := range turn.Replies {
		send(StreamEvent{Type: "typing"})
		if h.replyDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(h.replyDelay):
			}
		}
		send(StreamEvent{Type: "message", Data: m})
	}
	send(StreamEvent{Type: "done", Data: turn.Phase})
}

func (h *Handler) HandleTTS(w http.ResponseWriter, r *http.Request) {
	var req TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	audioData, err := h.svc.SynthesizeSpeech(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audioData)
}

// HandleAudioUpload transcribes an uploaded recording and submits the text
// as if it had been typed.
func (h *Handler) HandleAudioUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	// Unknown sessions are rejected before any transcription work.
	snap, err := h.svc.Snapshot(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Limit upload size (e.g. 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "Error retrieving audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		http.Error(w, "Failed to read audio file", http.StatusInternalServerError)
		return
	}

	text, err := h.svc.TranscribeAudio(r.Context(), buf.Bytes())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if text == "" {
		// Silence or no speech detected
		writeJSON(w, http.StatusOK, map[string]any{"text": "", "turn": Turn{Ignored: true, Phase: snap.State.Phase}})
		return
	}

	turn, err := h.svc.Submit(r.Context(), id, text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Speak the last reply; failure here leaves the text reply intact.
	var audioBase64 string
	if n := len(turn.Replies); n > 0 {
		audioData, err := h.svc.SynthesizeSpeech(r.Context(), turn.Replies[n-1].Text)
		if err == nil {
			audioBase64 = base64.StdEncoding.EncodeToString(audioData)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":         text,
		"turn":         turn,
		"audio_base64": audioBase64,
	})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/messages", h.GetMessages)
		r.Post("/messages", h.SubmitMessage)
		r.Delete("/messages", h.ClearMessages)
		r.Post("/messages/stream", h.SubmitMessageStream)
		r.Post("/audio", h.HandleAudioUpload)
	})
	r.Post("/tts", h.HandleTTS)
}
