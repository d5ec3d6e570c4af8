package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrSpeechUnavailable = errors.New("speech service is not configured")

// ReportService delivers a finished summary somewhere outside the chat.
type ReportService interface {
	SendSummary(ctx context.Context, sessionID uuid.UUID, sum Summary) error
}

// TTSClient defines the interface for Text-to-Speech
type TTSClient interface {
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)
}

// STTClient defines the interface for Speech-to-Text
type STTClient interface {
	Transcribe(ctx context.Context, audioData []byte) (string, error)
}

// TurnObserver is notified after every persisted turn.
type TurnObserver interface {
	ObserveTurn(t Turn)
}

type Service interface {
	CreateSession(ctx context.Context) (*Snapshot, error)
	Submit(ctx context.Context, sessionID uuid.UUID, text string) (Turn, error)
	Snapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error)
	Transcript(ctx context.Context, sessionID uuid.UUID) ([]Message, error)
	Clear(ctx context.Context, sessionID uuid.UUID) ([]Message, error)
	TranscribeAudio(ctx context.Context, audioData []byte) (string, error)
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// Deps are the optional collaborators of the service. Nil fields disable
// the matching feature.
type Deps struct {
	TTS      TTSClient
	STT      STTClient
	Report   ReportService
	Observer TurnObserver
	VoiceID  string
}

type service struct {
	engine *Engine
	repo   Repository
	deps   Deps
	locks  sync.Map
}

func NewService(engine *Engine, repo Repository, deps Deps) Service {
	return &service{
		engine: engine,
		repo:   repo,
		deps:   deps,
	}
}

// lock serializes work on one session so a submission is fully processed
// before the next one starts.
func (s *service) lock(id uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// loadLocked loads a session under its lock. Locks for unknown ids are
// dropped again so arbitrary ids leave nothing behind.
func (s *service) loadLocked(ctx context.Context, id uuid.UUID) (*Session, func(), error) {
	unlock := s.lock(id)
	sess, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.locks.Delete(id)
		}
		unlock()
		return nil, nil, err
	}
	return sess, unlock, nil
}

func (s *service) CreateSession(ctx context.Context) (*Snapshot, error) {
	sess := s.engine.NewSession(uuid.New())
	snap := sess.Snapshot()
	if err := s.repo.Save(ctx, &snap); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	log.Info().Str("session_id", snap.ID.String()).Msg("Session created")
	return &snap, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Session, error) {
	snap, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Restore(*snap), nil
}

func (s *service) save(ctx context.Context, sess *Session) error {
	snap := sess.Snapshot()
	if err := s.repo.Save(ctx, &snap); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *service) Submit(ctx context.Context, id uuid.UUID, text string) (Turn, error) {
	sess, unlock, err := s.loadLocked(ctx, id)
	if err != nil {
		return Turn{}, err
	}
	defer unlock()

	turn := sess.Submit(ctx, text)
	if turn.Ignored {
		return turn, nil
	}
	if err := s.save(ctx, sess); err != nil {
		return Turn{}, err
	}

	if s.deps.Observer != nil {
		s.deps.Observer.ObserveTurn(turn)
	}
	log.Debug().
		Str("session_id", id.String()).
		Str("phase", string(turn.Phase)).
		Int("replies", len(turn.Replies)).
		Msg("Turn processed")

	if turn.Summary != nil && s.deps.Report != nil {
		if err := s.deps.Report.SendSummary(ctx, id, *turn.Summary); err != nil {
			log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to send summary report")
		}
	}
	return turn, nil
}

func (s *service) Snapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Transcript(ctx context.Context, id uuid.UUID) ([]Message, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Transcript(), nil
}

// Clear resets the transcript and dialogue state of a session.
func (s *service) Clear(ctx context.Context, id uuid.UUID) ([]Message, error) {
	sess, unlock, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()
	sess.Reset()
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	log.Info().Str("session_id", id.String()).Msg("Session history cleared")
	return sess.Transcript(), nil
}

func (s *service) TranscribeAudio(ctx context.Context, audioData []byte) (string, error) {
	if s.deps.STT == nil {
		return "", ErrSpeechUnavailable
	}
	return s.deps.STT.Transcribe(ctx, audioData)
}

func (s *service) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if s.deps.TTS == nil {
		return nil, ErrSpeechUnavailable
	}
	return s.deps.TTS.Synthesize(ctx, text, s.deps.VoiceID)
}
