package conversation

import (
	"time"

	"github.com/google/uuid"

	"headdowell/internal/symptom"
	"headdowell/internal/taxonomy"
)

// DefaultConfirmThreshold is the number of affirmative answers that
// confirms a symptom.
const DefaultConfirmThreshold = 2

// Engine holds the read-only collaborators shared by all sessions.
type Engine struct {
	tax       *taxonomy.Taxonomy
	local     *symptom.KeywordMatcher
	matcher   symptom.Matcher
	composer  *Composer
	threshold int
	now       func() time.Time
}

type Option func(*Engine)

// WithMatcher replaces the detection backend. The keyword matcher stays
// in place as the fallback when m fails.
func WithMatcher(m symptom.Matcher) Option {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

func WithPicker(p Picker) Option {
	return func(e *Engine) { e.composer.pick = p }
}

func WithConfirmThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threshold = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(tax *taxonomy.Taxonomy, kb KnowledgeBase, opts ...Option) *Engine {
	local := symptom.NewKeywordMatcher(tax)
	e := &Engine{
		tax:       tax,
		local:     local,
		matcher:   local,
		composer:  NewComposer(kb, FirstPicker),
		threshold: DefaultConfirmThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Matcher exposes the keyword matcher backing this engine.
func (e *Engine) Matcher() *symptom.KeywordMatcher { return e.local }

// NewSession starts a session holding only the greeting.
func (e *Engine) NewSession(id uuid.UUID) *Session {
	now := e.now()
	s := &Session{id: id, engine: e, createdAt: now, updatedAt: now}
	s.Reset()
	return s
}

// Restore rebuilds a session from a snapshot.
func (e *Engine) Restore(snap Snapshot) *Session {
	s := &Session{
		id:         snap.ID,
		engine:     e,
		transcript: append([]Message{}, snap.Transcript...),
		state:      snap.State.clone(),
		createdAt:  snap.CreatedAt,
		updatedAt:  snap.UpdatedAt,
	}
	if s.state.Phase == "" {
		s.state.Phase = PhaseIdle
	}
	return s
}
