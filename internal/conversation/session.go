package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session owns one transcript and its dialogue state. It is not safe for
// concurrent use; callers serialize submissions per session.
type Session struct {
	id         uuid.UUID
	engine     *Engine
	transcript []Message
	state      State
	createdAt  time.Time
	updatedAt  time.Time
}

func (s *Session) ID() uuid.UUID { return s.id }

// Submit appends the user's text and drives the dialogue until it waits
// for the next answer. Whitespace-only input is ignored.
func (s *Session) Submit(ctx context.Context, text string) Turn {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{Ignored: true, Phase: s.state.Phase}
	}

	t := &Turn{}
	s.append(SenderUser, text)
	switch s.state.Phase {
	case PhaseIdle:
		s.detect(ctx, text, t)
	case PhaseQuestioning:
		s.answer(text, t)
	}
	s.settle(t)

	t.Phase = s.state.Phase
	return *t
}

// Reset returns the session to a fresh greeting and initial state.
func (s *Session) Reset() {
	s.state = initialState()
	s.transcript = nil
	s.append(SenderAI, s.engine.composer.Greeting())
}

func (s *Session) Transcript() []Message {
	return append([]Message{}, s.transcript...)
}

func (s *Session) State() State {
	return s.state.clone()
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:         s.id,
		Transcript: s.Transcript(),
		State:      s.State(),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
}

func (s *Session) append(sender Sender, text string) Message {
	now := s.engine.now()
	m := Message{Text: text, Sender: sender, Timestamp: now}
	s.transcript = append(s.transcript, m)
	s.updatedAt = now
	return m
}

func (s *Session) reply(t *Turn, text string) {
	if text == "" {
		return
	}
	t.Replies = append(t.Replies, s.append(SenderAI, text))
}
