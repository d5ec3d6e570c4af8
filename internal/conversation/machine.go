package conversation

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"headdowell/internal/symptom"
)

// detect runs in idle: scan the utterance and queue what was found.
func (s *Session) detect(ctx context.Context, text string, t *Turn) {
	e := s.engine
	found, err := e.matcher.Detect(ctx, text)
	if err != nil {
		log.Warn().Err(err).Str("session_id", s.id.String()).Msg("Symptom analysis failed, using keyword matcher")
		t.Notices = append(t.Notices, FallbackNotice)
		t.Fallback = true
		found = e.local.Match(text)
	}
	if len(found) == 0 {
		s.reply(t, e.composer.OpenPrompt())
		return
	}

	s.state.Pending = append([]symptom.Detected{}, found...)
	s.state.Phase = PhaseDetecting
	t.Detected = append(t.Detected, found...)
	log.Debug().
		Str("session_id", s.id.String()).
		Int("detected", len(found)).
		Msg("Symptoms detected")
	s.reply(t, e.composer.Acknowledge(found))
}

// answer handles one reply to the current symptom's question.
func (s *Session) answer(text string, t *Turn) {
	e := s.engine
	cur := s.state.Current
	if cur == nil {
		s.state.Phase = PhaseDetecting
		return
	}

	questions := e.tax.Questions(cur.Disorder, cur.Name)
	if len(questions) == 0 || s.state.QuestionIndex >= len(questions) {
		log.Warn().
			Str("session_id", s.id.String()).
			Str("disorder", cur.Disorder).
			Str("symptom", cur.Name).
			Msg("No questions left for symptom, dropping it")
		s.finishSymptom()
		return
	}

	affirmative := IsAffirmative(text)
	if affirmative {
		s.state.AffirmativeCount++
		affirmations := e.tax.Affirmations(cur.Disorder, cur.Name)
		s.reply(t, e.composer.Affirmation(affirmations, s.state.QuestionIndex))
	}

	if s.state.AffirmativeCount >= e.threshold {
		confirmed := *cur
		confirmed.Confirmed = true
		s.state.Confirmed = append(s.state.Confirmed, confirmed)
		t.Confirmed = append(t.Confirmed, confirmed)
		log.Debug().
			Str("session_id", s.id.String()).
			Str("disorder", cur.Disorder).
			Str("symptom", cur.Name).
			Msg("Symptom confirmed")
		s.reply(t, e.composer.Confirmation(cur.Name))
		s.finishSymptom()
		return
	}

	if s.state.QuestionIndex >= len(questions)-1 {
		s.finishSymptom()
		return
	}

	if !affirmative {
		s.reply(t, e.composer.NegativeAck())
	}
	s.state.QuestionIndex++
	s.reply(t, e.composer.NextQuestion(questions[s.state.QuestionIndex]))
}

func (s *Session) finishSymptom() {
	s.state.Current = nil
	s.state.QuestionIndex = 0
	s.state.AffirmativeCount = 0
	s.state.Phase = PhaseDetecting
}

// settle advances through detecting and summarizing until the dialogue
// waits for input in questioning or idle.
func (s *Session) settle(t *Turn) {
	e := s.engine
	for {
		switch s.state.Phase {
		case PhaseQuestioning:
			if s.state.Current != nil {
				return
			}
			s.state.Phase = PhaseDetecting

		case PhaseDetecting:
			if len(s.state.Pending) == 0 {
				s.state.Phase = PhaseSummarizing
				continue
			}
			next := s.state.Pending[0]
			s.state.Pending = s.state.Pending[1:]

			questions := e.tax.Questions(next.Disorder, next.Name)
			if len(questions) == 0 {
				log.Warn().
					Str("session_id", s.id.String()).
					Str("disorder", next.Disorder).
					Str("symptom", next.Name).
					Msg("Unknown symptom in queue, skipping")
				continue
			}

			cur := next
			s.state.Current = &cur
			s.state.QuestionIndex = 0
			s.state.AffirmativeCount = 0
			if !s.asked(next.Disorder) {
				s.state.AskedDisorders = append(s.state.AskedDisorders, next.Disorder)
				s.reply(t, e.composer.Introduce(next.Disorder))
			}
			s.reply(t, e.composer.FirstQuestion(questions[0]))
			s.state.Phase = PhaseQuestioning
			return

		case PhaseSummarizing:
			s.summarize(t)
			return

		default:
			s.state.Phase = PhaseIdle
			return
		}
	}
}

func (s *Session) summarize(t *Turn) {
	e := s.engine
	if len(s.state.Confirmed) > 0 {
		text, sum := e.composer.Summary(s.state.Confirmed)
		s.reply(t, text)
		s.reply(t, e.composer.FollowUp())
		t.Summary = &sum
	} else {
		s.reply(t, e.composer.NoDetection())
	}

	s.state.Phase = PhaseIdle
	s.state.Pending = []symptom.Detected{}
	s.state.Confirmed = []symptom.Detected{}
	s.state.Current = nil
	s.state.QuestionIndex = 0
	s.state.AffirmativeCount = 0
}

func (s *Session) asked(disorder string) bool {
	for _, d := range s.state.AskedDisorders {
		if strings.EqualFold(d, disorder) {
			return true
		}
	}
	return false
}
