package conversation

import (
	"time"

	"github.com/google/uuid"

	"headdowell/internal/knowledge"
	"headdowell/internal/symptom"
)

// Phase is the dialogue's current step.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseDetecting   Phase = "detecting"
	PhaseQuestioning Phase = "questioning"
	PhaseSummarizing Phase = "summarizing"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is an append-only transcript entry.
type Message struct {
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the dialogue state owned by a Session.
//
// Invariants between submissions: Current is non-nil iff Phase is
// questioning; in idle Pending is empty.
type State struct {
	Phase            Phase              `json:"phase"`
	Pending          []symptom.Detected `json:"pending"`
	Confirmed        []symptom.Detected `json:"confirmed"`
	Current          *symptom.Detected  `json:"current,omitempty"`
	QuestionIndex    int                `json:"question_index"`
	AffirmativeCount int                `json:"affirmative_count"`
	AskedDisorders   []string           `json:"asked_disorders"`
}

func initialState() State {
	return State{
		Phase:          PhaseIdle,
		Pending:        []symptom.Detected{},
		Confirmed:      []symptom.Detected{},
		AskedDisorders: []string{},
	}
}

func (s State) clone() State {
	c := s
	c.Pending = append([]symptom.Detected{}, s.Pending...)
	c.Confirmed = append([]symptom.Detected{}, s.Confirmed...)
	c.AskedDisorders = append([]string{}, s.AskedDisorders...)
	if s.Current != nil {
		cur := *s.Current
		c.Current = &cur
	}
	return c
}

// DisorderGroup lists the confirmed symptoms of one disorder.
type DisorderGroup struct {
	Disorder string   `json:"disorder"`
	Symptoms []string `json:"symptoms"`
}

// Summary is the outcome of one questioning cycle.
type Summary struct {
	Groups    []DisorderGroup     `json:"groups"`
	Therapies []knowledge.Therapy `json:"therapies"`
	Coping    []string            `json:"coping,omitempty"`
	Support   []string            `json:"support,omitempty"`
	Response  string              `json:"response,omitempty"`
}

// Turn is what one Submit produced.
type Turn struct {
	Ignored bool      `json:"ignored"`
	Replies []Message `json:"replies"`
	// Notices are transient and never enter the transcript.
	Notices []string `json:"notices,omitempty"`
	Phase   Phase    `json:"phase"`
	Summary *Summary `json:"summary,omitempty"`

	// Detected and Confirmed list what this turn found and confirmed.
	Detected  []symptom.Detected `json:"detected,omitempty"`
	Confirmed []symptom.Detected `json:"confirmed,omitempty"`
	Fallback  bool               `json:"fallback,omitempty"`
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	ID         uuid.UUID `json:"id"`
	Transcript []Message `json:"transcript"`
	State      State     `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
