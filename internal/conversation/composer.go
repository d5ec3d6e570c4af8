package conversation

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"headdowell/internal/knowledge"
	"headdowell/internal/symptom"
)

// Picker chooses an index in [0, n) from a phrase pool. n is always > 0.
type Picker func(n int) int

// FirstPicker always takes the first candidate.
func FirstPicker(int) int { return 0 }

// RotatingPicker cycles through candidates.
func RotatingPicker() Picker {
	var mu sync.Mutex
	next := 0
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		i := next % n
		next++
		return i
	}
}

// RandomPicker picks uniformly with a seeded generator.
func RandomPicker(seed int64) Picker {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		return rng.Intn(n)
	}
}

// KnowledgeBase is the read-only disorder knowledge used by introductions
// and summaries.
type KnowledgeBase interface {
	Describe(disorder string) string
	Therapies(disorder string) []knowledge.Therapy
	Coping(disorder string) []string
	Support() []string
	Responses(disorder string) []string
}

const (
	Greeting = "Hi there! I'm HeadDoWell, your mental wellness companion. How are you feeling today?"

	FollowUp = "How do you feel about what we've discussed? Is there a particular aspect of these experiences you'd like to explore further?"

	NoDetection = "Thank you for sharing how you're feeling. While I haven't identified specific patterns that match common symptoms, " +
		"your experiences are absolutely valid. Sometimes our feelings don't fit neatly into categories, and that's completely normal. " +
		"Would you like to tell me more about what's been on your mind lately?"

	Disclaimer = "I want to emphasize that this conversation isn't a diagnosis. These are just patterns I've noticed that might be worth " +
		"exploring with a mental health professional who can provide personalized guidance."

	FallbackNotice = "The analysis service is unavailable right now, so I'm using on-device matching instead."

	Encouragement = "Remember: seeking help is a sign of strength, not weakness."
)

var (
	OpenPrompts = []string{
		"I'm here to listen. Could you tell me more about how you've been feeling lately?",
		"Thank you for sharing that. Would you like to tell me more about what's been on your mind?",
		"That sounds like a lot to carry. How long have you been feeling this way?",
		"I understand this isn't always easy to talk about. What else has been happening for you?",
	}

	TransitionPhrases = []string{
		"I appreciate your openness. Let me ask another question.",
		"Thank you for sharing that. I'd like to understand more.",
		"That's helpful to know. Could you also tell me,",
	}

	NegativeAcks = []string{
		"That's okay, thank you for telling me.",
		"I understand. Thanks for letting me know.",
		"Got it, that's useful to know too.",
	}
)

// Composer renders outgoing message text. The candidate pools are fixed;
// which candidate is used is up to the Picker.
type Composer struct {
	pick Picker
	kb   KnowledgeBase
}

func NewComposer(kb KnowledgeBase, pick Picker) *Composer {
	if pick == nil {
		pick = FirstPicker
	}
	return &Composer{pick: pick, kb: kb}
}

func (c *Composer) choose(pool []string) string {
	i := c.pick(len(pool))
	if i < 0 || i >= len(pool) {
		i = 0
	}
	return pool[i]
}

func (c *Composer) Greeting() string { return Greeting }

func (c *Composer) OpenPrompt() string { return c.choose(OpenPrompts) }

// Acknowledge tells the user which symptoms were noticed.
func (c *Composer) Acknowledge(found []symptom.Detected) string {
	labels := make([]string, 0, len(found))
	for _, s := range found {
		labels = append(labels, strings.ToLower(s.Name))
	}
	if len(labels) == 1 {
		return fmt.Sprintf("I noticed you mentioned something that might be related to %s. "+
			"I'd like to ask you a few questions about it, if that's okay.", labels[0])
	}
	return fmt.Sprintf("I noticed you mentioned some feelings that might be related to %s. "+
		"I'd like to ask you a few questions about these, if that's okay.", joinAnd(labels))
}

// Introduce opens the questions for a disorder, with its short description
// when the knowledge base has one.
func (c *Composer) Introduce(disorder string) string {
	var about string
	if c.kb != nil {
		if desc := strings.TrimSuffix(strings.TrimSpace(c.kb.Describe(disorder)), "."); desc != "" {
			about = fmt.Sprintf(" %s is often described as %s.", disorder, lowerFirst(desc))
		}
	}
	return fmt.Sprintf("I notice some of what you're describing sounds like it might be related to %s.%s "+
		"If you're comfortable, I'd like to ask you a few more questions about your experience.", disorder, about)
}

func (c *Composer) FirstQuestion(q string) string {
	return q + " Please take your time to answer."
}

func (c *Composer) NextQuestion(q string) string {
	return c.choose(TransitionPhrases) + " " + q
}

// Affirmation plays the line keyed by the question index, clamped to the
// last available affirmation.
func (c *Composer) Affirmation(affirmations []string, questionIndex int) string {
	if len(affirmations) == 0 {
		return ""
	}
	if questionIndex >= len(affirmations) {
		questionIndex = len(affirmations) - 1
	}
	if questionIndex < 0 {
		questionIndex = 0
	}
	return affirmations[questionIndex]
}

func (c *Composer) NegativeAck() string { return c.choose(NegativeAcks) }

func (c *Composer) Confirmation(name string) string {
	return fmt.Sprintf("Thank you for sharing. What you're describing about %s helps me understand what you're going through.",
		strings.ToLower(name))
}

func (c *Composer) FollowUp() string { return FollowUp }

func (c *Composer) NoDetection() string { return NoDetection }

// Summary groups confirmed symptoms by disorder in first-seen order and
// lists each suggested therapy and coping strategy once. The closing
// therapeutic response belongs to the first group's disorder.
func (c *Composer) Summary(confirmed []symptom.Detected) (string, Summary) {
	var sum Summary
	index := map[string]int{}
	for _, s := range confirmed {
		i, ok := index[s.Disorder]
		if !ok {
			i = len(sum.Groups)
			index[s.Disorder] = i
			sum.Groups = append(sum.Groups, DisorderGroup{Disorder: s.Disorder})
		}
		sum.Groups[i].Symptoms = append(sum.Groups[i].Symptoms, s.Name)
	}

	if c.kb != nil && len(sum.Groups) > 0 {
		seen := map[string]bool{}
		for _, g := range sum.Groups {
			for _, t := range c.kb.Therapies(g.Disorder) {
				if seen["therapy:"+t.Name] {
					continue
				}
				seen["therapy:"+t.Name] = true
				sum.Therapies = append(sum.Therapies, t)
			}
			for _, tip := range c.kb.Coping(g.Disorder) {
				if seen["coping:"+tip] {
					continue
				}
				seen["coping:"+tip] = true
				sum.Coping = append(sum.Coping, tip)
			}
		}
		sum.Support = c.kb.Support()
		if responses := c.kb.Responses(sum.Groups[0].Disorder); len(responses) > 0 {
			sum.Response = c.choose(responses)
		}
	}

	var b strings.Builder
	b.WriteString("Thank you for sharing your experiences with me today. Based on our conversation, I've noticed you're experiencing these symptoms:\n\n")
	for _, g := range sum.Groups {
		fmt.Fprintf(&b, "**%s**-related experiences:\n", g.Disorder)
		for _, name := range g.Symptoms {
			fmt.Fprintf(&b, "• %s\n", name)
		}
		b.WriteString("\n")
	}
	if len(sum.Therapies) > 0 {
		b.WriteString("**Approaches that might be helpful**:\n")
		for _, t := range sum.Therapies {
			fmt.Fprintf(&b, "• %s - this could help with understanding and managing your experiences\n", t.Label)
		}
		b.WriteString("\n")
	}
	if len(sum.Coping) > 0 {
		b.WriteString("**Some strategies you could try**:\n")
		for _, tip := range sum.Coping {
			fmt.Fprintf(&b, "• %s\n", tip)
		}
		b.WriteString("\n")
	}
	if len(sum.Support) > 0 {
		b.WriteString("**Professional support**:\n")
		for _, line := range sum.Support {
			fmt.Fprintf(&b, "• %s\n", line)
		}
		b.WriteString(Encouragement + "\n\n")
	}
	if sum.Response != "" {
		b.WriteString(sum.Response + "\n\n")
	}
	b.WriteString(Disclaimer)
	return b.String(), sum
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
