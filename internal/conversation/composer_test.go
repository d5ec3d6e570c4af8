package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"headdowell/internal/knowledge"
	"headdowell/internal/symptom"
)

type fakeKnowledge struct {
	descriptions map[string]string
	therapies    map[string][]knowledge.Therapy
	coping       map[string][]string
	support      []string
	responses    map[string][]string
}

func (f fakeKnowledge) Describe(disorder string) string { return f.descriptions[disorder] }
func (f fakeKnowledge) Therapies(disorder string) []knowledge.Therapy { return f.therapies[disorder] }
func (f fakeKnowledge) Coping(disorder string) []string { return f.coping[disorder] }
func (f fakeKnowledge) Support() []string { return f.support }
func (f fakeKnowledge) Responses(disorder string) []string { return f.responses[disorder] }

func TestIsAffirmative(t *testing.T) {
	cases := map[string]bool{
		"yes":                     true,
		"YES!":                    true,
		"yesss":                   true,
		"Yeahhh":                  true,
		"yessir":                  true,
		"yes/no: yes":             true,
		"Yeah I guess":            true,
		"that's correct":          true,
		"I do, most days":         true,
		"of course":               true,
		"sure":                    true,
		"it’s true for me lately": true,
		"yes, I don't mind":       true,
		"no":                      false,
		"nope":                    false,
		"I don't":                 false,
		"I don’t think so":        false,
		"i do not":                false,
		"not sure":                false,
		"that's incorrect":        false,
		"":                        false,
		"???":                     false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsAffirmative(in), in)
	}
}

func TestAffirmationClamped(t *testing.T) {
	c := NewComposer(nil, nil)
	affs := []string{"a", "b"}

	assert.Equal(t, "a", c.Affirmation(affs, 0))
	assert.Equal(t, "b", c.Affirmation(affs, 1))
	assert.Equal(t, "b", c.Affirmation(affs, 4))
	assert.Equal(t, "", c.Affirmation(nil, 0))
}

func TestAcknowledge(t *testing.T) {
	c := NewComposer(nil, nil)

	one := c.Acknowledge([]symptom.Detected{{Name: "Fatigue"}})
	assert.Contains(t, one, "related to fatigue. I'd like to ask you a few questions about it")

	three := c.Acknowledge([]symptom.Detected{{Name: "Fatigue"}, {Name: "Sadness"}, {Name: "Sweating"}})
	assert.Contains(t, three, "related to fatigue, sadness and sweating.")
}

func TestSummaryGroupsAndDedupesTherapies(t *testing.T) {
	c := NewComposer(fakeKnowledge{therapies: map[string][]knowledge.Therapy{
		"Depression": {{Name: "CBT", Label: "Cognitive Behavioral Therapy"}},
		"Anxiety":    {{Name: "CBT", Label: "Cognitive Behavioral Therapy"}, {Name: "Exposure", Label: "Exposure Therapy"}},
	}}, nil)

	text, sum := c.Summary([]symptom.Detected{
		{Name: "Fatigue", Disorder: "Depression", Confirmed: true},
		{Name: "Sweating", Disorder: "Anxiety", Confirmed: true},
		{Name: "Sadness", Disorder: "Depression", Confirmed: true},
	})

	require.Len(t, sum.Groups, 2)
	assert.Equal(t, DisorderGroup{Disorder: "Depression", Symptoms: []string{"Fatigue", "Sadness"}}, sum.Groups[0])
	assert.Equal(t, DisorderGroup{Disorder: "Anxiety", Symptoms: []string{"Sweating"}}, sum.Groups[1])
	require.Len(t, sum.Therapies, 2)

	assert.Contains(t, text, "**Depression**-related experiences:\n• Fatigue\n• Sadness\n")
	assert.Contains(t, text, "**Anxiety**-related experiences:\n• Sweating\n")
	assert.Contains(t, text, "**Approaches that might be helpful**:\n• Cognitive Behavioral Therapy")
	assert.Contains(t, text, Disclaimer)
}

func TestSummaryWithoutTherapies(t *testing.T) {
	c := NewComposer(fakeKnowledge{}, nil)

	text, sum := c.Summary([]symptom.Detected{{Name: "Fatigue", Disorder: "Depression"}})
	assert.Empty(t, sum.Therapies)
	assert.Empty(t, sum.Coping)
	assert.Empty(t, sum.Response)
	assert.NotContains(t, text, "Approaches that might be helpful")
	assert.NotContains(t, text, "Some strategies you could try")
	assert.NotContains(t, text, "Professional support")
}

func TestSummaryCopingSupportAndResponse(t *testing.T) {
	kb := fakeKnowledge{
		coping: map[string][]string{
			"Depression": {"Establish a gentle daily routine", "Connect with someone you trust"},
			"Anxiety":    {"Create a calming playlist", "Connect with someone you trust"},
		},
		support: []string{"Consider speaking with a mental health professional", "Support groups can provide community understanding"},
		responses: map[string][]string{
			"Depression": {"first depression line", "second depression line"},
			"Anxiety":    {"anxiety line"},
		},
	}
	c := NewComposer(kb, func(n int) int { return n - 1 })

	text, sum := c.Summary([]symptom.Detected{
		{Name: "Fatigue", Disorder: "Depression", Confirmed: true},
		{Name: "Sweating", Disorder: "Anxiety", Confirmed: true},
	})

	assert.Equal(t, []string{"Establish a gentle daily routine", "Connect with someone you trust", "Create a calming playlist"}, sum.Coping)
	assert.Equal(t, kb.support, sum.Support)
	assert.Equal(t, "second depression line", sum.Response)

	assert.Contains(t, text, "**Some strategies you could try**:\n• Establish a gentle daily routine\n• Connect with someone you trust\n• Create a calming playlist\n")
	assert.Contains(t, text, "**Professional support**:\n• Consider speaking with a mental health professional\n")
	assert.Contains(t, text, Encouragement)
	assert.Contains(t, text, "second depression line\n\n"+Disclaimer)
	assert.True(t, strings.HasSuffix(text, Disclaimer))
}

func TestIntroduceDescribesDisorder(t *testing.T) {
	c := NewComposer(fakeKnowledge{descriptions: map[string]string{
		"Depression": "A mood disorder characterized by persistent sadness.",
	}}, nil)

	text := c.Introduce("Depression")
	assert.Contains(t, text, "related to Depression. Depression is often described as a mood disorder characterized by persistent sadness. If you're comfortable")

	plain := c.Introduce("Sleep Disorder")
	assert.Equal(t, "I notice some of what you're describing sounds like it might be related to Sleep Disorder. "+
		"If you're comfortable, I'd like to ask you a few more questions about your experience.", plain)

	assert.Equal(t, plain, NewComposer(nil, nil).Introduce("Sleep Disorder"))
}

func TestSummaryWithEmbeddedKnowledge(t *testing.T) {
	graph, err := knowledge.Default()
	require.NoError(t, err)
	c := NewComposer(graph, nil)

	text, sum := c.Summary([]symptom.Detected{{Name: "Insomnia", Disorder: "Sleep Disorder", Confirmed: true}})
	assert.Contains(t, sum.Coping, "Put screens away an hour before bed")
	assert.Len(t, sum.Support, 4)
	assert.Equal(t, "I understand you're experiencing symptoms related to Sleep Disorder. "+
		"Have you spoken with a mental health professional about treatment options?", sum.Response)
	assert.Contains(t, text, "**Professional support**")
}

func TestPickers(t *testing.T) {
	assert.Equal(t, 0, FirstPicker(5))

	rot := RotatingPicker()
	assert.Equal(t, []int{0, 1, 2, 0}, []int{rot(3), rot(3), rot(3), rot(3)})

	a, b := RandomPicker(42), RandomPicker(42)
	for i := 0; i < 10; i++ {
		x := a(3)
		assert.Equal(t, x, b(3))
		assert.GreaterOrEqual(t, x, 0)
		assert.Less(t, x, 3)
	}
}

func TestPickedPhrasesComeFromPools(t *testing.T) {
	c := NewComposer(nil, RandomPicker(7))
	for i := 0; i < 20; i++ {
		assert.Contains(t, OpenPrompts, c.OpenPrompt())
		assert.Contains(t, NegativeAcks, c.NegativeAck())
	}
}

func TestOutOfRangePickerFallsBackToFirst(t *testing.T) {
	c := NewComposer(nil, func(n int) int { return n + 3 })
	assert.Equal(t, OpenPrompts[0], c.OpenPrompt())
}
