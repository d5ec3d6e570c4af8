package taxonomy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	require.NotEmpty(t, tax.Disorders)
	assert.Equal(t, "Depression", tax.Disorders[0].Name)
	assert.Equal(t, "Fatigue", tax.Disorders[0].Symptoms[0].Name)
	assert.Equal(t, "Anxiety", tax.Disorders[1].Name)
}

func TestQuestionsAndAffirmations(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	questions := tax.Questions("Depression", "Fatigue")
	require.NotEmpty(t, questions)
	assert.Equal(t, "Do you often feel tired even after sleeping?", questions[0])

	assert.NotEmpty(t, tax.Affirmations("depression", "fatigue"))
}

func TestLookupMissReturnsEmpty(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	q := tax.Questions("Depression", "Nonexistent")
	assert.NotNil(t, q)
	assert.Empty(t, q)
	assert.Empty(t, tax.Affirmations("Unknown", "Fatigue"))

	_, ok := tax.Lookup("Unknown", "Fatigue")
	assert.False(t, ok)
}

func TestEachFollowsDeclarationOrder(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	var names []string
	tax.Each(func(disorder string, s Symptom) {
		names = append(names, disorder+"/"+s.Name)
	})
	require.GreaterOrEqual(t, len(names), 4)
	assert.Equal(t, []string{"Depression/Fatigue", "Depression/Sadness", "Anxiety/Restlessness", "Anxiety/Sweating"}, names[:4])
}

func TestLoadRejectsInvalidData(t *testing.T) {
	cases := map[string]string{
		"empty": `disorders: []`,
		"no questions": `
disorders:
  - name: Depression
    symptoms:
      - name: Fatigue
        triggers: [tired]
        affirmations: [ok]
`,
		"no affirmations": `
disorders:
  - name: Depression
    symptoms:
      - name: Fatigue
        triggers: [tired]
        questions: [q]
`,
		"no triggers": `
disorders:
  - name: Depression
    symptoms:
      - name: Fatigue
        questions: [q]
        affirmations: [a]
`,
		"duplicate symptom": `
disorders:
  - name: Depression
    symptoms:
      - name: Fatigue
        triggers: [tired]
        questions: [q]
        affirmations: [a]
      - name: fatigue
        triggers: [drained]
        questions: [q]
        affirmations: [a]
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCustomTaxonomy(t *testing.T) {
	doc := `
disorders:
  - name: Stress
    symptoms:
      - name: Overwhelm
        triggers: [overwhelmed]
        questions: ["Do you feel overwhelmed?"]
        affirmations: ["That sounds like a lot."]
`
	tax, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Do you feel overwhelmed?"}, tax.Questions("Stress", "Overwhelm"))
}
