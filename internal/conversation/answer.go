package conversation

import "strings"

// AffirmativePhrases count as "yes" when they appear anywhere in an answer.
var AffirmativePhrases = []string{
	"yes", "yeah", "yep", "yup", "correct", "true", "i do",
	"definitely", "absolutely", "of course", "sure",
}

// negations are cut out before matching. Each one contains an
// affirmative phrase that would otherwise match.
var negations = []string{
	"i don't", "i do not", "i doubt", "not sure", "unsure",
	"not true", "untrue", "not correct", "incorrect",
}

// IsAffirmative reports whether an answer contains one of the affirmative
// phrases, case-insensitively. Everything else, including empty input, is
// a "no".
func IsAffirmative(answer string) bool {
	a := strings.ToLower(strings.ReplaceAll(answer, "’", "'"))
	for _, n := range negations {
		a = strings.ReplaceAll(a, n, " ")
	}
	for _, p := range AffirmativePhrases {
		if strings.Contains(a, p) {
			return true
		}
	}
	return false
}
