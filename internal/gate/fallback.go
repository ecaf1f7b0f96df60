package gate

import "regexp"

// FallbackPolicy detects hedging and non-answer phrasing in an answer.
// It is a value so a different detector can replace the default phrase
// list without changes to the gate itself.
type FallbackPolicy struct {
	patterns []*regexp.Regexp
}

var defaultFallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bi (?:do not|don'?t) know\b`),
	regexp.MustCompile(`(?i)\bnot sure\b`),
	regexp.MustCompile(`(?i)\bplease clarify\b`),
	regexp.MustCompile(`(?i)\b(?:could not|couldn'?t) find\b`),
	regexp.MustCompile(`(?i)\bno information\b`),
	regexp.MustCompile(`(?i)\bunsure\b`),
	regexp.MustCompile(`(?i)\bas an ai\b`),
	regexp.MustCompile(`(?i)\b(?:do not|don'?t) have enough context\b`),
	regexp.MustCompile(`(?i)\b(?:cannot|can'?t) help with that\b`),
	regexp.MustCompile(`(?i)\btry again\b`),
	regexp.MustCompile(`(?i)\brephras(?:e|ing)\b`),
}

func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{patterns: defaultFallbackPatterns}
}

// NewFallbackPolicy compiles a custom phrase list. Invalid expressions
// return an error rather than a partially usable policy.
func NewFallbackPolicy(exprs []string) (FallbackPolicy, error) {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return FallbackPolicy{}, err
		}
		patterns = append(patterns, re)
	}
	return FallbackPolicy{patterns: patterns}, nil
}

func (p FallbackPolicy) Matches(answer string) bool {
	for _, re := range p.patterns {
		if re.MatchString(answer) {
			return true
		}
	}
	return false
}
