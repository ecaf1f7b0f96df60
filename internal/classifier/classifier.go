// Package classifier filters ambient channel chatter down to messages
// that are plausibly questions worth forwarding to the answering
// service. It is intentionally cheap: pure string checks, no network.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const minLength = 5

// Filler greetings and acknowledgements that end a conversation rather
// than start one.
var fillerPattern = regexp.MustCompile(`(?i)^(?:gm|gn|thanks|thank you|ty|ok|nice|lol)\b`)

var interrogativePattern = regexp.MustCompile(`(?i)^(?:what|how|why|when|where|who|can|does|is) `)

// Product terms that mark a message as on-topic even without question
// phrasing.
var domainKeywords = []string{
	"iaero",
	"veaero",
	"aero",
	"vault",
	"staking",
	"apy",
	"liquid",
	"bribe",
	"emission",
	"epoch",
	"tokenomics",
}

// IsLikelyQuestion reports whether ambient channel text deserves an
// answer attempt. Rejections are silent by design: a wrong "no" costs an
// unanswered message, a wrong "yes" costs an off-topic bot reply.
func IsLikelyQuestion(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minLength {
		return false
	}
	switch text[0] {
	case '!', '/', '.':
		return false
	}
	if fillerPattern.MatchString(text) {
		return false
	}
	if strings.Contains(text, "?") {
		return true
	}
	if interrogativePattern.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
