// Package gate decides whether an answer from the answering service is
// trustworthy enough to show. The upstream API does not reliably signal
// "I don't actually know", so strict mode combines textual, structural
// and numeric signals and rejects when any one of them fires.
package gate

import (
	"strings"
	"unicode/utf8"

	"github.com/iaerohq/aerobot/internal/answering"
)

// Config is process-wide gate tuning, read once at startup.
type Config struct {
	// Strict enables filtering. When false every non-empty answer passes.
	Strict bool
	// MinSources is the minimum number of usable citations. 0 disables
	// the check.
	MinSources int
	// MinAnswerLength is the minimum answer length in characters.
	MinAnswerLength int
	// MinConfidence is the minimum normalized confidence on a 0-1 scale.
	// Only enforced when the event carries a confidence-like value.
	MinConfidence float64
}

type Gate struct {
	cfg      Config
	fallback FallbackPolicy
}

func New(cfg Config) *Gate {
	return NewWithPolicy(cfg, DefaultFallbackPolicy())
}

// NewWithPolicy builds a gate with a caller-supplied fallback-phrase
// policy, so the phrase heuristic can be swapped without touching the
// rejection orchestration.
func NewWithPolicy(cfg Config, policy FallbackPolicy) *Gate {
	return &Gate{cfg: cfg, fallback: policy}
}

// Accept reports whether the answer should be shown to a user.
func (g *Gate) Accept(answer string, sources []answering.Source, ev answering.Event) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	if !g.cfg.Strict {
		return true
	}
	if utf8.RuneCountInString(answer) < g.cfg.MinAnswerLength {
		return false
	}
	if g.fallback.Matches(answer) {
		return false
	}
	if g.cfg.MinSources > 0 && len(sources) < g.cfg.MinSources {
		return false
	}
	if conf, ok := Confidence(ev, sources); ok && conf < g.cfg.MinConfidence {
		return false
	}
	return true
}
