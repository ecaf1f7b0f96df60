package gate

import (
	"strings"
	"testing"

	"github.com/iaerohq/aerobot/internal/answering"
)

func strictGate() *Gate {
	return New(Config{
		Strict:          true,
		MinSources:      1,
		MinAnswerLength: 20,
		MinConfidence:   0.35,
	})
}

func sourcesN(n int) []answering.Source {
	out := make([]answering.Source, n)
	for i := range out {
		out[i] = answering.Source{Title: "Doc", URL: "https://docs.example", Fields: map[string]any{}}
	}
	return out
}

func TestAcceptShortAnswerRejected(t *testing.T) {
	g := strictGate()
	ev := answering.Event{Data: map[string]any{"confidence": 0.99}}
	if g.Accept("too short", sourcesN(5), ev) {
		t.Fatalf("short answer accepted despite sources and confidence")
	}
}

func TestAcceptEmptyAnswerAlwaysRejected(t *testing.T) {
	permissive := New(Config{Strict: false})
	if permissive.Accept("   ", sourcesN(3), answering.Event{}) {
		t.Fatalf("blank answer accepted in permissive mode")
	}
}

func TestAcceptFallbackPhraseRejected(t *testing.T) {
	g := strictGate()
	ev := answering.Event{Data: map[string]any{"confidence": 0.9}}
	answer := "I'm not sure, please clarify your question about staking rewards"
	if g.Accept(answer, sourcesN(3), ev) {
		t.Fatalf("hedging answer accepted")
	}
}

func TestFallbackPolicyPhrases(t *testing.T) {
	policy := DefaultFallbackPolicy()
	rejected := []string{
		"I don't know the answer to that",
		"I do not know",
		"Sorry, I could not find anything relevant",
		"couldn't find any docs",
		"There is no information about this topic",
		"I'm unsure about the exact figure",
		"As an AI, I cannot speculate",
		"I don't have enough context to answer",
		"I can't help with that request",
		"Please try again later",
		"Could you rephrase your question?",
	}
	for _, s := range rejected {
		if !policy.Matches(s) {
			t.Fatalf("phrase not flagged: %q", s)
		}
	}
	accepted := []string{
		"The vault pays rewards every epoch.",
		"Staking requires a minimum of 100 tokens.",
		"Knowledge of the protocol is documented here.",
	}
	for _, s := range accepted {
		if policy.Matches(s) {
			t.Fatalf("clean answer flagged: %q", s)
		}
	}
}

func TestAcceptMinSources(t *testing.T) {
	g := strictGate()
	answer := strings.Repeat("solid answer ", 10)
	if g.Accept(answer, nil, answering.Event{}) {
		t.Fatalf("answer with zero sources accepted at min_sources=1")
	}
	if !g.Accept(answer, sourcesN(1), answering.Event{}) {
		t.Fatalf("answer with one source rejected at min_sources=1")
	}

	noSourceCheck := New(Config{Strict: true, MinSources: 0, MinAnswerLength: 20})
	if !noSourceCheck.Accept(answer, nil, answering.Event{}) {
		t.Fatalf("min_sources=0 should disable the source check")
	}
}

func TestAcceptPermissiveMode(t *testing.T) {
	g := New(Config{Strict: false, MinSources: 3, MinAnswerLength: 100, MinConfidence: 0.99})
	if !g.Accept("ok", nil, answering.Event{Data: map[string]any{"confidence": 0.01}}) {
		t.Fatalf("permissive mode rejected a non-empty answer")
	}
}

func TestAcceptConfidenceThreshold(t *testing.T) {
	g := strictGate()
	answer := strings.Repeat("useful detail ", 10)

	low := answering.Event{Data: map[string]any{"confidence": 0.2}}
	if g.Accept(answer, sourcesN(2), low) {
		t.Fatalf("confidence 0.2 accepted at min 0.35")
	}
	high := answering.Event{Data: map[string]any{"confidence": 0.6}}
	if !g.Accept(answer, sourcesN(2), high) {
		t.Fatalf("confidence 0.6 rejected at min 0.35")
	}
	absent := answering.Event{Data: map[string]any{}}
	if !g.Accept(answer, sourcesN(2), absent) {
		t.Fatalf("absent confidence must not reject on its own")
	}
}

func TestConfidenceNormalization(t *testing.T) {
	cases := []struct {
		raw  float64
		want float64
	}{
		{85, 0.85},
		{0.85, 0.85},
		{0.2, 0.2},
		{100, 1},
		{-3, 0},
	}
	for _, tc := range cases {
		ev := answering.Event{Data: map[string]any{"confidence": tc.raw}}
		got, ok := Confidence(ev, nil)
		if !ok {
			t.Fatalf("raw %v: confidence reported absent", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("raw %v: normalized = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestConfidenceFieldPriority(t *testing.T) {
	ev := answering.Event{Data: map[string]any{
		"confidence_score": 40.0,
		"score":            0.9,
	}}
	got, ok := Confidence(ev, nil)
	if !ok || got != 0.4 {
		t.Fatalf("got %v/%v, want confidence_score to win (0.4)", got, ok)
	}
}

func TestConfidenceFallsBackToSources(t *testing.T) {
	ev := answering.Event{Data: map[string]any{"answer": "x"}}
	sources := []answering.Source{
		{Fields: map[string]any{"title": "no score"}},
		{Fields: map[string]any{"similarity": 0.72}},
	}
	got, ok := Confidence(ev, sources)
	if !ok || got != 0.72 {
		t.Fatalf("got %v/%v, want source similarity 0.72", got, ok)
	}
}

func TestConfidenceAbsent(t *testing.T) {
	ev := answering.Event{Data: map[string]any{"answer": "x", "confidence": "high"}}
	if _, ok := Confidence(ev, sourcesN(1)); ok {
		t.Fatalf("non-numeric confidence treated as present")
	}
}
