package format

import (
	"strings"
	"testing"

	"github.com/iaerohq/aerobot/internal/answering"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Fatalf("Truncate() = %q, want unchanged", got)
	}
	got := Truncate(strings.Repeat("a", 50), 10)
	if len([]rune(got)) != 10 {
		t.Fatalf("truncated length = %d, want 10", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated string missing ellipsis: %q", got)
	}
	if Truncate("anything", 0) != "" {
		t.Fatalf("max 0 should produce empty string")
	}
}

func TestEmbedIncludesAnswerAndSources(t *testing.T) {
	sources := []answering.Source{
		{Title: "Vault docs", URL: "https://docs.iaero.fi/vault"},
		{URL: "https://docs.iaero.fi/staking"},
		{Title: "Untitled link"},
	}
	embed := Embed("The reward vault distributes staking yield per epoch.", sources)
	if embed.Description != "The reward vault distributes staking yield per epoch." {
		t.Fatalf("description = %q", embed.Description)
	}
	if len(embed.Fields) != 1 || embed.Fields[0].Name != "Sources" {
		t.Fatalf("fields = %#v", embed.Fields)
	}
	block := embed.Fields[0].Value
	if !strings.Contains(block, "[Vault docs](https://docs.iaero.fi/vault)") {
		t.Fatalf("missing titled source: %q", block)
	}
	if !strings.Contains(block, "[Source](https://docs.iaero.fi/staking)") {
		t.Fatalf("missing fallback title: %q", block)
	}
	if !strings.Contains(block, "[Untitled link]("+placeholderLink+")") {
		t.Fatalf("missing placeholder link: %q", block)
	}
}

func TestEmbedTruncatesLongAnswer(t *testing.T) {
	embed := Embed(strings.Repeat("x", 5000), nil)
	if got := len([]rune(embed.Description)); got != embedAnswerLimit {
		t.Fatalf("description length = %d, want %d", got, embedAnswerLimit)
	}
	if len(embed.Fields) != 0 {
		t.Fatalf("no sources should mean no fields, got %#v", embed.Fields)
	}
}

func TestEmbedCapsSourceCountAndBlock(t *testing.T) {
	var sources []answering.Source
	for i := 0; i < 12; i++ {
		sources = append(sources, answering.Source{
			Title: strings.Repeat("t", 200),
			URL:   "https://docs.iaero.fi/page",
		})
	}
	embed := Embed("answer", sources)
	block := embed.Fields[0].Value
	if got := strings.Count(block, "\n") + 1; got > maxSources {
		t.Fatalf("source lines = %d, want at most %d", got, maxSources)
	}
	if got := len([]rune(block)); got > sourceBlockLimit {
		t.Fatalf("source block length = %d, want at most %d", got, sourceBlockLimit)
	}
}

func TestPlainFitsMessageCap(t *testing.T) {
	mention := "<@123456789>"
	sources := []answering.Source{{Title: "Docs", URL: "https://docs.iaero.fi"}}
	out := Plain(mention, strings.Repeat("y", 3000), sources)
	if got := len([]rune(out)); got > plainLimit {
		t.Fatalf("plain message length = %d, want at most %d", got, plainLimit)
	}
	if !strings.HasPrefix(out, mention+" ") {
		t.Fatalf("missing mention prefix: %q", out[:30])
	}
	// answer consumed the budget, sources must have been dropped
	if strings.Contains(out, "Sources") {
		t.Fatalf("sources kept despite exhausted budget")
	}
}

func TestPlainIncludesSourcesWhenRoomRemains(t *testing.T) {
	sources := []answering.Source{
		{Title: "Docs", URL: "https://docs.iaero.fi"},
		{Title: "FAQ", URL: "https://docs.iaero.fi/faq"},
	}
	out := Plain("<@1>", "Short answer.", sources)
	if !strings.Contains(out, "**Sources**") {
		t.Fatalf("missing source section: %q", out)
	}
	if !strings.Contains(out, "[FAQ](https://docs.iaero.fi/faq)") {
		t.Fatalf("missing source line: %q", out)
	}
}

func TestMinimal(t *testing.T) {
	out := Minimal("<@1>", strings.Repeat("z", 2500))
	if got := len([]rune(out)); got > plainLimit {
		t.Fatalf("minimal message length = %d, want at most %d", got, plainLimit)
	}
	if !strings.HasPrefix(out, "<@1> ") {
		t.Fatalf("missing mention: %q", out[:10])
	}
}
