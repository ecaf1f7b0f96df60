// Package format renders answers into Discord-safe messages: a rich
// embed for command replies and plain text for channel messages, both
// clamped to the platform's length limits.
package format

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/iaerohq/aerobot/internal/answering"
)

const (
	// Discord limits. The embed description hard cap is 4096; 4000
	// leaves headroom for trailing markers.
	embedAnswerLimit = 4000
	plainLimit       = 2000
	sourceBlockLimit = 1024
	maxSources       = 5

	embedColor      = 0x2563EB
	placeholderLink = "https://iaero.fi"
)

// Embed renders the rich command-reply form.
func Embed(answer string, sources []answering.Source) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Description: Truncate(answer, embedAnswerLimit),
		Color:       embedColor,
	}
	if block := sourceBlock(sources); block != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Sources",
			Value: Truncate(block, sourceBlockLimit),
		})
	}
	return embed
}

// Plain renders the channel-message form: optional author mention, the
// answer, and a source block when it still fits inside the 2000-char
// message cap. The answer always wins the budget over the sources.
func Plain(mention, answer string, sources []answering.Source) string {
	prefix := ""
	if mention != "" {
		prefix = mention + " "
	}
	body := Truncate(answer, plainLimit-len([]rune(prefix)))
	out := prefix + body

	if block := sourceBlock(sources); block != "" {
		section := "\n\n**Sources**\n" + block
		if len([]rune(out))+len([]rune(section)) <= plainLimit {
			out += section
		}
	}
	return out
}

// Minimal is the last-resort rendering used when a formatted delivery
// fails: mention plus truncated answer, nothing that can fail to render.
func Minimal(mention, answer string) string {
	prefix := ""
	if mention != "" {
		prefix = mention + " "
	}
	return prefix + Truncate(answer, plainLimit-len([]rune(prefix)))
}

func sourceBlock(sources []answering.Source) string {
	if len(sources) == 0 {
		return ""
	}
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	lines := make([]string, 0, len(sources))
	for _, src := range sources {
		title := strings.TrimSpace(src.Title)
		if title == "" {
			title = "Source"
		}
		url := strings.TrimSpace(src.URL)
		if url == "" {
			url = placeholderLink
		}
		lines = append(lines, fmt.Sprintf("- [%s](%s)", title, url))
	}
	return strings.Join(lines, "\n")
}

// Truncate clamps s to max characters, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
