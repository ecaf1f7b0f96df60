// Package discordbridge wires Discord events to the answering pipeline:
// classifier, conversation tracker, answering client, confidence gate
// and formatter. One failing event never takes the process down.
package discordbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/iaerohq/aerobot/internal/answering"
	"github.com/iaerohq/aerobot/internal/classifier"
	"github.com/iaerohq/aerobot/internal/conversation"
	"github.com/iaerohq/aerobot/internal/format"
	"github.com/iaerohq/aerobot/internal/gate"
)

const (
	// NoConfidentAnswerNotice is what the command path shows when the
	// gate rejects or the answering service fails. The ambient path
	// stays silent instead.
	NoConfidentAnswerNotice = "I couldn't find a confident answer for that one. Consider rewording your question or opening a support ticket."

	ResetNotice = "Conversation reset. Your next question starts a fresh dialogue."

	maxQuestionLength = 500
)

// Answerer is the outbound question-answering collaborator.
type Answerer interface {
	Ask(ctx context.Context, question, conversationID string) (answering.Answer, error)
}

// Session is the slice of the Discord client the bridge needs. A real
// *discordgo.Session satisfies it.
type Session interface {
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Options struct {
	Logger          *slog.Logger
	Session         Session
	Answerer        Answerer
	Tracker         *conversation.Tracker
	Gate            *gate.Gate
	BotUserID       string
	AmbientChannels []string
}

type Bridge struct {
	logger          *slog.Logger
	session         Session
	answerer        Answerer
	tracker         *conversation.Tracker
	gate            *gate.Gate
	botUserID       string
	ambientChannels map[string]bool
}

func New(opts Options) (*Bridge, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if opts.Answerer == nil {
		return nil, fmt.Errorf("answerer is required")
	}
	if opts.Tracker == nil {
		return nil, fmt.Errorf("conversation tracker is required")
	}
	if opts.Gate == nil {
		return nil, fmt.Errorf("gate is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// the allow-list may arrive as one comma-separated env value
	ambient := make(map[string]bool, len(opts.AmbientChannels))
	for _, entry := range opts.AmbientChannels {
		for _, id := range strings.Split(entry, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				ambient[id] = true
			}
		}
	}
	return &Bridge{
		logger:          logger,
		session:         opts.Session,
		answerer:        opts.Answerer,
		tracker:         opts.Tracker,
		gate:            opts.Gate,
		botUserID:       strings.TrimSpace(opts.BotUserID),
		ambientChannels: ambient,
	}, nil
}

// Commands is the slash-command schema published at startup.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ask",
			Description: "Ask the iAero knowledge base a question",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "question",
					Description: "Your question",
					Required:    true,
					MaxLength:   maxQuestionLength,
				},
			},
		},
		{
			Name:        "reset",
			Description: "Start a fresh conversation with the knowledge base",
		},
	}
}

// HandleInteraction processes slash-command invocations.
func (b *Bridge) HandleInteraction(ctx context.Context, ic *discordgo.InteractionCreate) {
	defer b.recoverEvent("interaction")

	if ic == nil || ic.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := ic.ApplicationCommandData()
	switch data.Name {
	case "ask":
		b.handleAsk(ctx, ic, data)
	case "reset":
		b.handleReset(ic)
	default:
		b.logger.Warn("unknown_command", "name", data.Name)
	}
}

func (b *Bridge) handleAsk(ctx context.Context, ic *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	question := ""
	for _, opt := range data.Options {
		if opt.Name == "question" {
			question = opt.StringValue()
		}
	}
	question = format.Truncate(strings.TrimSpace(question), maxQuestionLength)
	if question == "" {
		b.respondEphemeral(ic, "Please provide a question.")
		return
	}

	if err := b.session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.logger.Warn("interaction_defer_error", "error", err.Error())
		return
	}

	userID := interactionUserID(ic)
	answer, ok := b.resolve(ctx, userID, question)
	if !ok {
		b.editDeferred(ic, &discordgo.WebhookEdit{Content: ptr(NoConfidentAnswerNotice)})
		return
	}

	embed := format.Embed(answer.Text, answer.Sources)
	if _, err := b.session.InteractionResponseEdit(ic.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}); err != nil {
		b.logger.Warn("interaction_edit_error", "error", err.Error())
		// minimal fallback: plain content instead of the embed
		b.editDeferred(ic, &discordgo.WebhookEdit{
			Content: ptr(format.Minimal("", answer.Text)),
		})
	}
}

func (b *Bridge) handleReset(ic *discordgo.InteractionCreate) {
	userID := interactionUserID(ic)
	had := b.tracker.Reset(userID)
	b.logger.Info("conversation_reset", "user_id", userID, "had_conversation", had)
	b.respondEphemeral(ic, ResetNotice)
}

// HandleMessage processes channel messages: direct mentions anywhere,
// ambient messages only in allow-listed channels and only when the
// classifier thinks they are questions.
func (b *Bridge) HandleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	defer b.recoverEvent("message")

	if m == nil || m.Author == nil || m.Author.Bot || m.Author.ID == b.botUserID {
		return
	}

	if b.isMentioned(m) {
		question := stripMention(m.Content, b.botUserID)
		if question == "" {
			return
		}
		b.answerInChannel(ctx, m, question, true)
		return
	}

	if !b.ambientChannels[m.ChannelID] {
		return
	}
	if !classifier.IsLikelyQuestion(m.Content) {
		return
	}
	b.answerInChannel(ctx, m, strings.TrimSpace(m.Content), false)
}

// answerInChannel runs the pipeline for a channel message. explicit
// marks the direct-mention path, which reports failures; the ambient
// path drops them silently.
func (b *Bridge) answerInChannel(ctx context.Context, m *discordgo.MessageCreate, question string, explicit bool) {
	if err := b.session.ChannelTyping(m.ChannelID); err != nil {
		b.logger.Debug("typing_error", "channel_id", m.ChannelID, "error", err.Error())
	}

	answer, ok := b.resolve(ctx, m.Author.ID, question)
	if !ok {
		if explicit {
			b.sendPlain(m.ChannelID, m.Author.Mention(), NoConfidentAnswerNotice, nil)
		}
		return
	}
	b.sendPlain(m.ChannelID, m.Author.Mention(), answer.Text, answer.Sources)
}

// resolve asks the answering service on the user's conversation and
// gates the result. All failures collapse to (zero, false); callers
// decide whether that is a notice or silence.
func (b *Bridge) resolve(ctx context.Context, userID, question string) (answering.Answer, bool) {
	conversationID := b.tracker.GetOrCreate(userID)
	answer, err := b.answerer.Ask(ctx, question, conversationID)
	if err != nil {
		if errors.Is(err, answering.ErrNoAnswer) {
			b.logger.Info("ask_no_answer", "user_id", userID)
		} else {
			b.logger.Warn("ask_api_error", "user_id", userID, "error", err.Error())
		}
		return answering.Answer{}, false
	}
	if !b.gate.Accept(answer.Text, answer.Sources, answer.Event) {
		b.logger.Info("gate_rejected",
			"user_id", userID,
			"event_kind", answer.Event.Kind,
			"answer_length", len(answer.Text),
			"source_count", len(answer.Sources),
		)
		return answering.Answer{}, false
	}
	return answer, true
}

// sendPlain delivers a formatted plain message, retrying once with the
// minimal rendering. A second failure is logged and dropped.
func (b *Bridge) sendPlain(channelID, mention, answer string, sources []answering.Source) {
	_, err := b.session.ChannelMessageSend(channelID, format.Plain(mention, answer, sources))
	if err == nil {
		return
	}
	b.logger.Warn("send_error", "channel_id", channelID, "error", err.Error())
	if _, err := b.session.ChannelMessageSend(channelID, format.Minimal(mention, answer)); err != nil {
		b.logger.Error("send_fallback_error", "channel_id", channelID, "error", err.Error())
	}
}

func (b *Bridge) respondEphemeral(ic *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("interaction_respond_error", "error", err.Error())
	}
}

func (b *Bridge) editDeferred(ic *discordgo.InteractionCreate, edit *discordgo.WebhookEdit) {
	if _, err := b.session.InteractionResponseEdit(ic.Interaction, edit); err != nil {
		b.logger.Error("interaction_fallback_error", "error", err.Error())
	}
}

func (b *Bridge) recoverEvent(kind string) {
	if r := recover(); r != nil {
		b.logger.Error("handler_panic", "event", kind, "panic", fmt.Sprint(r))
	}
}

func (b *Bridge) isMentioned(m *discordgo.MessageCreate) bool {
	for _, u := range m.Mentions {
		if u != nil && u.ID == b.botUserID {
			return true
		}
	}
	return false
}

func stripMention(content, botUserID string) string {
	content = strings.ReplaceAll(content, "<@"+botUserID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botUserID+">", "")
	return strings.TrimSpace(content)
}

func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

func ptr[T any](v T) *T {
	return &v
}
