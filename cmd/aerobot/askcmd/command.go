// Package askcmd runs one question through the answering pipeline from
// the terminal, for checking credentials and gate tuning without a
// Discord connection.
package askcmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iaerohq/aerobot/internal/answering"
	"github.com/iaerohq/aerobot/internal/conversation"
	"github.com/iaerohq/aerobot/internal/discordbridge"
	"github.com/iaerohq/aerobot/internal/format"
	"github.com/iaerohq/aerobot/internal/gate"
)

type Dependencies struct {
	LoggerFromViper func() (*slog.Logger, error)
}

var deps Dependencies

func NewCommand(d Dependencies) *cobra.Command {
	deps = d
	return newAskCmd()
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question from the console",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}
			teamID := strings.TrimSpace(viper.GetString("answer.team_id"))
			if teamID == "" {
				return fmt.Errorf("missing answer.team_id (set AEROBOT_ANSWER_TEAM_ID)")
			}
			botID := strings.TrimSpace(viper.GetString("answer.bot_id"))
			if botID == "" {
				return fmt.Errorf("missing answer.bot_id (set AEROBOT_ANSWER_BOT_ID)")
			}
			apiKey := strings.TrimSpace(viper.GetString("answer.api_key"))
			if apiKey == "" {
				return fmt.Errorf("missing answer.api_key (set AEROBOT_ANSWER_API_KEY)")
			}

			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			tracker, err := conversation.NewTracker(1)
			if err != nil {
				return err
			}
			client := answering.NewClient(
				&http.Client{},
				viper.GetString("answer.base_url"),
				teamID,
				botID,
				apiKey,
				viper.GetDuration("answer.request_timeout"),
			)
			g := gate.New(gate.Config{
				Strict:          viper.GetBool("gate.strict"),
				MinSources:      viper.GetInt("gate.min_sources"),
				MinAnswerLength: viper.GetInt("gate.min_answer_length"),
				MinConfidence:   viper.GetFloat64("gate.min_confidence"),
			})

			conversationID := tracker.GetOrCreate("console")
			answer, err := client.Ask(cmd.Context(), question, conversationID)
			if err != nil {
				logger.Info("console_ask_failed", "error", err.Error())
				fmt.Fprintln(cmd.OutOrStdout(), discordbridge.NoConfidentAnswerNotice)
				return nil
			}
			if !g.Accept(answer.Text, answer.Sources, answer.Event) {
				logger.Info("console_gate_rejected",
					"event_kind", answer.Event.Kind,
					"source_count", len(answer.Sources),
				)
				fmt.Fprintln(cmd.OutOrStdout(), discordbridge.NoConfidentAnswerNotice)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), format.Plain("", answer.Text, answer.Sources))
			return nil
		},
	}
}

func loggerFromViper() (*slog.Logger, error) {
	if deps.LoggerFromViper == nil {
		return nil, fmt.Errorf("LoggerFromViper dependency missing")
	}
	return deps.LoggerFromViper()
}
