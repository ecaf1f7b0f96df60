// Package botcmd runs the long-lived Discord bridge.
package botcmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iaerohq/aerobot/internal/answering"
	"github.com/iaerohq/aerobot/internal/configutil"
	"github.com/iaerohq/aerobot/internal/conversation"
	"github.com/iaerohq/aerobot/internal/discordbridge"
	"github.com/iaerohq/aerobot/internal/gate"
	"github.com/iaerohq/aerobot/internal/healthcheck"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Discord bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(viper.GetString("discord.token"))
			if token == "" {
				return fmt.Errorf("missing discord.token (set AEROBOT_DISCORD_TOKEN)")
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

			gateCfg := gateConfigFromViper(cmd)
			ambientChannels := configutil.FlagOrViperStringArray(cmd, "ambient-channel-id", "discord.ambient_channel_ids")
			guildID := strings.TrimSpace(configutil.FlagOrViperString(cmd, "guild-id", "discord.guild_id"))

			tracker, err := conversation.NewTracker(viper.GetInt("conversation.max_entries"))
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

			session, err := discordgo.New("Bot " + token)
			if err != nil {
				return fmt.Errorf("discord session: %w", err)
			}
			session.Identify.Intents = discordgo.IntentsGuilds |
				discordgo.IntentsGuildMessages |
				discordgo.IntentsMessageContent

			if err := session.Open(); err != nil {
				return fmt.Errorf("discord open: %w", err)
			}
			defer func() { _ = session.Close() }()

			if session.State.User == nil {
				return fmt.Errorf("discord session has no bot user after open")
			}
			botUserID := session.State.User.ID

			// clear and re-publish the slash-command schema
			if _, err := session.ApplicationCommandBulkOverwrite(botUserID, guildID, discordbridge.Commands()); err != nil {
				return fmt.Errorf("register commands: %w", err)
			}

			bridge, err := discordbridge.New(discordbridge.Options{
				Logger:          logger,
				Session:         session,
				Answerer:        client,
				Tracker:         tracker,
				Gate:            gate.New(gateCfg),
				BotUserID:       botUserID,
				AmbientChannels: ambientChannels,
			})
			if err != nil {
				return err
			}

			session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
				bridge.HandleMessage(cmd.Context(), m)
			})
			session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
				bridge.HandleInteraction(cmd.Context(), ic)
			})

			healthListen := healthcheck.NormalizeListen(configutil.FlagOrViperString(cmd, "health-listen", "health.listen"))
			if healthListen != "" {
				healthServer, err := healthcheck.StartServer(cmd.Context(), logger, healthListen, "bot")
				if err != nil {
					logger.Warn("bot_health_server_start_error", "addr", healthListen, "error", err.Error())
				} else {
					defer func() {
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
						_ = healthServer.Shutdown(shutdownCtx)
						cancel()
					}()
				}
			}

			logger.Info("bot_start",
				"bot_user_id", botUserID,
				"guild_id", guildID,
				"ambient_channel_ids", len(ambientChannels),
				"gate_strict", gateCfg.Strict,
				"gate_min_sources", gateCfg.MinSources,
				"gate_min_answer_length", gateCfg.MinAnswerLength,
				"gate_min_confidence", gateCfg.MinConfidence,
			)

			<-cmd.Context().Done()
			logger.Info("bot_stop", "reason", "context_canceled")
			return nil
		},
	}

	cmd.Flags().String("guild-id", "", "guild to publish slash commands in (empty: global)")
	cmd.Flags().StringArray("ambient-channel-id", nil, "channel id treated as ambient (repeatable)")
	cmd.Flags().String("health-listen", "", "health endpoint listen address (empty: disabled)")
	addGateFlags(cmd)
	return cmd
}

func addGateFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("gate-strict", true, "filter low-confidence answers")
	cmd.Flags().Int("gate-min-sources", 1, "minimum usable sources (0 disables)")
	cmd.Flags().Int("gate-min-answer-length", 40, "minimum answer length in characters")
	cmd.Flags().Float64("gate-min-confidence", 0.35, "minimum normalized confidence (0-1)")
}

func gateConfigFromViper(cmd *cobra.Command) gate.Config {
	cfg := gate.Config{
		Strict:          configutil.FlagOrViperBool(cmd, "gate-strict", "gate.strict"),
		MinSources:      configutil.FlagOrViperInt(cmd, "gate-min-sources", "gate.min_sources"),
		MinAnswerLength: configutil.FlagOrViperInt(cmd, "gate-min-answer-length", "gate.min_answer_length"),
		MinConfidence:   configutil.FlagOrViperFloat64(cmd, "gate-min-confidence", "gate.min_confidence"),
	}
	if cfg.MinConfidence < 0 {
		cfg.MinConfidence = 0
	}
	if cfg.MinConfidence > 1 {
		cfg.MinConfidence = 1
	}
	return cfg
}
