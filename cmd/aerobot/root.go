package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iaerohq/aerobot/cmd/aerobot/askcmd"
	"github.com/iaerohq/aerobot/cmd/aerobot/botcmd"
	"github.com/iaerohq/aerobot/internal/conversation"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aerobot",
		Short:         "iAero support bot bridging Discord to the hosted answering service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "config file (default: ./aerobot.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "log format: text or json")

	root.AddCommand(botcmd.NewCommand(botcmd.Dependencies{LoggerFromViper: loggerFromViper}))
	root.AddCommand(askcmd.NewCommand(askcmd.Dependencies{LoggerFromViper: loggerFromViper}))
	return root
}

func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("AEROBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("answer.base_url", "")
	viper.SetDefault("answer.request_timeout", 20*time.Second)
	viper.SetDefault("gate.strict", true)
	viper.SetDefault("gate.min_sources", 1)
	viper.SetDefault("gate.min_answer_length", 40)
	viper.SetDefault("gate.min_confidence", 0.35)
	viper.SetDefault("conversation.max_entries", conversation.DefaultMaxEntries)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	if f, _ := cmd.Flags().GetString("log-level"); strings.TrimSpace(f) != "" {
		viper.Set("log.level", f)
	}
	if f, _ := cmd.Flags().GetString("log-format"); strings.TrimSpace(f) != "" {
		viper.Set("log.format", f)
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	if strings.TrimSpace(cfgFile) != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	viper.SetConfigName("aerobot")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func loggerFromViper() (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(viper.GetString("log.level"))) {
	case "", "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log.level: %s", viper.GetString("log.level"))
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(strings.TrimSpace(viper.GetString("log.format"))) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log.format: %s", viper.GetString("log.format"))
	}
}
