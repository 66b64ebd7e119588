package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/channel-metrics-exporter/internal/config"
	"github.com/channel-metrics-exporter/internal/models"
	"github.com/channel-metrics-exporter/internal/service"
	"github.com/channel-metrics-exporter/internal/slack"
	"github.com/channel-metrics-exporter/internal/validation"
)

var (
	flagChannel            string
	flagToken              string
	flagOut                string
	flagIncludeBots        bool
	flagIncludeDeactivated bool
	flagOldest             string
	flagLatest             string
	flagNoHistory          bool
)

var rootCmd = &cobra.Command{
	Use:   "channel-export",
	Short: "Export per-user engagement metrics for a Slack channel to CSV",
	Long: `Exports channel membership, contact info, message counts, join
timestamps and a derived role as CSV rows. Requires a bot token with
conversations:read, users:read and users:read.email scopes (plus
channels:history / groups:history for the history scan).`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagChannel, "channel", "", "channel ID, link, mention or name (env SLACK_CHANNEL_ID)")
	rootCmd.Flags().StringVar(&flagToken, "token", "", "Slack bot token (env SLACK_BOT_TOKEN)")
	rootCmd.Flags().StringVar(&flagOut, "out", "", "output CSV path (default <channel>_metrics.csv)")
	rootCmd.Flags().BoolVar(&flagIncludeBots, "include-bots", false, "include bot users")
	rootCmd.Flags().BoolVar(&flagIncludeDeactivated, "include-deactivated", false, "include deactivated users")
	rootCmd.Flags().StringVar(&flagOldest, "oldest", "", "oldest message timestamp for the history scan")
	rootCmd.Flags().StringVar(&flagLatest, "latest", "", "latest message timestamp for the history scan")
	rootCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "skip scanning the message history")
}

func run(cmd *cobra.Command, args []string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// .env values fill in for anything not set in the real environment
	_ = godotenv.Load()

	slackCfg := config.DefaultSlackConfig()
	if flagToken != "" {
		slackCfg.BotToken = flagToken
	}
	if slackCfg.BotToken == "" {
		return fmt.Errorf("missing token: set SLACK_BOT_TOKEN or pass --token")
	}

	channel := flagChannel
	if channel == "" {
		channel = os.Getenv("SLACK_CHANNEL_ID")
	}
	if channel == "" {
		return fmt.Errorf("missing channel: set SLACK_CHANNEL_ID or pass --channel")
	}

	client := slack.NewClient(&slackCfg, log)
	ctx := context.Background()

	channelID := validation.CleanChannelID(channel)
	if !validation.LooksLikeChannelID(channelID) {
		log.Info().Str("name", channelID).Msg("Looking up channel by name")
		id, err := client.FindChannelByName(ctx, channelID)
		if err != nil {
			return fmt.Errorf("channel lookup failed: %w", err)
		}
		if id == "" {
			return fmt.Errorf("no channel named %q found; try the channel ID instead", channelID)
		}
		channelID = id
	}

	out := flagOut
	if out == "" {
		out = os.Getenv("OUTPUT_CSV")
	}
	if out == "" {
		out = validation.SafeFilenamePart(channelID) + "_metrics.csv"
	}

	cfg := &config.Config{Slack: slackCfg}
	services := service.NewServices(client, cfg, log)

	log.Info().Str("channel", channelID).Str("out", out).Msg("Exporting channel metrics")

	rows, err := services.Export.Export(ctx, models.ExportOptions{
		Channel:            channelID,
		IncludeBots:        flagIncludeBots,
		IncludeDeactivated: flagIncludeDeactivated,
		Oldest:             flagOldest,
		Latest:             flagLatest,
		ScanHistory:        !flagNoHistory,
	})
	if err != nil {
		return err
	}

	data, err := service.EncodeRows(rows)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	log.Info().Int("rows", len(rows)).Str("out", out).Msg("Export written")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
