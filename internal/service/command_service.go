package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/channel-metrics-exporter/internal/config"
	"github.com/channel-metrics-exporter/internal/models"
	"github.com/channel-metrics-exporter/internal/slack"
	"github.com/channel-metrics-exporter/internal/validation"
)

// Responder posts an ephemeral text message back to a slash command's
// response URL.
type Responder func(responseURL, text string) error

// commandService is the concrete implementation of CommandService
type commandService struct {
	api     SlackAPI
	export  ExportService
	cfg     *config.ExportConfig
	respond Responder
	log     zerolog.Logger
}

// newCommandService creates a new CommandService
func newCommandService(api SlackAPI, export ExportService, cfg *config.Config, log zerolog.Logger) *commandService {
	return &commandService{
		api:     api,
		export:  export,
		cfg:     &cfg.Export,
		respond: postResponse,
		log:     log.With().Str("service", "command").Logger(),
	}
}

// IsAdmin reports whether the user carries a workspace admin/owner flag
func (s *commandService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	u, err := s.api.UserInfo(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.Admin(), nil
}

// RunExport performs the full export-and-upload pipeline for a slash
// command. The handler has already acked Slack, so every outcome here is
// delivered through the command's response URL.
func (s *commandService) RunExport(ctx context.Context, cmd *models.SlashCommand, channelID string) {
	exportID := uuid.NewString()
	log := s.log.With().Str("export_id", exportID).Str("channel", channelID).Logger()
	log.Info().Str("user", cmd.UserID).Msg("Slash command export started")

	rows, err := s.export.Export(ctx, models.ExportOptions{
		Channel:            channelID,
		IncludeBots:        s.cfg.IncludeBots,
		IncludeDeactivated: s.cfg.IncludeDeactivated,
		ScanHistory:        s.cfg.ScanHistory,
	})
	if err != nil {
		log.Error().Err(err).Msg("Export failed")
		s.notify(cmd.ResponseURL, exportFailureMessage(err))
		return
	}

	data, err := EncodeRows(rows)
	if err != nil {
		log.Error().Err(err).Msg("Encoding failed")
		s.notify(cmd.ResponseURL, "Export failed due to an unexpected error while encoding the CSV.")
		return
	}

	filename := s.filename(ctx, channelID)

	// Upload into the DM where the command was run, never the target
	// channel.
	err = s.api.UploadFile(ctx, cmd.ChannelID, filename, filename,
		fmt.Sprintf("Here are the metrics for <#%s>", channelID), data)
	if err != nil {
		log.Error().Err(err).Msg("Upload failed")
		s.notify(cmd.ResponseURL,
			"Export succeeded, but uploading the CSV failed.\n"+
				"- Ensure the app has `files:write` scope and is allowed to post in this channel.")
		return
	}

	log.Info().Int("rows", len(rows)).Str("filename", filename).Msg("Export uploaded")
	s.notify(cmd.ResponseURL, fmt.Sprintf("Done. Uploaded `%s`.", filename))
}

func (s *commandService) filename(ctx context.Context, channelID string) string {
	ts := time.Now().Unix()
	if ch, err := s.api.ChannelInfo(ctx, channelID); err == nil && ch.Name != "" {
		return fmt.Sprintf("%s_metrics_%d.csv", validation.SafeFilenamePart(ch.Name), ts)
	}
	return fmt.Sprintf("%s_metrics_%d.csv", channelID, ts)
}

func (s *commandService) notify(responseURL, text string) {
	if responseURL == "" {
		return
	}
	if err := s.respond(responseURL, text); err != nil {
		s.log.Warn().Err(err).Msg("Failed to post command response")
	}
}

// exportFailureMessage translates the error taxonomy into user-facing
// advice without exposing internals.
func exportFailureMessage(err error) string {
	var rateErr *slack.RateLimitError
	if errors.As(err, &rateErr) {
		return "Export failed: the API kept rate limiting us. Please try again later."
	}
	var authErr *slack.AuthError
	if errors.As(err, &authErr) {
		return "Export failed: the bot token was rejected. Check the app's installation."
	}
	var apiErr *slack.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf(
			"Export failed.\n"+
				"- Error: `%s`\n"+
				"- If this is a private channel, invite the bot to the channel.\n"+
				"- If you see `missing_scope`, add the required scopes and reinstall the app.",
			apiErr.Code)
	}
	return "Export failed due to a network error. Please try again."
}

// postResponse is the default Responder, posting an ephemeral message as
// Slack expects on response_url.
func postResponse(responseURL, text string) error {
	payload, err := json.Marshal(map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	})
	if err != nil {
		return err
	}
	resp, err := http.Post(responseURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("response_url returned status %d", resp.StatusCode)
	}
	return nil
}
