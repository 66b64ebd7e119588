package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/channel-metrics-exporter/internal/models"
	"github.com/channel-metrics-exporter/internal/service"
	"github.com/channel-metrics-exporter/internal/validation"
)

// CommandHandler handles the slash-command endpoint
type CommandHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(services *service.Services, log zerolog.Logger) *CommandHandler {
	return &CommandHandler{
		services: services,
		log:      log.With().Str("handler", "command").Logger(),
	}
}

// ExportChannelMetrics handles POST /slack/commands
//
// The command is only honored from a DM with the app, only for workspace
// admins/owners, and only with an explicit target channel argument. The
// request is acked immediately; the export runs in the background and
// reports through the command's response URL.
func (h *CommandHandler) ExportChannelMetrics(c *gin.Context) {
	var cmd models.SlashCommand
	if err := c.ShouldBind(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command payload"})
		return
	}

	if !cmd.FromDirectMessage() {
		ephemeral(c,
			"For safety, this command can only be run in a *DM with me*.\n"+
				"Open a DM with the app and run:\n"+
				"`/export-channel-metrics #your-channel`")
		return
	}

	isAdmin, err := h.services.Command.IsAdmin(c.Request.Context(), cmd.UserID)
	if err != nil {
		h.log.Warn().Err(err).Str("user", cmd.UserID).Msg("Admin verification failed")
		ephemeral(c, "Could not verify your admin status. Please try again, or contact an admin.")
		return
	}
	if !isAdmin {
		ephemeral(c, "Sorry—this command is restricted to *workspace admins/owners*.")
		return
	}

	if strings.TrimSpace(cmd.Text) == "" {
		ephemeral(c, "Usage: `/export-channel-metrics #some-channel`")
		return
	}
	channelID := validation.CleanChannelID(cmd.Text)

	h.log.Info().
		Str("user", cmd.UserID).
		Str("channel", channelID).
		Str("request_id", c.GetString("request_id")).
		Msg("Export command accepted")

	ephemeral(c, "Working on it… exporting metrics for <#"+channelID+">. This may take a bit for large channels.")

	// Detached from the request context: the export outlives the ack.
	go h.services.Command.RunExport(context.Background(), &cmd, channelID)
}

// ephemeral writes the immediate slash-command response only the invoking
// user sees.
func ephemeral(c *gin.Context, text string) {
	c.JSON(http.StatusOK, gin.H{
		"response_type": "ephemeral",
		"text":          text,
	})
}
