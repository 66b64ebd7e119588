package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/channel-metrics-exporter/internal/config"
	"github.com/channel-metrics-exporter/internal/models"
	"github.com/channel-metrics-exporter/internal/slack"
)

// SlackAPI is the surface of the Slack client the services consume.
// *slack.Client satisfies it; tests substitute a mock.
type SlackAPI interface {
	AuthTest(ctx context.Context) error
	ChannelInfo(ctx context.Context, channelID string) (*slack.Channel, error)
	ChannelMembers(ctx context.Context, channelID string) ([]string, error)
	ListUsers(ctx context.Context, fn func(slack.User) error) error
	UserInfo(ctx context.Context, userID string) (*slack.User, error)
	History(ctx context.Context, channelID, oldest, latest string, fn func(slack.Message) error) error
	UploadFile(ctx context.Context, channelID, filename, title, comment string, content []byte) error
}

// ExportService defines the interface for metrics export operations
type ExportService interface {
	Export(ctx context.Context, opts models.ExportOptions) ([]models.ExportRow, error)
}

// CommandService defines the interface for slash-command orchestration
type CommandService interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	RunExport(ctx context.Context, cmd *models.SlashCommand, channelID string)
}

// Services holds all service interfaces
type Services struct {
	Export  ExportService
	Command CommandService
}

// NewServices creates all services
func NewServices(api SlackAPI, cfg *config.Config, log zerolog.Logger) *Services {
	exportSvc := newExportService(api, log)
	commandSvc := newCommandService(api, exportSvc, cfg, log)

	return &Services{
		Export:  exportSvc,
		Command: commandSvc,
	}
}
