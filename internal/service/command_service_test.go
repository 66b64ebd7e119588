package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/channel-metrics-exporter/internal/config"
	"github.com/channel-metrics-exporter/internal/mocks"
	"github.com/channel-metrics-exporter/internal/models"
	"github.com/channel-metrics-exporter/internal/slack"
)

func newTestCommandService(api *mocks.MockSlackAPI, export ExportService) (*commandService, *[]string) {
	cfg := &config.Config{
		Export: config.ExportConfig{ScanHistory: true},
	}
	svc := newCommandService(api, export, cfg, zerolog.Nop())
	var responses []string
	svc.respond = func(url, text string) error {
		responses = append(responses, text)
		return nil
	}
	return svc, &responses
}

func dmCommand() *models.SlashCommand {
	return &models.SlashCommand{
		Command:     "/export-channel-metrics",
		UserID:      "UADM",
		ChannelID:   "D999",
		ChannelName: "directmessage",
		ResponseURL: "https://hooks.example.com/r1",
	}
}

func TestIsAdmin(t *testing.T) {
	admin := &slack.User{ID: "UADM", IsOwner: true}
	api := mocks.NewMockSlackAPI()
	api.UserInfos["UADM"] = admin

	svc, _ := newTestCommandService(api, mocks.NewMockExportService())

	ok, err := svc.IsAdmin(context.Background(), "UADM")
	if err != nil || !ok {
		t.Errorf("Expected admin, got ok=%v err=%v", ok, err)
	}

	// Unknown user: lookup fails, surfaced to the handler.
	if _, err := svc.IsAdmin(context.Background(), "UNOPE"); err == nil {
		t.Error("Expected error for failed lookup")
	}
}

func TestRunExportUploadsToCommandDM(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.Channel = &slack.Channel{ID: "C1", Name: "our team!"}
	export := mocks.NewMockExportService()
	export.Rows = []models.ExportRow{{UserID: "U1", Role: models.RoleMember}}

	svc, responses := newTestCommandService(api, export)
	svc.RunExport(context.Background(), dmCommand(), "C1")

	if len(export.Calls) != 1 {
		t.Fatalf("Expected 1 export call, got %d", len(export.Calls))
	}
	if !export.Calls[0].ScanHistory {
		t.Error("Expected history scan enabled from config")
	}
	if export.Calls[0].Channel != "C1" {
		t.Errorf("Expected target channel C1, got %s", export.Calls[0].Channel)
	}

	if len(api.Uploads) != 1 {
		t.Fatalf("Expected 1 upload, got %d", len(api.Uploads))
	}
	up := api.Uploads[0]
	// The CSV goes to the DM where the command ran, never to the target.
	if up.ChannelID != "D999" {
		t.Errorf("Expected upload to D999, got %s", up.ChannelID)
	}
	if !strings.HasPrefix(up.Filename, "our_team_metrics_") || !strings.HasSuffix(up.Filename, ".csv") {
		t.Errorf("Unexpected filename %q", up.Filename)
	}
	if !strings.Contains(string(up.Content), "user_id,") {
		t.Errorf("Expected CSV content, got %q", string(up.Content))
	}

	if len(*responses) != 1 || !strings.Contains((*responses)[0], "Done.") {
		t.Errorf("Expected completion response, got %v", *responses)
	}
}

func TestRunExportFilenameFallsBackToChannelID(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.ChannelErr = &slack.APIError{Endpoint: "conversations.info", Code: "missing_scope"}
	export := mocks.NewMockExportService()

	svc, _ := newTestCommandService(api, export)
	svc.RunExport(context.Background(), dmCommand(), "C42")

	if len(api.Uploads) != 1 {
		t.Fatalf("Expected 1 upload, got %d", len(api.Uploads))
	}
	if !strings.HasPrefix(api.Uploads[0].Filename, "C42_metrics_") {
		t.Errorf("Expected channel-ID filename, got %q", api.Uploads[0].Filename)
	}
}

func TestRunExportFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limit exhausted",
			err:  &slack.RateLimitError{Endpoint: "users.list", Attempts: 8},
			want: "try again later",
		},
		{
			name: "auth rejected",
			err:  &slack.AuthError{Code: "invalid_auth"},
			want: "token was rejected",
		},
		{
			name: "api error carries code",
			err:  &slack.APIError{Endpoint: "conversations.members", Code: "missing_scope"},
			want: "missing_scope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := mocks.NewMockSlackAPI()
			export := mocks.NewMockExportService()
			export.ExportErr = tt.err

			svc, responses := newTestCommandService(api, export)
			svc.RunExport(context.Background(), dmCommand(), "C1")

			if len(api.Uploads) != 0 {
				t.Errorf("Expected no upload on failure")
			}
			if len(*responses) != 1 || !strings.Contains((*responses)[0], tt.want) {
				t.Errorf("Expected response containing %q, got %v", tt.want, *responses)
			}
		})
	}
}

func TestRunExportUploadFailureReported(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.UploadErr = &slack.APIError{Endpoint: "files.upload", Code: "not_in_channel"}
	export := mocks.NewMockExportService()

	svc, responses := newTestCommandService(api, export)
	svc.RunExport(context.Background(), dmCommand(), "C1")

	if len(*responses) != 1 || !strings.Contains((*responses)[0], "uploading the CSV failed") {
		t.Errorf("Expected upload failure response, got %v", *responses)
	}
}
