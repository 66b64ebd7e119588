package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/channel-metrics-exporter/internal/mocks"
	"github.com/channel-metrics-exporter/internal/models"
	"github.com/channel-metrics-exporter/internal/slack"
)

func strPtr(s string) *string { return &s }

func testUser(id, email, realName, displayName string) *slack.User {
	u := &slack.User{ID: id, Name: id}
	if email != "" || realName != "" || displayName != "" {
		u.Profile = slack.Profile{}
		if email != "" {
			u.Profile.Email = strPtr(email)
		}
		if displayName != "" {
			u.Profile.DisplayName = strPtr(displayName)
		}
	}
	if realName != "" {
		u.RealName = strPtr(realName)
	}
	return u
}

func newTestExportService(api *mocks.MockSlackAPI) *exportService {
	return newExportService(api, zerolog.Nop())
}

func TestExportMemberWithoutHistory(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.Members = []string{"U1", "U2"}
	api.Users = []slack.User{*testUser("U1", "a@x.com", "", "")}
	// U2 is absent from the directory and the fallback lookup fails.

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("Expected 1 row (U2 fallback failed), got %d", len(rows))
	}
	row := rows[0]
	if row.UserID != "U1" || row.Email != "a@x.com" {
		t.Errorf("Unexpected row: %+v", row)
	}
	if row.MessageCount != 0 {
		t.Errorf("Expected message count 0 without history scan, got %d", row.MessageCount)
	}
	if row.JoinedAt != "" {
		t.Errorf("Expected empty joined_at, got %q", row.JoinedAt)
	}
}

func TestExportFallbackLookupSucceeds(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.Members = []string{"U1", "U2"}
	api.Users = []slack.User{*testUser("U1", "a@x.com", "", "")}
	api.UserInfos["U2"] = testUser("U2", "b@x.com", "Bea B", "bea")

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	// Directory-resolved rows come first, fallback rows after.
	if rows[0].UserID != "U1" || rows[1].UserID != "U2" {
		t.Errorf("Unexpected order: %s, %s", rows[0].UserID, rows[1].UserID)
	}
	if rows[1].Email != "b@x.com" || rows[1].DisplayName != "bea" || rows[1].RealName != "Bea B" {
		t.Errorf("Unexpected fallback row: %+v", rows[1])
	}
}

func TestExportMessageClassification(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.Members = []string{"U1", "U2"}
	api.Users = []slack.User{*testUser("U1", "", "", ""), *testUser("U2", "", "", "")}
	api.Messages = []slack.Message{
		{Type: "message", User: "U1", Ts: "10.0"},
		{Type: "message", User: "U1", Ts: "11.0"},
		{Type: "message", User: "U1", Ts: "12.0", Subtype: strPtr("message_changed")},
		{Type: "message", Ts: "13.0"}, // no user: ignored
		{Type: "message", User: "U2", Ts: "100.5", Subtype: strPtr("channel_join")},
		{Type: "message", User: "U2", Ts: "50.0", Subtype: strPtr("group_join")},
	}

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1", ScanHistory: true})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	byID := map[string]models.ExportRow{}
	for _, r := range rows {
		byID[r.UserID] = r
	}

	if got := byID["U1"].MessageCount; got != 2 {
		t.Errorf("U1: expected 2 countable messages, got %d", got)
	}
	if got := byID["U1"].JoinedAt; got != "" {
		t.Errorf("U1: expected no join timestamp, got %q", got)
	}
	if got := byID["U2"].MessageCount; got != 0 {
		t.Errorf("U2: join events are not countable, got %d", got)
	}
	// Monotonic merge: the later 50.0 join must not lower the stored
	// 100.5, and the output truncates the fraction.
	if got := byID["U2"].JoinedAt; got != "100" {
		t.Errorf("U2: expected joined_at 100, got %q", got)
	}
}

func TestExportDiscoversUsersFromHistoryAlone(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.Members = nil
	api.Users = []slack.User{*testUser("U1", "a@x.com", "", "")}
	api.Messages = []slack.Message{
		{Type: "message", User: "U1", Ts: "10.0"},
		{Type: "message", User: "U1", Ts: "11.0"},
		{Type: "message", User: "U1", Ts: "12.0"},
	}

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1", ScanHistory: true})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("Expected 1 row discovered via history, got %d", len(rows))
	}
	if rows[0].UserID != "U1" || rows[0].MessageCount != 3 {
		t.Errorf("Unexpected row: %+v", rows[0])
	}
}

func TestExportFilters(t *testing.T) {
	bot := *testUser("UBOT", "", "", "")
	bot.IsBot = true
	gone := *testUser("UGONE", "", "", "")
	gone.Deleted = true

	tests := []struct {
		name    string
		opts    models.ExportOptions
		wantIDs []string
	}{
		{
			name:    "default excludes bots and deactivated",
			opts:    models.ExportOptions{Channel: "C1"},
			wantIDs: []string{"U1"},
		},
		{
			name:    "include bots",
			opts:    models.ExportOptions{Channel: "C1", IncludeBots: true},
			wantIDs: []string{"U1", "UBOT"},
		},
		{
			name:    "include deactivated",
			opts:    models.ExportOptions{Channel: "C1", IncludeDeactivated: true},
			wantIDs: []string{"U1", "UGONE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := mocks.NewMockSlackAPI()
			api.Members = []string{"U1", "UBOT", "UGONE"}
			api.Users = []slack.User{*testUser("U1", "", "", ""), bot, gone}

			svc := newTestExportService(api)
			rows, err := svc.Export(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}

			var ids []string
			for _, r := range rows {
				ids = append(ids, r.UserID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("Expected %v, got %v", tt.wantIDs, ids)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("Position %d: expected %s, got %s", i, tt.wantIDs[i], ids[i])
				}
			}
		})
	}
}

func TestExportRolePrecedence(t *testing.T) {
	admin := testUser("UADM", "", "", "")
	admin.IsAdmin = true

	api := mocks.NewMockSlackAPI()
	api.Members = []string{"UADM", "UCRE", "U1"}
	api.Users = []slack.User{*admin, *testUser("UCRE", "", "", ""), *testUser("U1", "", "", "")}
	api.Channel = &slack.Channel{ID: "C1", Name: "general", Creator: "UADM"}
	// Live admin checks resolve through users.info.
	api.UserInfos["UADM"] = admin
	api.UserInfos["UCRE"] = testUser("UCRE", "", "", "")
	api.UserInfos["U1"] = testUser("U1", "", "", "")

	// UADM is both the creator and an admin: admin wins. UCRE is plain
	// member here since the creator is UADM.
	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	roles := map[string]models.Role{}
	for _, r := range rows {
		roles[r.UserID] = r.Role
	}
	if roles["UADM"] != models.RoleWorkspaceAdmin {
		t.Errorf("Expected Workspace Admin, got %s", roles["UADM"])
	}
	if roles["UCRE"] != models.RoleMember {
		t.Errorf("Expected Member, got %s", roles["UCRE"])
	}
}

func TestExportChannelCreatorRole(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.Members = []string{"UCRE"}
	api.Users = []slack.User{*testUser("UCRE", "", "", "")}
	api.Channel = &slack.Channel{ID: "C1", Creator: "UCRE"}
	api.UserInfos["UCRE"] = testUser("UCRE", "", "", "")

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if rows[0].Role != models.RoleChannelCreator {
		t.Errorf("Expected Channel Creator, got %s", rows[0].Role)
	}
}

func TestExportRoleCheckFailureDegrades(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.Members = []string{"U1"}
	api.Users = []slack.User{*testUser("U1", "", "", "")}
	// No UserInfos entry: every users.info call fails, so the role check
	// degrades to Member instead of failing the export.

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if rows[0].Role != models.RoleMember {
		t.Errorf("Expected Member, got %s", rows[0].Role)
	}
}

func TestExportAuthFailureAborts(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.AuthErr = &slack.AuthError{Code: "invalid_auth"}
	api.Members = []string{"U1"}
	api.Users = []slack.User{*testUser("U1", "", "", "")}

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1"})

	var authErr *slack.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError, got %v", err)
	}
	if rows != nil {
		t.Errorf("Expected no rows on auth failure, got %d", len(rows))
	}
}

func TestExportMembershipFailureAborts(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.MembersErr = &slack.APIError{Endpoint: "conversations.members", Code: "channel_not_found"}

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1"})

	var apiErr *slack.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if rows != nil {
		t.Errorf("Expected no rows, got %d", len(rows))
	}
}

func TestExportCreatorLookupFailureTolerated(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.ChannelErr = &slack.APIError{Endpoint: "conversations.info", Code: "missing_scope"}
	api.Members = []string{"U1"}
	api.Users = []slack.User{*testUser("U1", "", "", "")}

	svc := newTestExportService(api)
	rows, err := svc.Export(context.Background(), models.ExportOptions{Channel: "C1"})
	if err != nil {
		t.Fatalf("Expected creator lookup failure to be tolerated, got %v", err)
	}
	if len(rows) != 1 || rows[0].Role != models.RoleMember {
		t.Errorf("Unexpected rows: %+v", rows)
	}
}

func TestExportHistoryWindowForwarded(t *testing.T) {
	api := mocks.NewMockSlackAPI()
	api.Members = []string{"U1"}
	api.Users = []slack.User{*testUser("U1", "", "", "")}

	svc := newTestExportService(api)
	_, err := svc.Export(context.Background(), models.ExportOptions{
		Channel:     "C1",
		Oldest:      "100.0",
		Latest:      "200.0",
		ScanHistory: true,
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if api.HistoryOldest != "100.0" || api.HistoryLatest != "200.0" {
		t.Errorf("Expected window to be forwarded, got oldest=%q latest=%q", api.HistoryOldest, api.HistoryLatest)
	}
}
