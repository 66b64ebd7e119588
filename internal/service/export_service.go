package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/channel-metrics-exporter/internal/models"
	"github.com/channel-metrics-exporter/internal/slack"
)

// joinSubtypes are the message subtypes that mark a user joining a channel
var joinSubtypes = map[string]bool{
	"channel_join": true,
	"group_join":   true,
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	api SlackAPI
	log zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(api SlackAPI, log zerolog.Logger) *exportService {
	return &exportService{
		api: api,
		log: log.With().Str("service", "export").Logger(),
	}
}

// Export aggregates membership, the user directory and (optionally) the
// message history of a channel into one ordered row set.
//
// It either returns the complete row set or fails before producing any
// rows: an error from the credential check, channel membership fetch,
// directory build or history scan aborts the whole export. Only the
// per-user fallback lookup is allowed to fail softly, skipping that user.
func (s *exportService) Export(ctx context.Context, opts models.ExportOptions) ([]models.ExportRow, error) {
	s.log.Info().
		Str("channel", opts.Channel).
		Bool("scan_history", opts.ScanHistory).
		Msg("Starting export")

	if err := s.api.AuthTest(ctx); err != nil {
		return nil, err
	}

	// The creator is only used for role resolution; a channel we cannot
	// inspect still exports, with nobody marked as its creator.
	creatorID := ""
	if ch, err := s.api.ChannelInfo(ctx, opts.Channel); err == nil {
		creatorID = ch.Creator
	} else {
		s.log.Warn().Err(err).Str("channel", opts.Channel).Msg("Could not resolve channel creator")
	}

	members, err := s.api.ChannelMembers(ctx, opts.Channel)
	if err != nil {
		return nil, err
	}

	directory, err := s.buildDirectory(ctx)
	if err != nil {
		return nil, err
	}

	stats := models.NewHistoryStats()
	if opts.ScanHistory {
		stats, err = s.scanHistory(ctx, opts.Channel, opts.Oldest, opts.Latest)
		if err != nil {
			return nil, err
		}
	}

	// Candidates are members first, then users discovered only through
	// history, each exactly once.
	ordered := make([]string, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, id := range members {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	for _, id := range stats.Seen {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}

	rows := make([]models.ExportRow, 0, len(ordered))
	var missing []string

	for _, id := range ordered {
		ident, ok := directory[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if row, ok := s.buildRow(ctx, &ident, creatorID, stats, &opts); ok {
			rows = append(rows, row)
		}
	}

	// Second pass: users absent from the directory get an individual
	// lookup. A failed lookup skips that user, never the export.
	for _, id := range missing {
		u, err := s.api.UserInfo(ctx, id)
		if err != nil {
			s.log.Debug().Err(err).Str("user", id).Msg("Fallback lookup failed, skipping")
			continue
		}
		ident := u.Identity()
		if row, ok := s.buildRow(ctx, &ident, creatorID, stats, &opts); ok {
			rows = append(rows, row)
		}
	}

	s.log.Info().Int("rows", len(rows)).Str("channel", opts.Channel).Msg("Export completed")
	return rows, nil
}

// buildDirectory pages through the full workspace directory. No filtering
// happens here; bots and deactivated accounts are dropped later so the
// inclusion flags stay in one place.
func (s *exportService) buildDirectory(ctx context.Context) (map[string]models.Identity, error) {
	directory := make(map[string]models.Identity)
	err := s.api.ListUsers(ctx, func(u slack.User) error {
		directory[u.ID] = u.Identity()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return directory, nil
}

// scanHistory walks the channel's message history once, counting ordinary
// user messages and tracking the latest join event per user.
func (s *exportService) scanHistory(ctx context.Context, channelID, oldest, latest string) (*models.HistoryStats, error) {
	stats := models.NewHistoryStats()
	err := s.api.History(ctx, channelID, oldest, latest, func(m slack.Message) error {
		if m.User == "" {
			return nil
		}
		if m.Type == "message" && m.Subtype == nil {
			stats.CountMessage(m.User)
		}
		if m.Subtype != nil && joinSubtypes[*m.Subtype] && m.Ts != "" {
			stats.RecordJoin(m.User, m.Ts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// buildRow applies the inclusion filters and resolves the role. The
// second return is false when the filters drop the user.
func (s *exportService) buildRow(ctx context.Context, ident *models.Identity, creatorID string, stats *models.HistoryStats, opts *models.ExportOptions) (models.ExportRow, bool) {
	if ident.Deactivated && !opts.IncludeDeactivated {
		return models.ExportRow{}, false
	}
	if ident.Bot && !opts.IncludeBots {
		return models.ExportRow{}, false
	}

	return models.ExportRow{
		UserID:       ident.ID,
		Email:        deref(ident.Email),
		DisplayName:  deref(ident.DisplayName),
		RealName:     deref(ident.RealName),
		Role:         s.resolveRole(ctx, ident.ID, creatorID),
		MessageCount: stats.MessageCounts[ident.ID],
		JoinedAt:     models.TsToUnixSeconds(stats.LastJoinTS[ident.ID]),
	}, true
}

// resolveRole classifies a user for the exported channel. The admin check
// is a live lookup per row; when it fails the user is treated as not
// admin rather than failing the export.
func (s *exportService) resolveRole(ctx context.Context, userID, creatorID string) models.Role {
	if u, err := s.api.UserInfo(ctx, userID); err == nil {
		if u.Admin() {
			return models.RoleWorkspaceAdmin
		}
	} else {
		s.log.Debug().Err(err).Str("user", userID).Msg("Admin check failed, assuming not admin")
	}
	if creatorID != "" && userID == creatorID {
		return models.RoleChannelCreator
	}
	return models.RoleMember
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
