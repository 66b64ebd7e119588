package models

import (
	"strconv"
)

// Role classifies a user's standing relative to the exported channel
type Role string

const (
	RoleWorkspaceAdmin Role = "Workspace Admin"
	RoleChannelCreator Role = "Channel Creator"
	RoleMember         Role = "Member"
)

// Identity is a workspace user as known to the directory. Optional fields
// are pointers so that an absent value survives until encoding, where it
// becomes an empty string.
type Identity struct {
	ID          string
	Email       *string
	RealName    *string
	DisplayName *string
	Deactivated bool
	Bot         bool
}

// ExportRow is one line of the metrics export
type ExportRow struct {
	UserID       string
	Email        string
	DisplayName  string
	RealName     string
	Role         Role
	MessageCount int
	JoinedAt     string // whole seconds since epoch, or empty
}

// ExportOptions controls a single export run
type ExportOptions struct {
	Channel            string
	IncludeBots        bool
	IncludeDeactivated bool

	// Optional history window bounds, inclusive when set.
	Oldest string
	Latest string

	// ScanHistory enables the message-history pass. When false, message
	// counts are zero and join timestamps empty for every row.
	ScanHistory bool
}

// TsToUnixSeconds converts a fractional message timestamp like "1700000000.123456"
// to whole seconds. Absent or unparsable values render as empty, not an error.
func TsToUnixSeconds(ts string) string {
	if ts == "" {
		return ""
	}
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}
