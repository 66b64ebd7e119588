package slack

import (
	"github.com/channel-metrics-exporter/internal/models"
)

// User is a workspace user as returned by users.list and users.info.
// Profile fields are pointers because the directory may omit them
// depending on scopes and account type.
type User struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	RealName       *string `json:"real_name"`
	Deleted        bool    `json:"deleted"`
	IsBot          bool    `json:"is_bot"`
	IsAdmin        bool    `json:"is_admin"`
	IsOwner        bool    `json:"is_owner"`
	IsPrimaryOwner bool    `json:"is_primary_owner"`
	Profile        Profile `json:"profile"`
}

// Profile is the nested profile object on a user
type Profile struct {
	Email       *string `json:"email"`
	RealName    *string `json:"real_name"`
	DisplayName *string `json:"display_name"`
}

// Admin reports whether the user carries any workspace-wide elevated flag
func (u *User) Admin() bool {
	return u.IsAdmin || u.IsOwner || u.IsPrimaryOwner
}

// Identity converts the wire user into the directory record, preferring
// the top-level real name over the profile one and the profile display
// name over the login name.
func (u *User) Identity() models.Identity {
	return models.Identity{
		ID:          u.ID,
		Email:       u.Profile.Email,
		RealName:    firstNonEmpty(u.RealName, u.Profile.RealName),
		DisplayName: firstNonEmpty(u.Profile.DisplayName, optional(u.Name)),
		Deactivated: u.Deleted,
		Bot:         u.IsBot,
	}
}

// Channel is the conversation object from conversations.info and
// conversations.list.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Creator    string `json:"creator"`
	IsArchived bool   `json:"is_archived"`
}

// Message is one entry from conversations.history. Subtype is a pointer:
// an ordinary user message carries no subtype at all, and that absence is
// what makes it countable.
type Message struct {
	Type    string  `json:"type"`
	Subtype *string `json:"subtype"`
	User    string  `json:"user"`
	Ts      string  `json:"ts"`
}

// envelope is the common part of every API response body
type envelope struct {
	OK               bool              `json:"ok"`
	Error            string            `json:"error"`
	ResponseMetadata *responseMetadata `json:"response_metadata"`
}

type responseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

func firstNonEmpty(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
