package models

import "strings"

// SlashCommand is the form payload Slack posts for a slash command
// invocation.
type SlashCommand struct {
	Command     string `form:"command"`
	Text        string `form:"text"`
	UserID      string `form:"user_id"`
	ChannelID   string `form:"channel_id"`
	ChannelName string `form:"channel_name"`
	ResponseURL string `form:"response_url"`
	TeamID      string `form:"team_id"`
	TriggerID   string `form:"trigger_id"`
}

// FromDirectMessage reports whether the command was issued in a DM with
// the app. Slash commands carry channel_name "directmessage" for DMs;
// the channel ID prefix is the fallback signal.
func (c *SlashCommand) FromDirectMessage() bool {
	if strings.EqualFold(c.ChannelName, "directmessage") {
		return true
	}
	return strings.HasPrefix(c.ChannelID, "D")
}
