package models

import "testing"

func TestRecordJoinMonotonic(t *testing.T) {
	h := NewHistoryStats()

	h.RecordJoin("U2", "100.5")
	if h.LastJoinTS["U2"] != "100.5" {
		t.Errorf("Expected 100.5, got %s", h.LastJoinTS["U2"])
	}

	// An older join never lowers the stored value.
	h.RecordJoin("U2", "50.0")
	if h.LastJoinTS["U2"] != "100.5" {
		t.Errorf("Expected 100.5 to be retained, got %s", h.LastJoinTS["U2"])
	}

	// A newer one replaces it.
	h.RecordJoin("U2", "200.25")
	if h.LastJoinTS["U2"] != "200.25" {
		t.Errorf("Expected 200.25, got %s", h.LastJoinTS["U2"])
	}
}

func TestHistoryStatsSeenOrder(t *testing.T) {
	h := NewHistoryStats()
	h.CountMessage("U3")
	h.RecordJoin("U1", "10.0")
	h.CountMessage("U3")
	h.CountMessage("U2")

	want := []string{"U3", "U1", "U2"}
	if len(h.Seen) != len(want) {
		t.Fatalf("Expected %v, got %v", want, h.Seen)
	}
	for i := range want {
		if h.Seen[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], h.Seen[i])
		}
	}
	if h.MessageCounts["U3"] != 2 {
		t.Errorf("Expected 2 messages for U3, got %d", h.MessageCounts["U3"])
	}
}

func TestTsToUnixSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100.5", "100"},
		{"1700000000.123456", "1700000000"},
		{"42", "42"},
		{"", ""},
		{"not-a-ts", ""},
	}
	for _, tt := range tests {
		if got := TsToUnixSeconds(tt.in); got != tt.want {
			t.Errorf("TsToUnixSeconds(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSlashCommandFromDirectMessage(t *testing.T) {
	tests := []struct {
		name string
		cmd  SlashCommand
		want bool
	}{
		{"dm channel name", SlashCommand{ChannelName: "directmessage", ChannelID: "C1"}, true},
		{"dm channel id", SlashCommand{ChannelName: "eng", ChannelID: "D123"}, true},
		{"public channel", SlashCommand{ChannelName: "eng", ChannelID: "C123"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.FromDirectMessage(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
