package models

import "strconv"

// HistoryStats accumulates per-user results from one walk of a channel's
// message history.
type HistoryStats struct {
	// MessageCounts counts ordinary user messages per user ID.
	MessageCounts map[string]int

	// LastJoinTS holds the latest join-event timestamp per user ID, as
	// the raw fractional timestamp string.
	LastJoinTS map[string]string

	// Seen lists every user ID that contributed to either map, in
	// first-seen order.
	Seen []string

	seen map[string]bool
}

// NewHistoryStats returns empty stats
func NewHistoryStats() *HistoryStats {
	return &HistoryStats{
		MessageCounts: make(map[string]int),
		LastJoinTS:    make(map[string]string),
		seen:          make(map[string]bool),
	}
}

// CountMessage records one countable message for a user
func (h *HistoryStats) CountMessage(userID string) {
	h.touch(userID)
	h.MessageCounts[userID]++
}

// RecordJoin records a join event. The stored timestamp only moves forward:
// an older join never overwrites a newer one, regardless of scan order.
func (h *HistoryStats) RecordJoin(userID, ts string) {
	h.touch(userID)
	prev, ok := h.LastJoinTS[userID]
	if !ok {
		h.LastJoinTS[userID] = ts
		return
	}
	newVal, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return
	}
	prevVal, err := strconv.ParseFloat(prev, 64)
	if err != nil || newVal > prevVal {
		h.LastJoinTS[userID] = ts
	}
}

func (h *HistoryStats) touch(userID string) {
	if !h.seen[userID] {
		h.seen[userID] = true
		h.Seen = append(h.Seen, userID)
	}
}
