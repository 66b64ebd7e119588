package validation

import (
	"strings"
)

var tokenPrefixes = []string{"OAuth token:", "OAuth Token:", "Token:", "Bearer "}

// CleanToken strips decoration people commonly paste along with a token
func CleanToken(token string) string {
	token = strings.TrimSpace(token)
	for _, prefix := range tokenPrefixes {
		if strings.HasPrefix(token, prefix) {
			token = strings.TrimSpace(token[len(prefix):])
		}
	}
	return token
}

// CleanChannelID normalizes common channel inputs to a raw channel ID:
//   - a bare ID (C..., G..., D...)
//   - a channel URL containing /archives/<ID>
//   - a copied link wrapped in <> (Slack formatting)
//   - a channel mention like <#C0123ABCDEF|name>
func CleanChannelID(channel string) string {
	channel = strings.TrimSpace(channel)
	channel = strings.TrimSpace(strings.Trim(channel, "<>"))
	channel = strings.TrimSpace(strings.TrimLeft(channel, "#"))

	if idx := strings.Index(channel, "/archives/"); idx >= 0 {
		channel = channel[idx+len("/archives/"):]
		for _, sep := range []string{"/", "?", "&"} {
			if i := strings.Index(channel, sep); i >= 0 {
				channel = channel[:i]
			}
		}
	}

	channel = strings.TrimRight(strings.TrimSpace(channel), "+")
	channel = strings.TrimSpace(channel)
	if i := strings.Index(channel, "|"); i >= 0 {
		channel = channel[:i]
	}
	channel = strings.TrimPrefix(channel, "#")
	return strings.TrimSpace(channel)
}

// LooksLikeChannelID reports whether the input already is a channel ID
// rather than a channel name.
func LooksLikeChannelID(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case 'C', 'G', 'D':
		return true
	}
	return false
}

// SafeFilenamePart reduces a channel name to characters safe for an
// upload filename. Empty results fall back to "channel".
func SafeFilenamePart(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		case c == ' ', c == '.':
			b.WriteByte('_')
		}
	}
	cleaned := strings.Trim(b.String(), "_")
	if cleaned == "" {
		return "channel"
	}
	return cleaned
}
