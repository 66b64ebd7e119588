package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// AuthTest validates the configured credential. An API-side rejection is
// returned as *AuthError so callers can fail fast before doing any work.
func (c *Client) AuthTest(ctx context.Context) error {
	_, _, err := c.call(ctx, "auth.test", nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &AuthError{Code: apiErr.Code}
	}
	return err
}

// ChannelInfo fetches a conversation's metadata, including its creator
func (c *Client) ChannelInfo(ctx context.Context, channelID string) (*Channel, error) {
	params := url.Values{"channel": {channelID}}
	raw, _, err := c.call(ctx, "conversations.info", params)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Channel *Channel `json:"channel"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &TransportError{Endpoint: "conversations.info", Err: err}
	}
	if resp.Channel == nil {
		return nil, &APIError{Endpoint: "conversations.info", Code: "channel_not_found"}
	}
	return resp.Channel, nil
}

// ChannelMembers returns the IDs of everyone currently in the channel.
// The API may repeat IDs across pages when the channel mutates mid-walk,
// so duplicates are dropped while first-seen order is preserved.
func (c *Client) ChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	params := url.Values{
		"channel": {channelID},
		"limit":   {strconv.Itoa(c.membersPageSize)},
	}

	var members []string
	seen := make(map[string]bool)

	err := c.paginate(ctx, "conversations.members", params, func(raw []byte) error {
		var page struct {
			Members []string `json:"members"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return &TransportError{Endpoint: "conversations.members", Err: err}
		}
		for _, id := range page.Members {
			if !seen[id] {
				seen[id] = true
				members = append(members, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListUsers walks the full workspace directory, invoking fn once per user
func (c *Client) ListUsers(ctx context.Context, fn func(User) error) error {
	params := url.Values{"limit": {strconv.Itoa(c.usersPageSize)}}

	return c.paginate(ctx, "users.list", params, func(raw []byte) error {
		var page struct {
			Members []User `json:"members"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return &TransportError{Endpoint: "users.list", Err: err}
		}
		for _, u := range page.Members {
			if u.ID == "" {
				continue
			}
			if err := fn(u); err != nil {
				return err
			}
		}
		return nil
	})
}

// UserInfo looks up a single user
func (c *Client) UserInfo(ctx context.Context, userID string) (*User, error) {
	params := url.Values{"user": {userID}}
	raw, _, err := c.call(ctx, "users.info", params)
	if err != nil {
		return nil, err
	}
	var resp struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &TransportError{Endpoint: "users.info", Err: err}
	}
	if resp.User == nil {
		return nil, &APIError{Endpoint: "users.info", Code: "user_not_found"}
	}
	return resp.User, nil
}

// History walks the channel's message history, invoking fn once per
// message. Bounds are inclusive when set.
func (c *Client) History(ctx context.Context, channelID, oldest, latest string, fn func(Message) error) error {
	params := url.Values{
		"channel": {channelID},
		"limit":   {strconv.Itoa(c.historyPageSize)},
	}
	if oldest != "" {
		params.Set("oldest", oldest)
		params.Set("inclusive", "true")
	}
	if latest != "" {
		params.Set("latest", latest)
		params.Set("inclusive", "true")
	}

	return c.paginate(ctx, "conversations.history", params, func(raw []byte) error {
		var page struct {
			Messages []Message `json:"messages"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return &TransportError{Endpoint: "conversations.history", Err: err}
		}
		for _, m := range page.Messages {
			if err := fn(m); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindChannelByName resolves a channel name to its ID by walking
// conversations.list. Archived channels are skipped. Returns an empty ID
// without error when nothing matches.
func (c *Client) FindChannelByName(ctx context.Context, name string) (string, error) {
	params := url.Values{
		"types": {"public_channel,private_channel"},
		"limit": {strconv.Itoa(c.membersPageSize)},
	}

	var found string
	err := c.paginate(ctx, "conversations.list", params, func(raw []byte) error {
		var page struct {
			Channels []Channel `json:"channels"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return &TransportError{Endpoint: "conversations.list", Err: err}
		}
		for _, ch := range page.Channels {
			if ch.IsArchived {
				continue
			}
			if ch.Name == name {
				found = ch.ID
				return errStopPaginate
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}

// UploadFile uploads content as a file into a channel or DM
func (c *Client) UploadFile(ctx context.Context, channelID, filename, title, comment string, content []byte) error {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := fw.Write(content); err != nil {
		return err
	}
	w.WriteField("channels", channelID)
	w.WriteField("filename", filename)
	w.WriteField("title", title)
	if comment != "" {
		w.WriteField("initial_comment", comment)
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files.upload", body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: "files.upload", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: "files.upload", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Endpoint: "files.upload", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &TransportError{Endpoint: "files.upload", Err: err}
	}
	if !env.OK {
		code := env.Error
		if code == "" {
			code = "unknown_error"
		}
		return &APIError{Endpoint: "files.upload", Code: code}
	}
	return nil
}
