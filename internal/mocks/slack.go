package mocks

import (
	"context"
	"sync"

	"github.com/channel-metrics-exporter/internal/slack"
)

// UploadCall records one UploadFile invocation
type UploadCall struct {
	ChannelID string
	Filename  string
	Title     string
	Comment   string
	Content   []byte
}

// MockSlackAPI is a mock implementation of service.SlackAPI
type MockSlackAPI struct {
	mu sync.Mutex

	AuthErr error

	Channel    *slack.Channel
	ChannelErr error

	Members    []string
	MembersErr error

	Users    []slack.User
	UsersErr error

	// UserInfos maps user IDs to users.info results; absent IDs return
	// UserInfoErr (or a default error when that is nil).
	UserInfos     map[string]*slack.User
	UserInfoErr   error
	UserInfoCalls int

	Messages      []slack.Message
	HistoryErr    error
	HistoryOldest string
	HistoryLatest string

	Uploads   []UploadCall
	UploadErr error
}

// NewMockSlackAPI creates an empty mock
func NewMockSlackAPI() *MockSlackAPI {
	return &MockSlackAPI{
		UserInfos: make(map[string]*slack.User),
	}
}

func (m *MockSlackAPI) AuthTest(ctx context.Context) error {
	return m.AuthErr
}

func (m *MockSlackAPI) ChannelInfo(ctx context.Context, channelID string) (*slack.Channel, error) {
	if m.ChannelErr != nil {
		return nil, m.ChannelErr
	}
	if m.Channel == nil {
		return nil, &slack.APIError{Endpoint: "conversations.info", Code: "channel_not_found"}
	}
	return m.Channel, nil
}

func (m *MockSlackAPI) ChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	if m.MembersErr != nil {
		return nil, m.MembersErr
	}
	return m.Members, nil
}

func (m *MockSlackAPI) ListUsers(ctx context.Context, fn func(slack.User) error) error {
	if m.UsersErr != nil {
		return m.UsersErr
	}
	for _, u := range m.Users {
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockSlackAPI) UserInfo(ctx context.Context, userID string) (*slack.User, error) {
	m.mu.Lock()
	m.UserInfoCalls++
	m.mu.Unlock()

	if u, ok := m.UserInfos[userID]; ok {
		return u, nil
	}
	if m.UserInfoErr != nil {
		return nil, m.UserInfoErr
	}
	return nil, &slack.APIError{Endpoint: "users.info", Code: "user_not_found"}
}

func (m *MockSlackAPI) History(ctx context.Context, channelID, oldest, latest string, fn func(slack.Message) error) error {
	m.HistoryOldest = oldest
	m.HistoryLatest = latest
	if m.HistoryErr != nil {
		return m.HistoryErr
	}
	for _, msg := range m.Messages {
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockSlackAPI) UploadFile(ctx context.Context, channelID, filename, title, comment string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return m.UploadErr
	}
	m.Uploads = append(m.Uploads, UploadCall{
		ChannelID: channelID,
		Filename:  filename,
		Title:     title,
		Comment:   comment,
		Content:   content,
	})
	return nil
}
