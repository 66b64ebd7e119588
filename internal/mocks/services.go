package mocks

import (
	"context"
	"sync"

	"github.com/channel-metrics-exporter/internal/models"
)

// MockExportService is a mock implementation of service.ExportService
type MockExportService struct {
	Rows      []models.ExportRow
	ExportErr error
	Calls     []models.ExportOptions
}

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) Export(ctx context.Context, opts models.ExportOptions) ([]models.ExportRow, error) {
	m.Calls = append(m.Calls, opts)
	if m.ExportErr != nil {
		return nil, m.ExportErr
	}
	return m.Rows, nil
}

// RunCall records one RunExport invocation
type RunCall struct {
	Command   *models.SlashCommand
	ChannelID string
}

// MockCommandService is a mock implementation of service.CommandService
type MockCommandService struct {
	mu sync.Mutex

	AdminUsers map[string]bool
	AdminErr   error

	RunCalls []RunCall

	// Ran is closed-over signaling for async handlers: every RunExport
	// sends on it when non-nil.
	Ran chan RunCall
}

func NewMockCommandService() *MockCommandService {
	return &MockCommandService{
		AdminUsers: make(map[string]bool),
	}
}

func (m *MockCommandService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if m.AdminErr != nil {
		return false, m.AdminErr
	}
	return m.AdminUsers[userID], nil
}

func (m *MockCommandService) RunExport(ctx context.Context, cmd *models.SlashCommand, channelID string) {
	call := RunCall{Command: cmd, ChannelID: channelID}
	m.mu.Lock()
	m.RunCalls = append(m.RunCalls, call)
	m.mu.Unlock()
	if m.Ran != nil {
		m.Ran <- call
	}
}
