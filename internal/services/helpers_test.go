package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGridSource is a mock for sheets.GridSource
type MockGridSource struct {
	mock.Mock
}

func (m *MockGridSource) FetchGrid(ctx context.Context, a1Range string) ([][]string, error) {
	args := m.Called(ctx, a1Range)
	grid, _ := args.Get(0).([][]string)
	return grid, args.Error(1)
}

func (m *MockGridSource) Name() string {
	return "mock"
}

// MockDocumentWriter is a mock for DocumentWriter
type MockDocumentWriter struct {
	mock.Mock
}

func (m *MockDocumentWriter) Write(ctx context.Context, v interface{}) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockDocumentWriter) Path() string {
	return "mock.json"
}
