package render

import (
	"context"
)

// MockExecutor is a mock implementation of Executor for testing
type MockExecutor struct {
	MockOutput []byte
	MockError  error

	Calls      int
	LastFormat Format
	LastSource []byte
}

func (m *MockExecutor) Run(ctx context.Context, format Format, source []byte) ([]byte, error) {
	m.Calls++
	m.LastFormat = format
	m.LastSource = source
	return m.MockOutput, m.MockError
}
