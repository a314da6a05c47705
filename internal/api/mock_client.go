package api

import (
	"context"
	"sync"
)

// MockCompleter is a mock implementation of Completer for testing
type MockCompleter struct {
	mu sync.Mutex

	// Mock return values
	Response string
	Err      error
	// CompleteFunc, when set, replaces Response/Err.
	CompleteFunc func(ctx context.Context, credential, text string) (string, error)

	// Call recorders
	Calls          int
	LastCredential string
	LastText       string
}

// Ensure MockCompleter implements Completer
var _ Completer = (*MockCompleter)(nil)

func (m *MockCompleter) Complete(ctx context.Context, credential, text string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.LastCredential = credential
	m.LastText = text
	fn := m.CompleteFunc
	resp, err := m.Response, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, credential, text)
	}
	return resp, err
}

// CallCount returns the number of Complete calls so far
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
