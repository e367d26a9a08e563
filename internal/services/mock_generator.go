package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/nightloop/pkg/agents"
)

// MockGenerator is a mock implementation of TextGenerator for testing
type MockGenerator struct {
	GenerateFunc  func(ctx context.Context, prompt string, opts agents.GenerateOptions) (string, error)
	AvailableFunc func(ctx context.Context) bool

	// Track calls for testing
	GenerateCalls []GenerateCall

	mu sync.Mutex // protects all fields above
}

type GenerateCall struct {
	Prompt string
	Opts   agents.GenerateOptions
}

var _ agents.TextGenerator = (*MockGenerator)(nil)

// NewMockGenerator creates a new mock text generator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		GenerateCalls: make([]GenerateCall, 0),
	}
}

// Generate mocks text generation. Without a GenerateFunc it returns an
// empty string, which downstream callers treat as a fallback trigger.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts agents.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{Prompt: prompt, Opts: opts})

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	return "", nil
}

// Available mocks the readiness probe
func (m *MockGenerator) Available(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AvailableFunc != nil {
		return m.AvailableFunc(ctx)
	}
	return true
}

// CallCount returns how many Generate calls have been made
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls)
}
