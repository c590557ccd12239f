package llm

import (
	"context"
	"strings"
	"sync"
)

// MockAnalysis is the analysis MockVision returns by default.
const MockAnalysis = `{
  "garments": {
    "top": {"name": "oxford shirt", "color": "white", "fit": "regular"},
    "bottom": {"name": "slacks", "color": "navy", "fit": "straight"},
    "shoes": {"name": "loafers", "color": "brown"}
  },
  "styling_method": {"tuck_degree": "half tuck", "styling_points": "rolled sleeves"},
  "situation_tags": ["business", "daily"]
}`

// MockVision is a VisionAnalyzer for tests and offline runs. It returns Response for
// every image and records the hints it was given.
type MockVision struct {
	Response string
	Err      error

	mu    sync.Mutex
	hints []string
}

// NewMockVision returns a MockVision answering with MockAnalysis.
func NewMockVision() *MockVision {
	return &MockVision{Response: MockAnalysis}
}

// Analyze returns the canned response.
func (m *MockVision) Analyze(_ context.Context, _ []byte, _, hint string) ([]byte, error) {
	m.mu.Lock()
	m.hints = append(m.hints, hint)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return []byte(m.Response), nil
}

// Calls returns the number of Analyze calls.
func (m *MockVision) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hints)
}

// MockText is a TextGenerator that echoes its prompts.
type MockText struct {
	Err error

	mu         sync.Mutex
	lastSystem string
	lastUser   string
}

// Generate returns the user prompt prefixed by the first line of the system prompt.
func (m *MockText) Generate(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.lastSystem, m.lastUser = system, user
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	first, _, _ := strings.Cut(system, "\n")
	return first + "\n" + user, nil
}

// Last returns the prompts of the most recent call.
func (m *MockText) Last() (system, user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystem, m.lastUser
}
