package press

import (
	"context"
	"sync"

	"github.com/jwebster45206/button-commands/pkg/host"
)

// ReplyCall records one Reply invocation.
type ReplyCall struct {
	PlayerID string
	Message  string
}

// MockSink is a Dispatcher and Replier that records calls for testing.
type MockSink struct {
	mu sync.Mutex

	DispatchFunc func(ctx context.Context, cmd Command) error
	ReplyFunc    func(ctx context.Context, player host.Player, message string) error

	// Track calls for testing
	DispatchCalls []Command
	ReplyCalls    []ReplyCall
}

// NewMockSink creates a new mock sink
func NewMockSink() *MockSink {
	return &MockSink{}
}

// Dispatch mocks command dispatch
func (m *MockSink) Dispatch(ctx context.Context, cmd Command) error {
	m.mu.Lock()
	m.DispatchCalls = append(m.DispatchCalls, cmd)
	m.mu.Unlock()

	if m.DispatchFunc != nil {
		return m.DispatchFunc(ctx, cmd)
	}
	return nil
}

// Reply mocks player feedback
func (m *MockSink) Reply(ctx context.Context, player host.Player, message string) error {
	m.mu.Lock()
	m.ReplyCalls = append(m.ReplyCalls, ReplyCall{PlayerID: player.UserIDString(), Message: message})
	m.mu.Unlock()

	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, player, message)
	}
	return nil
}

// Reset clears all call tracking
func (m *MockSink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DispatchCalls = nil
	m.ReplyCalls = nil
}

// Ensure MockSink implements Dispatcher and Replier
var (
	_ Dispatcher = (*MockSink)(nil)
	_ Replier    = (*MockSink)(nil)
)
