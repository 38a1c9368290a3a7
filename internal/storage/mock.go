package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jwebster45206/button-commands/pkg/button"
)

// MockStorage is a mock implementation of Storage for testing. It keeps the
// document as JSON so that callers never share maps with it.
type MockStorage struct {
	mu        sync.RWMutex
	doc       []byte
	pingError error
	loadError error
	saveError error

	// Track calls for testing
	LoadCalls int
	SaveCalls int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// NewMockStorageWith creates a mock storage pre-seeded with data
func NewMockStorageWith(data *button.StoredData) *MockStorage {
	m := NewMockStorage()
	if data != nil {
		m.doc, _ = json.Marshal(data)
	}
	return m
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetLoadError configures the mock to fail on load with the given error
func (m *MockStorage) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// Load mocks loading the registry document
func (m *MockStorage) Load(ctx context.Context) (*button.StoredData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.loadError != nil {
		return nil, m.loadError
	}
	if m.doc == nil {
		return nil, nil
	}
	var data button.StoredData
	if err := json.Unmarshal(m.doc, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Save mocks saving the registry document
func (m *MockStorage) Save(ctx context.Context, data *button.StoredData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.saveError != nil {
		return m.saveError
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.doc = raw
	return nil
}

// Saved returns the last saved document, or nil if nothing was saved.
func (m *MockStorage) Saved() *button.StoredData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return nil
	}
	var data button.StoredData
	if err := json.Unmarshal(m.doc, &data); err != nil {
		return nil
	}
	return &data
}
