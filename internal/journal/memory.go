package journal

import (
	"context"
	"sync"

	"digibank/pkg/platform/sentinel"
)

// Memory keeps the pending intent for the lifetime of the process.
type Memory struct {
	mu     sync.RWMutex
	intent *PendingIntent
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, intent PendingIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intent = &intent
	return nil
}

func (m *Memory) Load(_ context.Context) (*PendingIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.intent == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *m.intent
	return &cp, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intent = nil
	return nil
}
