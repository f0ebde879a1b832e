// Package session keeps the per-user conversation state of the dispatcher.
package session

import (
	"context"
	"sync"
)

type State string

const (
	Idle           State = "idle"
	AwaitingWeight State = "awaiting_weight"
)

// Store holds one State per user. A missing entry reads as Idle.
type Store interface {
	Get(ctx context.Context, userID int64) State
	Set(ctx context.Context, userID int64, st State)
	Clear(ctx context.Context, userID int64)
}

// Memory is a process-local Store. State is lost on restart.
type Memory struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewMemory() *Memory {
	return &Memory{states: make(map[int64]State)}
}

func (m *Memory) Get(_ context.Context, userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[userID]; ok {
		return st
	}
	return Idle
}

func (m *Memory) Set(ctx context.Context, userID int64, st State) {
	if st == Idle {
		m.Clear(ctx, userID)
		return
	}
	m.mu.Lock()
	m.states[userID] = st
	m.mu.Unlock()
}

func (m *Memory) Clear(_ context.Context, userID int64) {
	m.mu.Lock()
	delete(m.states, userID)
	m.mu.Unlock()
}
