// Package store persists the small per-browser view state (search text
// and open player) so a reload puts the page back where it was.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ViewState is what survives a page reload for one browser.
type ViewState struct {
	Query       string    `json:"query"`
	PlayerOpen  bool      `json:"player_open"`
	PlayerSrc   string    `json:"player_src,omitempty"`
	PlayerTitle string    `json:"player_title,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store keeps ViewState by browser ID.
type Store interface {
	// Load returns false when nothing is stored for id.
	Load(ctx context.Context, id string) (ViewState, bool, error)
	Save(ctx context.Context, id string, st ViewState) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver; path is ignored for memory.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return OpenFile(path)
	case DriverSQLite:
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

// Memory is a process-local Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]ViewState
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]ViewState)}
}

func (m *Memory) Load(_ context.Context, id string) (ViewState, bool, error) {
	m.mu.RLock()
	st, ok := m.data[id]
	m.mu.RUnlock()
	return st, ok, nil
}

func (m *Memory) Save(_ context.Context, id string, st ViewState) error {
	m.mu.Lock()
	m.data[id] = st
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
