package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fleetglass/fleetglass/pkg/demo"
	"github.com/fleetglass/fleetglass/pkg/log"
)

// Manager holds the API bearer token and mirrors it to disk so a
// restart does not force a fresh login. Token files are owner-only.
type Manager struct {
	path   string
	mu     sync.RWMutex
	token  string
	logger zerolog.Logger
}

// NewManager creates a manager backed by the token file at path. An
// existing file is loaded; a missing file means no session yet.
func NewManager(path string) (*Manager, error) {
	m := &Manager{
		path:   path,
		logger: log.WithComponent("session"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	m.token = strings.TrimSpace(string(data))
	if m.token != "" {
		m.logger.Debug().Str("path", path).Msg("Session restored from disk")
	}
	return m, nil
}

// Token returns the current bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// SetToken stores and persists a new token. An empty token signs out
// and removes the file.
func (m *Manager) SetToken(token string) error {
	token = strings.TrimSpace(token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		m.token = ""
		if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove token file: %w", err)
		}
		m.logger.Info().Msg("Session cleared")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a truncated
	// token behind.
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	m.token = token
	m.logger.Info().Bool("demo", token == demo.TokenSentinel).Msg("Session updated")
	return nil
}

// IsDemo reports whether the current session is the demo sentinel.
// Authenticated sources treat a demo session the same as no session.
func (m *Manager) IsDemo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token == demo.TokenSentinel
}

// Clear signs out. Equivalent to SetToken("").
func (m *Manager) Clear() error {
	return m.SetToken("")
}
