// Package session implements the single-slot manager session that gates
// time corrections. One PIN, one session, lazy expiry.
package session

import (
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/timeclock/timeclock-backend/pkg/clock"
	"github.com/timeclock/timeclock-backend/pkg/config"
	"github.com/timeclock/timeclock-backend/pkg/errors"
	"github.com/timeclock/timeclock-backend/pkg/logger"
)

// State is the manager session state
type State int

const (
	// StateUnauthenticated means no manager is signed in
	StateUnauthenticated State = iota
	// StateAuthenticated means a manager session is live
	StateAuthenticated
)

// Manager holds the kiosk-wide manager session. There is exactly one slot:
// authenticating again restarts the window, it does not stack sessions.
type Manager struct {
	mu      sync.Mutex
	clock   clock.Clock
	logger  *logger.Logger
	pinHash string
	pin     string
	timeout time.Duration

	state           State
	authenticatedAt time.Time
}

// NewManager creates a manager session gate from configuration. A bcrypt
// pin_hash takes precedence over the plain development PIN.
func NewManager(cfg config.ManagerConfig, clk clock.Clock, log *logger.Logger) *Manager {
	return &Manager{
		clock:   clk,
		logger:  log.WithComponent("manager-session"),
		pinHash: cfg.PINHash,
		pin:     cfg.PIN,
		timeout: cfg.SessionTimeout,
		state:   StateUnauthenticated,
	}
}

// Timeout returns the configured inactivity timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Authenticate verifies the PIN and opens (or restarts) the session window.
func (m *Manager) Authenticate(pin string) error {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return errors.InvalidPIN()
	}

	if !m.verifyPIN(pin) {
		m.logger.Warn().Msg("manager authentication failed")
		return errors.InvalidPIN()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateAuthenticated
	m.authenticatedAt = m.clock.Now()
	m.logger.Info().Time("authenticated_at", m.authenticatedAt).Msg("manager session opened")

	return nil
}

func (m *Manager) verifyPIN(pin string) bool {
	if m.pinHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(m.pinHash), []byte(pin)) == nil
	}
	if m.pin == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(m.pin), []byte(pin)) == 1
}

// IsValid reports whether a live session exists. An expired session is
// cleared here rather than by a background timer, so expiry takes effect
// the first time anyone asks.
func (m *Manager) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validLocked()
}

func (m *Manager) validLocked() bool {
	if m.state != StateAuthenticated {
		return false
	}

	if m.clock.Now().Sub(m.authenticatedAt) > m.timeout {
		m.state = StateUnauthenticated
		m.authenticatedAt = time.Time{}
		m.logger.Info().Msg("manager session expired")
		return false
	}

	return true
}

// Extend restarts the inactivity window if the session is still live.
// Returns false when there was no live session to extend.
func (m *Manager) Extend() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.validLocked() {
		return false
	}

	m.authenticatedAt = m.clock.Now()
	return true
}

// Clear ends the session immediately (manager logout).
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateAuthenticated {
		m.logger.Info().Msg("manager session closed")
	}
	m.state = StateUnauthenticated
	m.authenticatedAt = time.Time{}
}

// RemainingTime returns how long the current session has left, floored at
// zero. Zero also means no session.
func (m *Manager) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.validLocked() {
		return 0
	}

	remaining := m.timeout - m.clock.Now().Sub(m.authenticatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ExpiresAt returns the instant the current session window closes.
// ok is false when no live session exists.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.validLocked() {
		return time.Time{}, false
	}
	return m.authenticatedAt.Add(m.timeout), true
}
