package handler

import (
	"context"
	"net/http"

	"github.com/timeclock/timeclock-backend/internal/session"
	"github.com/timeclock/timeclock-backend/pkg/clock"
	"github.com/timeclock/timeclock-backend/pkg/errors"
	"github.com/timeclock/timeclock-backend/pkg/httputil"
	"github.com/timeclock/timeclock-backend/pkg/logger"
	"github.com/timeclock/timeclock-backend/pkg/messaging"
)

// EventPublisher publishes timeclock events. Satisfied by the events
// package publisher and by test doubles.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// SessionHandler exposes the manager session over HTTP: open with a PIN,
// inspect, extend, and close.
type SessionHandler struct {
	session   *session.Manager
	tokens    *session.TokenManager
	publisher EventPublisher
	clock     clock.Clock
	logger    *logger.Logger
}

// NewSessionHandler creates a new manager session handler
func NewSessionHandler(sess *session.Manager, tokens *session.TokenManager, publisher EventPublisher, clk clock.Clock, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		session:   sess,
		tokens:    tokens,
		publisher: publisher,
		clock:     clk,
		logger:    log.WithComponent("session-handler"),
	}
}

// sessionResponse describes the current session window.
type sessionResponse struct {
	Active           bool   `json:"active"`
	Token            string `json:"token,omitempty"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// Open authenticates the manager PIN and opens (or restarts) the session.
// POST /manager-session
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.session.Authenticate(req.PIN); err != nil {
		httputil.Error(w, err)
		return
	}

	expiresAt, _ := h.session.ExpiresAt()

	token, err := h.tokens.Generate(expiresAt)
	if err != nil {
		httputil.Error(w, errors.Internal("failed to issue session token"))
		return
	}

	h.publishSessionEvent(r.Context(), messaging.EventManagerSessionOpened, messaging.ManagerSessionOpenedEvent{
		OpenedAt:  h.clock.Now(),
		ExpiresAt: expiresAt,
	})

	httputil.Created(w, sessionResponse{
		Active:           true,
		Token:            token,
		ExpiresAt:        expiresAt.Format(timeFormat),
		RemainingSeconds: int(h.session.RemainingTime().Seconds()),
	})
}

// Status reports whether a session is live and how long it has left.
// GET /manager-session
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !h.session.IsValid() {
		httputil.JSON(w, http.StatusOK, sessionResponse{Active: false})
		return
	}

	expiresAt, _ := h.session.ExpiresAt()
	httputil.JSON(w, http.StatusOK, sessionResponse{
		Active:           true,
		ExpiresAt:        expiresAt.Format(timeFormat),
		RemainingSeconds: int(h.session.RemainingTime().Seconds()),
	})
}

// Extend restarts the inactivity window and issues a fresh token.
// POST /manager-session/extend
func (h *SessionHandler) Extend(w http.ResponseWriter, r *http.Request) {
	if !h.session.Extend() {
		httputil.Error(w, errors.NotAuthorized())
		return
	}

	expiresAt, _ := h.session.ExpiresAt()

	token, err := h.tokens.Generate(expiresAt)
	if err != nil {
		httputil.Error(w, errors.Internal("failed to issue session token"))
		return
	}

	httputil.JSON(w, http.StatusOK, sessionResponse{
		Active:           true,
		Token:            token,
		ExpiresAt:        expiresAt.Format(timeFormat),
		RemainingSeconds: int(h.session.RemainingTime().Seconds()),
	})
}

// Close ends the session (manager logout).
// DELETE /manager-session
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	wasActive := h.session.IsValid()
	h.session.Clear()

	if wasActive {
		h.publishSessionEvent(r.Context(), messaging.EventManagerSessionClosed, messaging.ManagerSessionClosedEvent{
			ClosedAt: h.clock.Now(),
			Reason:   "logout",
		})
	}

	httputil.NoContent(w)
}

func (h *SessionHandler) publishSessionEvent(ctx context.Context, eventType string, payload interface{}) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, eventType, payload); err != nil {
		h.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
