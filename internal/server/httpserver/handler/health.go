package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/contacts-go/internal/core/domain"
	"github.com/yndnr/contacts-go/internal/infra/buildinfo"
)

// readyTimeout bounds a readiness probe.
const readyTimeout = 2 * time.Second

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, r, http.StatusOK, HealthResponse{Status: "healthy", Version: buildinfo.Version, Time: nowRFC3339()})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			WriteError(w, r, domain.ErrUnavailable.WithCause(err))
			return
		}
	}
	WriteJSON(w, r, http.StatusOK, HealthResponse{Status: "ready", Version: buildinfo.Version, Time: nowRFC3339()})
}
