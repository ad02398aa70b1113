package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mneme/internal/server/metrics"
)

const heartbeatInterval = 30 * time.Second

// Updates streams the caller's journal and entry changes as Server-Sent
// Events until the client goes away.
func (h *Handler) Updates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(r)

	events, err := h.updates.Subscribe(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Error(ctx, "streaming unsupported", "err", err)
		return
	}

	metrics.UpdateStreams.Inc()
	defer metrics.UpdateStreams.Dec()
	h.logger.Debug(ctx, "update stream opened", "user_id", user.ID)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", ev); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
