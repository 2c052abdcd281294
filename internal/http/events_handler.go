package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/shopease/internal/events"
	"github.com/fjod/shopease/pkg/logger"
	"go.uber.org/zap"
)

// Subscriber hands out per-owner event streams.
type Subscriber interface {
	Subscribe(ownerID string) (<-chan events.Event, func())
}

// EventsHandler streams cart, wishlist and order events to every open view
// of the same owner as server-sent events.
type EventsHandler struct {
	hub       Subscriber
	heartbeat time.Duration
	logger    *zap.Logger
}

func NewEventsHandler(hub Subscriber, log *zap.Logger) *EventsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventsHandler{hub: hub, heartbeat: 25 * time.Second, logger: log}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// the server's write timeout would otherwise cut long-lived streams
	_ = rc.SetWriteDeadline(time.Time{})

	owner := ownerID(r.Context())
	sub, unsubscribe := h.hub.Subscribe(owner)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream cannot flush", zap.Error(err))
		return
	}

	log := logger.FromContext(r.Context(), h.logger).With(zap.String("owner_id", owner))
	log.Debug("event stream opened")
	defer log.Debug("event stream closed")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			rc.Flush()
		case e, ok := <-sub:
			if !ok {
				return
			}
			if err := writeEvent(w, e); err != nil {
				log.Debug("event write failed", zap.Error(err))
				return
			}
			rc.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
	return err
}
