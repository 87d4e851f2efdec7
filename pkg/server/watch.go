package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mpepping/deal-view/pkg/limits"
	"go.uber.org/zap"
)

// handleWatch streams the derived view as server-sent events.
// One event is sent on connect and one per store broadcast; drained
// broadcasts coalesce because every event re-reads the current view.
func (s *DealServer) handleWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	subscription := s.store.Watch(limits.WatchBufferSize)
	defer subscription.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.logger.Debug("watch started",
		zap.String("client_ip", clientIP(r)),
	)

	// Send snapshot
	if err := s.sendEvent(w, flusher); err != nil {
		s.logger.Debug("watch stream error during snapshot", zap.Error(err))
		return
	}

	// Stream updates
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("watch ended",
				zap.String("client_ip", clientIP(r)),
			)
			return

		case _, ok := <-subscription.Ch():
			if !ok {
				s.logger.Debug("watch subscription closed")
				return
			}

			if err := s.sendEvent(w, flusher); err != nil {
				s.logger.Debug("watch stream error", zap.Error(err))
				return
			}
		}
	}
}

func (s *DealServer) sendEvent(w http.ResponseWriter, flusher http.Flusher) error {
	data, err := json.Marshal(s.View())
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: deals\ndata: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
