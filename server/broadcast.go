package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/replenix/replenix/pipeline"
)

// PipelineEventMessage wraps one pipeline event for WebSocket delivery.
// Event is the encoded event record including its "step" tag.
type PipelineEventMessage struct {
	Type      string          `json:"type"`
	RunID     string          `json:"run_id"`
	Event     json.RawMessage `json:"event"`
	Timestamp int64           `json:"timestamp"`
}

// broadcastMessage sends a message to all connected clients. Returns the
// number of clients that accepted it; a client with a full channel is
// skipped rather than blocking the stream.
func (s *Server) broadcastMessage(msg interface{}) int {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		select {
		case <-client.done:
			// Unregistered after the snapshot; skip
			continue
		default:
		}
		select {
		case client.sendMsg <- msg:
			sent++
		default:
			// Channel full - skip
		}
	}
	return sent
}

// streamRun drains one run's event channel in emission order, updating
// the registry and broadcasting each event. The drain goroutine is the
// only consumer of the channel, so transport never reorders events.
func (s *Server) streamRun(ctx context.Context, runID string, events <-chan pipeline.Event) {
	defer s.wg.Done()

	s.runs.setStatus(runID, RunRunning)

	var terminal bool
	for ev := range events {
		switch v := ev.(type) {
		case pipeline.CompleteEvent:
			s.runs.finish(runID, RunComplete, v.Result, "")
			terminal = true
		case pipeline.ErrorEvent:
			// Group-scoped errors keep the run going; run-level errors
			// (no supplier) are terminal
			if v.Supplier == "" {
				s.runs.finish(runID, RunFailed, v.Partial, v.Message)
				terminal = true
			}
		}

		data, err := pipeline.EncodeEvent(ev)
		if err != nil {
			s.logger.Errorw("Failed to encode pipeline event",
				"run_id", runID, "step", ev.Step(), "error", err)
			continue
		}

		sent := s.broadcastMessage(PipelineEventMessage{
			Type:      "pipeline_event",
			RunID:     runID,
			Event:     data,
			Timestamp: time.Now().Unix(),
		})
		s.logger.Debugw("Broadcasted pipeline event",
			"run_id", runID, "step", ev.Step(), "clients", sent)
	}

	// Channel closed without a terminal event: the caller context died
	if !terminal {
		msg := "run aborted"
		if err := ctx.Err(); err != nil {
			msg = err.Error()
		}
		s.runs.finish(runID, RunFailed, nil, msg)
	}
}
