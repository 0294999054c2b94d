package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/replenix/replenix/config"
	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/snapshot"
	"github.com/replenix/replenix/version"
)

// maxUploadBytes bounds the snapshot upload size (32 MB).
const maxUploadBytes = 32 << 20

// HandleHealth reports liveness and the current client/run counts.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	s.mu.RLock()
	clients := len(s.clients)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"version":     version.Version,
		"clients":     clients,
		"runs":        len(s.runs.list()),
		"config_file": config.GetViper().ConfigFileUsed(),
	})
}

// HandlePipelineRun accepts a multipart CSV snapshot upload and starts a
// pipeline run. Responds immediately with the run ID; progress streams
// over the WebSocket.
func (s *Server) HandlePipelineRun(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDomainError(w, errors.NewInvalidRequestError("invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDomainError(w, errors.NewInvalidRequestError("missing file field"))
		return
	}
	defer file.Close()

	rows, err := snapshot.ParseCSV(file)
	if err != nil {
		writeDomainError(w, errors.NewInvalidRequestError("failed to parse CSV: %v", err))
		return
	}

	run := &Run{
		ID:        uuid.NewString(),
		Filename:  header.Filename,
		Status:    RunStarted,
		StartedAt: time.Now(),
	}
	s.runs.add(run)

	s.logger.Infow("Pipeline run started",
		"run_id", run.ID, "filename", header.Filename, "rows", len(rows))

	// The run outlives the HTTP request; it is bound to the server's
	// lifecycle, not the upload's
	events := s.runner.RunSnapshot(s.ctx, rows, header.Filename)
	s.wg.Add(1)
	go s.streamRun(s.ctx, run.ID, events)

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": run.ID})
}

// HandleRuns lists all runs known to this server instance.
func (s *Server) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": s.runs.list()})
}

// HandleRunStatus returns one run's state by ID.
func (s *Server) HandleRunStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	parts := extractPathParts(r.URL.Path, "/api/pipeline/runs/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing run ID")
		return
	}

	run, err := s.runs.get(parts[0])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
