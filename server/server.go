// Package server exposes the replenishment pipeline over HTTP and
// WebSocket: snapshot uploads start runs, progress events stream to all
// connected clients, run state is queryable while the server lives.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/replenix/replenix/config"
	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/logger"
	"github.com/replenix/replenix/pipeline"
	"github.com/replenix/replenix/snapshot"
)

// maxClients bounds concurrent WebSocket connections.
const maxClients = 64

// PipelineRunner starts one pipeline run and streams its events.
type PipelineRunner interface {
	RunSnapshot(ctx context.Context, rows []snapshot.RawRow, sourceFilename string) <-chan pipeline.Event
}

// Server is the WebSocket hub and HTTP front end for pipeline runs.
type Server struct {
	runner PipelineRunner
	runs   *runRegistry
	cfg    *config.Config

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	httpServer *http.Server
	logger     *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer builds a server around a pipeline runner.
func NewServer(runner PipelineRunner, cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		runner:     runner,
		runs:       newRunRegistry(),
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes client registration until shutdown. Runs on its own
// goroutine, started by Start.
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.closeAllClients()
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		}
	}
}

func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()
	if len(s.clients) >= maxClients {
		s.mu.Unlock()
		s.logger.Warnw("Client limit reached, rejecting connection",
			"client_id", client.id, "limit", maxClients)
		client.close()
		return
	}
	s.clients[client] = true
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client connected", "client_id", client.id, "clients", count)
}

func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		client.close()
	}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client disconnected", "client_id", client.id, "clients", count)
}

func (s *Server) closeAllClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		client.close()
	}
	s.clients = make(map[*Client]bool)
}

// setupHTTPRoutes configures all HTTP handlers.
func (s *Server) setupHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))
	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	mux.HandleFunc("/api/pipeline/run", s.corsMiddleware(s.HandlePipelineRun))
	mux.HandleFunc("/api/pipeline/runs/", s.corsMiddleware(s.HandleRunStatus))
	mux.HandleFunc("/api/pipeline/runs", s.corsMiddleware(s.HandleRuns))
}

// corsMiddleware adds CORS headers using the configured allowed origins.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (s *Server) originAllowed(origin string) bool {
	if s.cfg == nil || len(s.cfg.Server.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Start binds the HTTP server and blocks until it stops. Falls forward
// to the next free port when the requested one is taken.
func (s *Server) Start(port int) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}
	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port, "actual_port", actualPort)
	}

	mux := http.NewServeMux()
	s.setupHTTPRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", actualPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infow("Server ready",
		"url", fmt.Sprintf("http://localhost:%d", actualPort),
		"port", actualPort)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "HTTP server failed")
	}
	return nil
}

// Shutdown stops accepting connections, closes clients and waits for
// in-flight goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Server shutting down")
	s.cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warnw("Shutdown timed out waiting for goroutines")
	}
	return err
}

// findAvailablePort returns port if free, else the next free port above.
func findAvailablePort(port int) (int, error) {
	for p := port; p < port+100; p++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err != nil {
			continue
		}
		ln.Close()
		return p, nil
	}
	return 0, errors.Newf("no available port in range %d-%d", port, port+99)
}
