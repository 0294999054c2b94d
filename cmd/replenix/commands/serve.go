package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/replenix/replenix/config"
	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/gen"
	"github.com/replenix/replenix/logger"
	"github.com/replenix/replenix/pipeline"
	"github.com/replenix/replenix/replen"
	"github.com/replenix/replenix/server"
)

// ServeCmd starts the pipeline server.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the replenishment pipeline server",
	Long: `Launch the HTTP/WebSocket server. Snapshot uploads to
/api/pipeline/run start runs; progress events stream to all clients
connected at /ws.`,
	RunE: runServe,
}

var servePort int

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

// buildOrchestrator assembles the pipeline with its default
// collaborators from config. The caller owns the returned closer.
func buildOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, *gen.HistoryStore, error) {
	history, err := gen.OpenHistoryStore(cfg.Retrieval.HistoryDBPath, cfg.Retrieval.MaxSnippets)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open history store")
	}

	o := pipeline.NewOrchestrator(
		gen.NewLocalGenerator(&cfg.Inference),
		history,
		gen.MarkdownRenderer{},
		pipeline.WithPolicy(replen.Policy{
			SafetyMargin: cfg.Pipeline.SafetyMargin,
			Evaluation:   cfg.Pipeline.Evaluation,
		}),
		pipeline.WithEventBuffer(cfg.Pipeline.EventBuffer),
		pipeline.WithRunTimeout(time.Duration(cfg.Pipeline.RunTimeoutSeconds)*time.Second),
	)
	return o, history, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	orchestrator, history, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	srv := server.NewServer(orchestrator, cfg)

	// Reload notice only; a restart picks up changed settings
	if watcher, werr := config.NewConfigWatcher(config.UserConfigPath()); werr == nil {
		watcher.OnReload(func(c *config.Config) error {
			logger.Infow("Configuration file changed, restart to apply")
			return nil
		})
		watcher.Start()
		config.SetGlobalWatcher(watcher)
		defer watcher.Stop()
	} else {
		logger.Debugw("Config watcher unavailable", "error", werr)
	}

	port := cfg.ServerPort()
	if servePort > 0 {
		port = servePort
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Infow("Shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
