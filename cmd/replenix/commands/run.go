package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/replenix/replenix/config"
	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/pipeline"
	"github.com/replenix/replenix/snapshot"
)

// RunCmd executes one snapshot through the pipeline without the server.
var RunCmd = &cobra.Command{
	Use:   "run <snapshot.csv>",
	Short: "Run one snapshot through the pipeline",
	Long: `Parse a CSV inventory snapshot, compute supplier recommendations,
generate the documents, and print each pipeline event as a JSON line.
With --output, rendered documents are also written to that directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runOnce,
}

var runOutputDir string

func init() {
	RunCmd.Flags().StringVarP(&runOutputDir, "output", "o", "", "Directory to write generated documents into")
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	rows, err := snapshot.ParseCSV(f)
	if err != nil {
		return errors.Wrap(err, "failed to parse snapshot")
	}

	if runOutputDir != "" {
		if err := os.MkdirAll(runOutputDir, config.DefaultDirPermissions); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}

	orchestrator, history, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	var failed bool
	events := orchestrator.RunSnapshot(cmd.Context(), rows, filepath.Base(path))
	for ev := range events {
		data, err := pipeline.EncodeEvent(ev)
		if err != nil {
			return errors.Wrap(err, "failed to encode event")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		switch v := ev.(type) {
		case pipeline.FileReadyEvent:
			if runOutputDir != "" {
				out := filepath.Join(runOutputDir, v.Filename)
				if werr := os.WriteFile(out, []byte(v.Content), config.DefaultFilePermissions); werr != nil {
					return errors.Wrapf(werr, "failed to write %s", out)
				}
			}
		case pipeline.ErrorEvent:
			// Run-level errors have no supplier scope and fail the command
			if v.Supplier == "" {
				failed = true
			}
		}
	}

	if err := cmd.Context().Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if failed {
		return errors.New("pipeline run failed")
	}
	return nil
}
