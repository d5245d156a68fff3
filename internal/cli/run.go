package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Presses  int

	// RunIDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator engine.RunIDGenerator
}

// RunResult summarizes a persisted run.
type RunResult struct {
	RunID       string `json:"run_id"`
	Presses     int    `json:"presses"`
	Events      int    `json:"events"`
	Low         int64  `json:"low"`
	High        int64  `json:"high"`
	NetworkHash string `json:"network_hash"`
	TraceHash   string `json:"trace_hash"`
}

func (r RunResult) RenderText(w io.Writer) {
	fmt.Fprintln(w, r.RunID)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <network>",
		Short: "Simulate presses and persist the full trace",
		Long: `Press the button and store the network, every delivered pulse and
the trace hash in a SQLite database (created if it doesn't exist).

Prints the run ID, which trace and replay accept.

Example:
  pulsenet run --db ./pulsenet.db ./network.txt
  pulsenet run --db ./pulsenet.db --presses 100 ./network.cue --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNetwork(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Presses, "presses", 1, "number of button presses")

	return cmd
}

func runNetwork(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Presses < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--presses must be non-negative, got %d", opts.Presses))
	}

	logger.Debug("loading network", "path", path)
	loaded, err := LoadNetwork(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	sim := engine.NewSimulator(loaded.Graph, engine.WithLogger(logger))
	trace, err := engine.Record(sim, opts.Presses)
	if err != nil {
		return outputRunError(formatter, err)
	}

	// Open database (create if not exists)
	logger.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	gen := opts.RunIDGenerator
	if gen == nil {
		gen = engine.UUIDv7Generator{}
	}
	run, err := store.NewRun(gen.Generate(), path, loaded.Rules, opts.Presses, trace)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize run", err)
	}
	if err := st.WriteRun(commandContext(cmd), run, trace); err != nil {
		return WrapExitError(ExitCommandError, "failed to persist run", err)
	}
	logger.Info("run persisted", "run_id", run.ID, "presses", run.Presses, "events", run.Events)

	return formatter.Success(RunResult{
		RunID:       run.ID,
		Presses:     run.Presses,
		Events:      run.Events,
		Low:         run.Low,
		High:        run.High,
		NetworkHash: run.NetworkHash,
		TraceHash:   run.TraceHash,
	})
}

// openExistingStore opens a database that must already exist.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
