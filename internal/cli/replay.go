package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/queryir"
	"github.com/roach88/pulsenet/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database    string
	RunID       string // optional - specific run only
	NetworkHash string // optional - runs of one network only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []store.ReplayReport `json:"runs"`
	TotalRuns        int                  `json:"total_runs"`
	AllDeterministic bool                 `json:"all_deterministic"`

	verbose bool
}

// RenderText prints one status line per run.
func (r ReplayResult) RenderText(w io.Writer) {
	if r.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", r.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range r.Runs {
		status := "✓"
		if !run.OK() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		fmt.Fprintf(w, "  Presses: %d, events: %d\n", run.Presses, run.Events)
		if r.verbose || !run.OK() {
			fmt.Fprintf(w, "  Expected hash: %s\n", run.ExpectedHash)
			fmt.Fprintf(w, "  Actual hash:   %s\n", run.ActualHash)
		}
		if !run.StoredIntact {
			fmt.Fprintln(w, "  Warning: stored events no longer match the stored trace hash!")
		}
		if !run.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if r.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
	}
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-simulate stored runs and verify determinism",
		Long: `Rebuild each stored run's network from its persisted rules, press the
button the stored number of times and compare the trace hash. The stored
events are re-hashed too, so a damaged log is reported separately.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  pulsenet replay --db ./pulsenet.db
  pulsenet replay --db ./pulsenet.db --run <run-id>
  pulsenet replay --db ./pulsenet.db --network-hash <hash>
  pulsenet replay --db ./pulsenet.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().StringVar(&opts.NetworkHash, "network-hash", "", "replay runs of this network only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.RunID != "" && opts.NetworkHash != "" {
		return NewExitError(ExitCommandError, "--run and --network-hash are mutually exclusive")
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	// Get run IDs to process
	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runs, err := st.FindRuns(ctx, queryir.RunFilter{NetworkHash: opts.NetworkHash})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	result := ReplayResult{
		Runs:             make([]store.ReplayReport, 0, len(runIDs)),
		TotalRuns:        len(runIDs),
		AllDeterministic: true,
		verbose:          opts.Verbose,
	}

	for _, id := range runIDs {
		report, err := st.ReplayRun(ctx, id, engine.WithLogger(logger))
		if errors.Is(err, store.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, "unknown run", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", id), err)
		}
		logger.Debug("run replayed", "run_id", id, "deterministic", report.Deterministic, "intact", report.StoredIntact)

		result.Runs = append(result.Runs, report)
		if !report.OK() {
			result.AllDeterministic = false
		}
	}

	if result.AllDeterministic {
		return formatter.Success(result)
	}

	if err := formatter.Failure(result, ErrCodeReplayMismatch, "determinism verification failed"); err != nil {
		return err
	}
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
