package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/queryir"
	"github.com/roach88/pulsenet/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Presses  int    // simulated presses (network mode)
	Database string // stored mode
	RunID    string // stored mode

	// Filters, applied in both modes. Zero values do not filter.
	Press     int
	PressFrom int
	PressTo   int
	From      string
	To        string
	Value     string
	Module    string // sender or receiver
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Network string          `json:"network,omitempty"`
	RunID   string          `json:"run_id,omitempty"`
	Events  []ir.TraceEvent `json:"events"`
	Stats   TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the selected events.
type TraceStats struct {
	TotalEvents int   `json:"total_events"`
	Low         int64 `json:"low"`
	High        int64 `json:"high"`
}

// RenderText prints one event per line with its press and sequence number.
func (r TraceResult) RenderText(w io.Writer) {
	if len(r.Events) == 0 {
		fmt.Fprintln(w, "No matching events.")
		return
	}
	press := 0
	for _, e := range r.Events {
		if e.Press != press {
			press = e.Press
			fmt.Fprintf(w, "press %d\n", press)
		}
		fmt.Fprintf(w, "  [%d] %s\n", e.Seq, e)
	}
	fmt.Fprintf(w, "%d events (%d low, %d high)\n", r.Stats.TotalEvents, r.Stats.Low, r.Stats.High)
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [network]",
		Short: "Print the pulses delivered by button presses",
		Long: `Print every pulse in delivery order.

With a network argument the presses are simulated in memory. With --db and
--run the trace of a persisted run is read back instead; filters are then
evaluated by the database.

Examples:
  pulsenet trace ./network.txt
  pulsenet trace ./network.txt --presses 3 --module con
  pulsenet trace --db ./pulsenet.db --run <run-id> --press 2 --value low
  pulsenet trace --db ./pulsenet.db --run <run-id> --press-from 10 --to rx`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Presses, "presses", 1, "number of button presses to simulate")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to read from the database")
	cmd.Flags().IntVar(&opts.Press, "press", 0, "only events of this press")
	cmd.Flags().IntVar(&opts.PressFrom, "press-from", 0, "only events from this press on")
	cmd.Flags().IntVar(&opts.PressTo, "press-to", 0, "only events up to this press")
	cmd.Flags().StringVar(&opts.From, "from", "", "only events sent by this module")
	cmd.Flags().StringVar(&opts.To, "to", "", "only events delivered to this module")
	cmd.Flags().StringVar(&opts.Value, "value", "", "only low or high events")
	cmd.Flags().StringVar(&opts.Module, "module", "", "only events sent or received by this module")

	return cmd
}

func runTrace(opts *TraceOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	filter, err := traceFilter(opts)
	if err != nil {
		return err
	}

	var result TraceResult
	switch {
	case len(args) == 1 && opts.Database == "" && opts.RunID == "":
		result, err = traceNetwork(opts, args[0], filter, formatter, cmd)
	case len(args) == 0 && opts.Database != "" && opts.RunID != "":
		result, err = traceStored(commandContext(cmd), opts, filter)
	default:
		return NewExitError(ExitCommandError, "trace needs either a network argument or both --db and --run")
	}
	if err != nil {
		return err
	}

	if opts.Module != "" {
		result.Events = filterModule(result.Events, opts.Module)
	}
	result.Stats = traceStats(result.Events)
	return formatter.Success(result)
}

func traceNetwork(opts *TraceOptions, path string, filter queryir.EventFilter, f *OutputFormatter, cmd *cobra.Command) (TraceResult, error) {
	if opts.Presses < 0 {
		return TraceResult{}, NewExitError(ExitCommandError, fmt.Sprintf("--presses must be non-negative, got %d", opts.Presses))
	}

	loaded, err := LoadNetwork(path)
	if err != nil {
		return TraceResult{}, outputLoadError(f, err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	sim := engine.NewSimulator(loaded.Graph, engine.WithLogger(logger))
	trace, err := engine.Record(sim, opts.Presses)
	if err != nil {
		return TraceResult{}, outputRunError(f, err)
	}

	events := []ir.TraceEvent{}
	for _, e := range trace {
		if filter.Match(e) {
			events = append(events, e)
		}
	}
	return TraceResult{Network: path, Events: events}, nil
}

func traceStored(ctx context.Context, opts *TraceOptions, filter queryir.EventFilter) (TraceResult, error) {
	st, err := openExistingStore(opts.Database)
	if err != nil {
		return TraceResult{}, err
	}
	defer st.Close()

	if _, err := st.ReadRun(ctx, opts.RunID); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return TraceResult{}, WrapExitError(ExitCommandError, "unknown run", err)
		}
		return TraceResult{}, WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := st.QueryEvents(ctx, filter)
	if err != nil {
		return TraceResult{}, WrapExitError(ExitCommandError, "failed to query events", err)
	}
	return TraceResult{RunID: opts.RunID, Events: events}, nil
}

// traceFilter turns the filter flags into an event filter.
func traceFilter(opts *TraceOptions) (queryir.EventFilter, error) {
	filter := queryir.EventFilter{
		RunID:     opts.RunID,
		Press:     opts.Press,
		PressFrom: opts.PressFrom,
		PressTo:   opts.PressTo,
		From:      opts.From,
		To:        opts.To,
	}
	if opts.Press < 0 || opts.PressFrom < 0 || opts.PressTo < 0 {
		return filter, NewExitError(ExitCommandError, "press filters must be non-negative")
	}
	if opts.PressTo > 0 && opts.PressFrom > opts.PressTo {
		return filter, NewExitError(ExitCommandError,
			fmt.Sprintf("--press-from %d is after --press-to %d", opts.PressFrom, opts.PressTo))
	}
	if opts.Value != "" {
		v, err := ir.ParsePulse(opts.Value)
		if err != nil {
			return filter, WrapExitError(ExitCommandError, "invalid --value", err)
		}
		filter.Value = &v
	}
	return filter, nil
}

func filterModule(events []ir.TraceEvent, module string) []ir.TraceEvent {
	out := []ir.TraceEvent{}
	for _, e := range events {
		if e.From == module || e.To == module {
			out = append(out, e)
		}
	}
	return out
}

func traceStats(events []ir.TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(events)}
	for _, e := range events {
		if e.Value == ir.High {
			stats.High++
		} else {
			stats.Low++
		}
	}
	return stats
}
