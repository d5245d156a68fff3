package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/analysis"
	"github.com/roach88/pulsenet/internal/engine"
)

// PeriodOptions holds flags for the period command.
type PeriodOptions struct {
	*RootOptions
	Sink       string
	MaxPresses int
	NoVerify   bool
}

type periodOutput struct {
	analysis.PeriodResult
}

func (p periodOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "sink %s is gated by %s\n", p.Sink, p.Gate)
	for _, f := range p.Feeders {
		if p.Verified {
			fmt.Fprintf(w, "  %-12s first high at press %d, again at %d\n", f.Name, f.First, f.Second)
		} else {
			fmt.Fprintf(w, "  %-12s first high at press %d\n", f.Name, f.First)
		}
	}
	fmt.Fprintf(w, "simulated %d presses\n", p.Presses)
	fmt.Fprintf(w, "lcm: %d\n", p.LCM)
	if !p.Verified {
		fmt.Fprintln(w, "(periodicity not verified)")
	}
}

// NewPeriodCommand creates the period command.
func NewPeriodCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PeriodOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "period <network>",
		Short: "Predict the first press that sends low to a sink",
		Long: `Find the conjunction gating the sink, press until each of its feeders
has sent high to it, and report the LCM of the press indices.

By default each feeder must send high a second time at exactly twice its
first press; otherwise the prediction is rejected. --no-verify accepts the
first occurrence as the period.

Exit codes:
  0 - Period found
  1 - A feeder is not periodic, or the press cap was reached
  2 - Command error (invalid network, unknown sink, etc.)

Examples:
  pulsenet period ./network.txt
  pulsenet period ./network.txt --sink rx --max-presses 20000
  pulsenet period ./network.txt --no-verify --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeriod(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sink, "sink", "rx", "sink module to analyse")
	cmd.Flags().IntVar(&opts.MaxPresses, "max-presses", analysis.DefaultMaxPresses, "give up after this many presses")
	cmd.Flags().BoolVar(&opts.NoVerify, "no-verify", false, "skip the periodicity check")

	return cmd
}

func runPeriod(opts *PeriodOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadNetwork(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	aopts := []analysis.Option{
		analysis.WithContext(ctx),
		analysis.WithLogger(logger),
		analysis.WithMaxPresses(opts.MaxPresses),
	}
	if opts.NoVerify {
		aopts = append(aopts, analysis.WithoutVerification())
	}

	sim := engine.NewSimulator(loaded.Graph, engine.WithLogger(logger))
	res, err := analysis.Period(sim, opts.Sink, aopts...)
	if err != nil {
		return outputRunError(formatter, err)
	}

	return formatter.Success(periodOutput{res})
}
