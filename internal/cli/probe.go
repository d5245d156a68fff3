package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/analysis"
	"github.com/roach88/pulsenet/internal/engine"
)

// ProbeOptions holds flags for the probe command.
type ProbeOptions struct {
	*RootOptions
	Sink       string
	MaxPresses int
}

// ProbeResult is the first press at which the sink received low.
type ProbeResult struct {
	Sink  string `json:"sink"`
	Press int    `json:"press"`
}

func (p ProbeResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s first received low at press %d\n", p.Sink, p.Press)
}

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProbeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "probe <network>",
		Short: "Press until a sink receives low",
		Long: `Brute-force counterpart of period: press the button until the sink
receives a low pulse and report that press. Only practical for small answers.

Examples:
  pulsenet probe ./network.txt --sink output
  pulsenet probe ./network.txt --max-presses 100`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sink, "sink", "rx", "sink module to watch")
	cmd.Flags().IntVar(&opts.MaxPresses, "max-presses", analysis.DefaultMaxPresses, "give up after this many presses")

	return cmd
}

func runProbe(opts *ProbeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadNetwork(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	sim := engine.NewSimulator(loaded.Graph, engine.WithLogger(logger))
	press, err := analysis.FirstLow(sim, opts.Sink, opts.MaxPresses,
		analysis.WithContext(ctx),
		analysis.WithLogger(logger))
	if err != nil {
		return outputRunError(formatter, err)
	}

	return formatter.Success(ProbeResult{Sink: opts.Sink, Press: press})
}
