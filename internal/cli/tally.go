package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/analysis"
	"github.com/roach88/pulsenet/internal/engine"
)

// TallyOptions holds flags for the tally command.
type TallyOptions struct {
	*RootOptions
	Presses int
}

type tallyOutput struct {
	analysis.TallyResult
}

func (t tallyOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "presses: %d\n", t.Presses)
	fmt.Fprintf(w, "low:     %d\n", t.Low)
	fmt.Fprintf(w, "high:    %d\n", t.High)
	fmt.Fprintf(w, "product: %d\n", t.Product)
}

// NewTallyCommand creates the tally command.
func NewTallyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TallyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tally <network>",
		Short: "Count low and high pulses over a number of presses",
		Long: `Press the button repeatedly and count every pulse delivered,
including the button's own low pulse. Prints both totals and their product.

Examples:
  pulsenet tally ./network.txt
  pulsenet tally ./network.txt --presses 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTally(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Presses, "presses", 1000, "number of button presses")

	return cmd
}

func runTally(opts *TallyOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Presses < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--presses must be non-negative, got %d", opts.Presses))
	}

	loaded, err := LoadNetwork(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	sim := engine.NewSimulator(loaded.Graph, engine.WithLogger(logger))
	res, err := analysis.Tally(sim, opts.Presses,
		analysis.WithContext(ctx),
		analysis.WithLogger(logger))
	if err != nil {
		return outputRunError(formatter, err)
	}

	return formatter.Success(tallyOutput{res})
}
