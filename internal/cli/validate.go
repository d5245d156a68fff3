package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/ir"
)

// ValidationResult summarizes a network that built successfully.
type ValidationResult struct {
	Valid         bool                  `json:"valid"`
	Network       string                `json:"network"`
	NetworkHash   string                `json:"network_hash"`
	Modules       int                   `json:"modules"`
	Kinds         map[string]int        `json:"kinds"`
	ImplicitSinks []string              `json:"implicit_sinks"`
	Loops         []compiler.LoopReport `json:"loops"`
}

// RenderText prints the summary followed by one line per feedback loop.
func (r ValidationResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "\u2713 %s is valid\n", r.Network)
	fmt.Fprintf(w, "  %d modules:", r.Modules)
	for _, k := range []ir.Kind{ir.KindBroadcaster, ir.KindFlipFlop, ir.KindConjunction, ir.KindSink} {
		fmt.Fprintf(w, " %d %s", r.Kinds[k.String()], k)
	}
	fmt.Fprintln(w)
	if len(r.ImplicitSinks) > 0 {
		fmt.Fprintf(w, "  implicit sinks: %s\n", strings.Join(r.ImplicitSinks, ", "))
	}
	for _, loop := range r.Loops {
		fmt.Fprintf(w, "  loop: %s\n", loop.Message)
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <network>",
		Short: "Build a network and report its structure",
		Long: `Parse and build a network without pressing the button.

Reports module counts by kind, targets that were never declared (they
become sinks), and feedback loops. Loops are informational: conjunction
feedback is how these networks count.

Examples:
  pulsenet validate ./network.txt
  pulsenet validate ./network.cue --format json
  pulsenet validate ./cue-dir`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := LoadNetwork(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Read %d file(s) from %s", loaded.FileCount, path)

	hash, err := ir.NetworkHash(loaded.Rules)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash network", err)
	}

	kinds := make(map[string]int)
	for k, n := range loaded.Graph.KindCounts() {
		kinds[k.String()] = n
	}

	sinks := loaded.Graph.ImplicitSinks()
	if sinks == nil {
		sinks = []string{}
	}

	return formatter.Success(ValidationResult{
		Valid:         true,
		Network:       path,
		NetworkHash:   hash,
		Modules:       loaded.Graph.Len(),
		Kinds:         kinds,
		ImplicitSinks: sinks,
		Loops:         compiler.AnalyzeLoops(loaded.Rules),
	})
}
