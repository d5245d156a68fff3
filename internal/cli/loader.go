package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

// LoadResult is a network loaded from disk and built into a graph.
type LoadResult struct {
	Path      string
	Rules     []ir.Rule
	Graph     *engine.Graph
	FileCount int // Number of source files read
}

// LoadError represents an error that occurred during network loading.
type LoadError struct {
	Code    string
	Message string
	Line    int       // text format line, 0 if unknown
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Database error

	// Network description errors
	ErrCodeParse       = "E101" // Malformed text rule
	ErrCodeCompile     = "E102" // Malformed CUE module
	ErrCodeDuplicate   = "E103" // Module declared twice
	ErrCodeNoBroadcast = "E104" // No broadcaster declared
	ErrCodeInvalid     = "E105" // Invalid module declaration

	// Analysis errors
	ErrCodeNotPeriodic    = "E_NOT_PERIODIC"
	ErrCodeNonConvergence = "E_NON_CONVERGENCE"
	ErrCodeRuntime        = "E_RUNTIME"
	ErrCodeReplayMismatch = "E_REPLAY_MISMATCH"
	ErrCodeTestFailed     = "E_TEST_FAILED"
)

// LoadNetwork reads a network from a text file, a CUE file or a directory
// of CUE files, and builds its graph.
func LoadNetwork(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("network not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing network: %v", err)}
	}

	result := &LoadResult{Path: path, FileCount: 1}
	if info.IsDir() {
		result.Rules, result.FileCount, err = loadCUEDir(path)
	} else {
		result.Rules, err = compiler.LoadFile(path)
	}
	if err != nil {
		return nil, convertLoadError(err)
	}

	result.Graph, err = engine.Build(result.Rules)
	if err != nil {
		return nil, convertLoadError(err)
	}
	return result, nil
}

// loadCUEDir unifies every .cue file in dir and compiles its modules struct.
func loadCUEDir(dir string) ([]ir.Rule, int, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, 0, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, 0, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, 0, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, 0, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, 0, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	rules, err := compiler.CompileModules(value.LookupPath(cue.ParsePath("modules")))
	if err != nil {
		return nil, 0, err
	}
	return rules, len(cueFiles), nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertLoadError maps compiler and engine errors to a LoadError with
// position info.
func convertLoadError(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}

	var parseErr *compiler.ParseError
	if errors.As(err, &parseErr) {
		return &LoadError{Code: ErrCodeParse, Message: parseErr.Message + ": " + parseErr.Text, Line: parseErr.Line}
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{Code: ErrCodeCompile, Message: compileErr.Field + ": " + compileErr.Message, Pos: compileErr.Pos}
	}

	var buildErr *engine.BuildError
	if errors.As(err, &buildErr) {
		return &LoadError{Code: buildErrorCode(buildErr.Code), Message: buildErr.Message, Line: buildErr.Line}
	}

	if errors.Is(err, os.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

func buildErrorCode(code engine.BuildErrorCode) string {
	switch code {
	case engine.ErrCodeDuplicateModule:
		return ErrCodeDuplicate
	case engine.ErrCodeMissingBroadcaster:
		return ErrCodeNoBroadcast
	case engine.ErrCodeInvalidModule:
		return ErrCodeInvalid
	default:
		return ErrCodeGeneric
	}
}

// outputLoadError reports a LoadNetwork failure and returns the command error.
func outputLoadError(f *OutputFormatter, err error) error {
	loadErr := convertLoadError(err)
	if outErr := f.Error(loadErr.Code, loadErr.Error(), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "failed to load network", loadErr)
}

// newFormatter creates the formatter for a command's output streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger configures logging based on the verbose flag.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
// Use command's context if available (for testing), otherwise create one.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping after current press", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}
