// Package render turns LaTeX source into a PDF by running an external LaTeX engine.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	EngineXeLaTeX  = "xelatex"
	EngineLuaLaTeX = "lualatex"
	EnginePDFLaTeX = "pdflatex"
	EngineTectonic = "tectonic"
	EngineLatexmk  = "latexmk"

	// DefaultEngine matches the bxjsarticle class emitted by texd, which expects xelatex
	DefaultEngine = EngineXeLaTeX
	// DefaultTimeout bounds a single engine run
	DefaultTimeout = 2 * time.Minute

	jobName = "texd"
	// maxLogTail is how much of the engine output is kept in errors
	maxLogTail = 2048
)

func init() {
	// keep pdfcpu from creating a config directory under the user's home
	model.ConfigPath = "disable"
}

// ErrNoPDF is returned when the engine exits cleanly without producing a PDF
var ErrNoPDF = errors.New("engine did not produce a pdf")

// Result of a successful render
type Result struct {
	PDF   []byte
	Pages int
	// Combined engine stdout and stderr
	Log string
}

// Engine runs a LaTeX engine in a scratch directory
type Engine struct {
	// Engine name or path, eg xelatex or /usr/local/bin/tectonic
	Command string
	// Extra arguments placed before the engine's own arguments
	Args    []string
	Timeout time.Duration

	conf *model.Configuration
}

func NewEngine(command string, args []string, timeout time.Duration) *Engine {
	if command == "" {
		command = DefaultEngine
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		Command: command,
		Args:    args,
		Timeout: timeout,
		conf:    model.NewDefaultConfiguration(),
	}
}

// Available reports whether the engine binary can be found
func (e *Engine) Available() error {
	if _, err := exec.LookPath(e.Command); err != nil {
		return fmt.Errorf("latex engine %q not found: %w", e.Command, err)
	}
	return nil
}

// Render compiles latex and returns the produced PDF.
//
// resourceDir is added to TEXINPUTS so documents can include files that sit
// next to their source; it may be empty.
func (e *Engine) Render(ctx context.Context, latex string, resourceDir string) (*Result, error) {
	if err := e.Available(); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "texd-render-*")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	texFile := jobName + ".tex"
	if err := os.WriteFile(filepath.Join(workDir, texFile), []byte(latex), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", texFile, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	args := append(append([]string{}, e.Args...), engineArgs(e.Command, texFile, workDir)...)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Dir = workDir
	cmd.WaitDelay = time.Second
	if resourceDir != "" {
		cmd.Env = append(os.Environ(), "TEXINPUTS=."+string(os.PathListSeparator)+resourceDir+string(os.PathListSeparator))
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	slog.Debug("running latex engine", "engine", e.Command, "args", args, "dir", workDir)
	runErr := cmd.Run()
	log := out.String()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("latex engine timed out after %s", e.Timeout)
	}
	if runErr != nil {
		return nil, fmt.Errorf("latex engine %s failed: %w\n%s", e.Command, runErr, tail(log))
	}

	pdfPath := filepath.Join(workDir, jobName+".pdf")
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w\n%s", ErrNoPDF, tail(log))
	}

	if err := api.ValidateFile(pdfPath, e.conf); err != nil {
		return nil, fmt.Errorf("engine produced an invalid pdf: %w", err)
	}
	pdfCtx, err := api.ReadContextFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	slog.Debug("latex engine finished", "engine", e.Command, "pages", pdfCtx.PageCount, "bytes", len(pdf), "duration", time.Since(start))

	return &Result{PDF: pdf, Pages: pdfCtx.PageCount, Log: log}, nil
}

// engineArgs builds the engine specific arguments for a non-interactive run
func engineArgs(command, texFile, outDir string) []string {
	switch strings.TrimSuffix(filepath.Base(command), ".exe") {
	case EngineTectonic:
		return []string{"--outdir", outDir, texFile}
	case EngineLatexmk:
		return []string{"-xelatex", "-interaction=nonstopmode", "-halt-on-error", "-outdir=" + outDir, texFile}
	default:
		return []string{"-interaction=nonstopmode", "-halt-on-error", "-output-directory=" + outDir, texFile}
	}
}

func tail(log string) string {
	if len(log) <= maxLogTail {
		return log
	}
	return "..." + log[len(log)-maxLogTail:]
}
