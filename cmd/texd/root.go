package main

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
	"time"

	"github.com/jwtly10/texd"
	"github.com/jwtly10/texd/internal/cli"
	"github.com/jwtly10/texd/internal/config"
	"github.com/jwtly10/texd/internal/render"
	"github.com/jwtly10/texd/internal/transformer"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile   string
		printOnly bool
	)

	cmd := &cobra.Command{
		Use:   "texd <input>",
		Short: "Transpiles texd documents to LaTeX and renders them to PDF.",
		Long: `texd reads a document made of a YAML front matter block and a body of
LaTeX with decorators (@cmd, @@env, @@csv) and inline macros ($@frac a b@$),
and writes the equivalent LaTeX document.

The input is a single .d.tex file or a directory, in which case every .d.tex
file below it is processed (honouring .gitignore inside a git work tree).
By default only the pdf is written; use --tex to keep the generated .tex file.`,
		Version:       texd.VERSION,
		Args:          cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), opts.Debug)

			if printOnly {
				return printLaTeX(cmd.OutOrStdout(), args[0])
			}

			return run(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")

	cmd.Flags().StringVar(&cfgFile, "config", "", "Configuration file path (default is ./texd.yaml, then the user config directory)")
	cmd.Flags().BoolVarP(&printOnly, "print", "p", false, "Print the generated LaTeX to stdout instead of writing files")
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
}

func run(ctx context.Context, out io.Writer, input string, opts config.Options) error {
	tOpts := transformer.TransformOptions{
		WriterMode: texd.ModePretty,
		EmitTex:    opts.Tex,
		NoPDF:      opts.NoPDF,
		NoBackup:   opts.NoBackup,
		OutDir:     opts.OutDir,
	}
	if opts.NoHeader {
		tOpts.WriterMode = texd.ModePlain
	}

	if !tOpts.EmitTex && tOpts.NoPDF {
		return errors.New("nothing to do: --no-pdf without --tex writes no output")
	}

	var renderer transformer.Renderer
	if !tOpts.NoPDF {
		engine := render.NewEngine(opts.Engine, opts.EngineArgs, opts.Timeout)
		if err := engine.Available(); err != nil {
			return fmt.Errorf("%w (use --no-pdf --tex to only write LaTeX)", err)
		}
		renderer = engine
	}

	slog.Debug("running texd", "input", input, "opts", tOpts.Pretty(), "engine", opts.Engine)

	start := time.Now()
	results, err := cli.NewProcessor(tOpts, renderer).ProcessPath(ctx, input)
	for _, r := range results {
		if r.TexPath != "" {
			fmt.Fprintf(out, "Wrote %s to %s\n", r.Path, r.TexPath)
		}
		if r.PDFPath != "" {
			fmt.Fprintf(out, "Wrote %s to %s (%d pages)\n", r.Path, r.PDFPath, r.Pages)
		}
	}
	if err != nil {
		return err
	}

	slog.Debug("done", "files", len(results), "duration", time.Since(start))
	return nil
}

// printLaTeX transpiles a single file and writes the LaTeX without a header
func printLaTeX(out io.Writer, input string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	abs, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	doc, err := texd.NewParser().ParseDocument(f, texd.MetaData{Source: input, AbsSource: abs})
	if err != nil {
		return fmt.Errorf("error parsing document: %w", err)
	}

	return texd.NewWriter(texd.ModePlain).Write(doc, out, texd.VERSION, time.Now())
}
