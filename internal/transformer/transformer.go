package transformer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jwtly10/texd"
	"github.com/jwtly10/texd/internal/render"
)

type TransformOptions struct {
	// The mode for the .tex writer
	WriterMode texd.WriteMode
	// Write the .tex file
	EmitTex bool
	// Skip rendering the .pdf file
	NoPDF bool
	// If true, no backup will be created before overwriting the .tex file
	NoBackup bool
	// Directory for outputs, relative to the source file unless absolute
	OutDir string
}

func (t *TransformOptions) Pretty() string {
	return fmt.Sprintf("mode=%s tex=%s pdf=%s backup=%s out_dir=%q",
		t.WriterMode,
		boolToText(t.EmitTex),
		boolToText(!t.NoPDF),
		boolToText(!t.NoBackup),
		t.OutDir)
}

func boolToText(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Renderer turns LaTeX source into a PDF, see render.Engine
type Renderer interface {
	Render(ctx context.Context, latex string, resourceDir string) (*render.Result, error)
}

type Transformer struct {
	parser   *texd.Parser
	writer   *texd.Writer
	backup   *texd.BackupManager
	renderer Renderer

	opts TransformOptions
}

// NewTransformer creates a new Transformer instance with the specified options [TransformOptions].
//
// renderer may be nil when opts.NoPDF is set.
func NewTransformer(opts TransformOptions, renderer Renderer) *Transformer {
	return &Transformer{
		parser:   texd.NewParser(),
		writer:   texd.NewWriter(opts.WriterMode),
		backup:   texd.NewBackupManager(),
		renderer: renderer,
		opts:     opts,
	}
}

type Source struct {
	Content  io.Reader
	Metadata texd.MetaData
}

// Result lists the artifacts a transformation wrote. Paths are empty for
// artifacts that were not requested.
type Result struct {
	Document *texd.Document
	TexPath  string
	PDFPath  string
	Pages    int
}

// Transform parses the source and writes the requested artifacts next to it (or into OutDir)
func (t *Transformer) Transform(ctx context.Context, input Source) (*Result, error) {
	slog.Debug("transforming document", "path", input.Metadata.AbsSource, "opts", t.opts.Pretty())
	if input.Metadata.AbsSource == "" {
		return nil, fmt.Errorf("abs source metadata is required for transformation")
	}

	paths, err := texd.ResolveOutputPaths(input.Metadata.AbsSource, t.opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output path error: %w", err)
	}

	doc, err := t.parser.ParseDocument(input.Content, input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	result := &Result{Document: doc}

	if t.opts.EmitTex {
		if err := t.writeTex(doc, paths.Tex); err != nil {
			return nil, err
		}
		result.TexPath = paths.Tex
	}

	if !t.opts.NoPDF {
		pages, err := t.writePDF(ctx, doc, paths.PDF)
		if err != nil {
			return nil, err
		}
		result.PDFPath = paths.PDF
		result.Pages = pages
	}

	return result, nil
}

func (t *Transformer) writeTex(doc *texd.Document, path string) error {
	if err := t.prepareOutput(path); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := t.writer.Write(doc, out, texd.VERSION, time.Now()); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	slog.Debug("wrote tex", "path", path, "lines", len(doc.Lines))
	return nil
}

func (t *Transformer) writePDF(ctx context.Context, doc *texd.Document, path string) (int, error) {
	if t.renderer == nil {
		return 0, fmt.Errorf("no pdf renderer configured")
	}

	res, err := t.renderer.Render(ctx, doc.LaTeX(), filepath.Dir(doc.Metadata.AbsSource))
	if err != nil {
		return 0, fmt.Errorf("render error: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, res.PDF, 0644); err != nil {
		return 0, fmt.Errorf("failed to write pdf: %w", err)
	}

	slog.Debug("wrote pdf", "path", path, "pages", res.Pages)
	return res.Pages, nil
}

// prepareOutput backs up an existing .tex output and makes sure its directory exists
func (t *Transformer) prepareOutput(path string) error {
	if !t.opts.NoBackup {
		bkPath, err := t.backup.CreateBackupOf(path)
		if err != nil {
			return fmt.Errorf("backup error: %w", err)
		}
		if bkPath != "" {
			slog.Info("file already existed. Created backup", "backup", bkPath, "original", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
