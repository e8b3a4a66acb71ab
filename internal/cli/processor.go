package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/jwtly10/texd"
	"github.com/jwtly10/texd/internal/transformer"
)

const (
	maxFiles   = 100
	maxWorkers = 4
)

type TranspileResult struct {
	Path     string
	TexPath  string
	PDFPath  string
	Pages    int
	Duration time.Duration
}

type ProcessResult struct {
	TranspileResult
	Error error
}

type Processor struct {
	transformer *transformer.Transformer
	opts        transformer.TransformOptions
}

func NewProcessor(opts transformer.TransformOptions, renderer transformer.Renderer) *Processor {
	return &Processor{
		transformer: transformer.NewTransformer(opts, renderer),
		opts:        opts,
	}
}

// ProcessPath transpiles a single source file, or every source file below a directory
func (p *Processor) ProcessPath(ctx context.Context, path string) ([]TranspileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path: %w", err)
	}

	if info.IsDir() {
		return p.processDirectory(ctx, path)
	}

	result := p.processFile(ctx, path)
	if result.Error != nil {
		return nil, result.Error
	}

	return []TranspileResult{result.TranspileResult}, nil
}

// findFiles walks the directory tree starting at root and returns a list of source files
//
// If a .git directory is found, it will be used to load .gitignore patterns.
func (p *Processor) findFiles(root string) ([]string, error) {
	var files []string
	var patterns []gitignore.Pattern

	// If .git exists, set up gitignore patterns
	if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
		patterns = append(patterns, gitignore.ParsePattern(".git/", nil))

		if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
			for _, p := range strings.Split(string(data), "\n") {
				if p = strings.TrimSpace(p); p != "" && !strings.HasPrefix(p, "#") {
					patterns = append(patterns, gitignore.ParsePattern(p, nil))
				}
			}
		}
	}

	matcher := gitignore.NewMatcher(patterns)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if len(patterns) > 0 && relPath != "." {
			if matcher.Match(strings.Split(relPath, string(os.PathSeparator)), info.IsDir()) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if !info.IsDir() && strings.HasSuffix(info.Name(), texd.SourceExt) && info.Name() != texd.SourceExt {
			if len(files) >= maxFiles {
				return fmt.Errorf("max files limit reached (%d)", maxFiles)
			}
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found", texd.SourceExt)
	}

	return files, nil
}

func (p *Processor) processDirectory(ctx context.Context, root string) ([]TranspileResult, error) {
	startTime := time.Now()
	slog.Debug("starting directory processing", "path", root, "opts", p.opts.Pretty())
	files, err := p.findFiles(root)
	if err != nil {
		return nil, err
	}

	slog.Debug("found files to process", "count", len(files), "duration", time.Since(startTime))

	jobs := make(chan string, len(files))
	results := make(chan ProcessResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- p.processFile(ctx, path)
			}
		}()
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	var errs []error
	var transpileResults []TranspileResult

	for result := range results {
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("failed to process %s: %w", result.Path, result.Error))
			slog.Error("failed to process file", "path", result.Path, "error", result.Error)
			continue
		}

		r := result.TranspileResult
		r.Path = relTo(absRoot, r.Path)
		r.TexPath = relTo(absRoot, r.TexPath)
		r.PDFPath = relTo(absRoot, r.PDFPath)
		transpileResults = append(transpileResults, r)

		slog.Debug("file transpiled", "source", r.Path, "tex", r.TexPath, "pdf", r.PDFPath)
	}

	if len(errs) > 0 {
		return transpileResults, fmt.Errorf("encountered %d errors during compilation: %w", len(errs), errors.Join(errs...))
	}

	slog.Debug("compilation completed", "duration", time.Since(startTime), "processed", len(transpileResults))
	return transpileResults, nil
}

func (p *Processor) processFile(ctx context.Context, path string) ProcessResult {
	startTime := time.Now()
	var result ProcessResult

	absPath, err := filepath.Abs(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to resolve absolute path: %w", err)
		return result
	}

	result.Path = absPath

	slog.Debug("processing file", "path", absPath)

	content, err := os.ReadFile(absPath)
	if err != nil {
		result.Error = fmt.Errorf("error reading file: %w", err)
		return result
	}

	src := transformer.Source{
		Content: bytes.NewReader(content),
		Metadata: texd.MetaData{
			Source:    path,
			AbsSource: absPath,
		},
	}

	res, err := p.transformer.Transform(ctx, src)
	if err != nil {
		result.Error = err
		return result
	}

	result.TexPath = res.TexPath
	result.PDFPath = res.PDFPath
	result.Pages = res.Pages
	result.Duration = time.Since(startTime)
	slog.Debug("file processed",
		"path", absPath,
		"duration", result.Duration)

	return result
}

func relTo(root, path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
