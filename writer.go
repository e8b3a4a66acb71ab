package texd

import (
	"fmt"
	"io"
	"time"
)

// VERSION is stamped into generated headers
const VERSION = "v0.1.0"

type WriteMode int

const (
	// ModePlain writes the LaTeX source only
	ModePlain WriteMode = iota
	// ModePretty prefixes the LaTeX source with a generated-file header
	ModePretty
)

func (m WriteMode) String() string {
	switch m {
	case ModePlain:
		return "Plain"
	case ModePretty:
		return "Pretty"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

type WriterMetadata struct {
	Version   string
	AbsSource string
	Generated string
}

// Writer renders transpiled documents to .tex files
type Writer struct {
	mode WriteMode
}

func NewWriter(mode WriteMode) *Writer {
	return &Writer{mode: mode}
}

func (w *Writer) Mode() WriteMode {
	return w.mode
}

// WriteHeader writes the generated-file header as LaTeX comments
func (w *Writer) WriteHeader(out io.Writer, md WriterMetadata) error {
	header := fmt.Sprintf("%% Code generated by texd %s. DO NOT EDIT.\n%% Source: %s\n%% Generated: %s\n",
		md.Version, md.AbsSource, md.Generated)
	if _, err := io.WriteString(out, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// WriteContent writes the LaTeX source of doc followed by a final newline
func (w *Writer) WriteContent(doc *Document, out io.Writer) error {
	if _, err := io.WriteString(out, doc.LaTeX()+"\n"); err != nil {
		return fmt.Errorf("writing content: %w", err)
	}
	return nil
}

// Write writes doc in the writer's mode, stamping version and now into the header
func (w *Writer) Write(doc *Document, out io.Writer, version string, now time.Time) error {
	if w.mode == ModePretty {
		md := WriterMetadata{
			Version:   version,
			AbsSource: doc.Metadata.AbsSource,
			Generated: now.Format(time.RFC3339),
		}
		if md.AbsSource == "" {
			md.AbsSource = doc.Metadata.Source
		}
		if err := w.WriteHeader(out, md); err != nil {
			return err
		}
	}
	return w.WriteContent(doc, out)
}
