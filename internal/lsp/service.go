package lsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/jwtly10/texd"
	"github.com/jwtly10/texd/internal/transformer"
	"github.com/sourcegraph/go-lsp"
)

// DiagnosticSource is reported as the source of every diagnostic
const DiagnosticSource = "texd"

type DocumentServiceOptions struct {
	// Options for the transformation run when a document is saved
	FinalTransformerOpts transformer.TransformOptions
	// Renders pdfs on save, required unless FinalTransformerOpts.NoPDF is set
	Renderer transformer.Renderer
}

var DefaultDocumentServiceOptions = DocumentServiceOptions{
	FinalTransformerOpts: transformer.TransformOptions{
		WriterMode: texd.ModePretty,
		EmitTex:    true,
		NoPDF:      true,
		NoBackup:   false,
	},
}

func (o DocumentServiceOptions) Validate() error {
	if !o.FinalTransformerOpts.EmitTex && o.FinalTransformerOpts.NoPDF {
		return fmt.Errorf("final transform must write a .tex or a .pdf file")
	}
	if !o.FinalTransformerOpts.NoPDF && o.Renderer == nil {
		return fmt.Errorf("a renderer is required to render pdfs on save")
	}

	return nil
}

// DocumentService keeps the open documents of a client and transpiles them on demand
type DocumentService struct {
	mu sync.RWMutex
	// Latest full text of every open document
	docs map[lsp.DocumentURI]string

	parser *texd.Parser
	// The transformer used for 'final' transformation, on save
	finalTransformer *transformer.Transformer
}

func NewDocumentService(opts DocumentServiceOptions) (*DocumentService, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document service options: %w", err)
	}

	return &DocumentService{
		docs:             make(map[lsp.DocumentURI]string),
		parser:           texd.NewParser(),
		finalTransformer: transformer.NewTransformer(opts.FinalTransformerOpts, opts.Renderer),
	}, nil
}

// Update stores the latest text of a document
func (s *DocumentService) Update(uri lsp.DocumentURI, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

// Text returns the latest text of an open document
func (s *DocumentService) Text(uri lsp.DocumentURI) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[uri]
	return text, ok
}

// Forget drops a closed document
func (s *DocumentService) Forget(uri lsp.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Diagnostics transpiles the open document and reports its error, if any.
//
// The result is never nil so clients clear stale diagnostics.
func (s *DocumentService) Diagnostics(uri lsp.DocumentURI) (lsp.PublishDiagnosticsParams, error) {
	params := lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: []lsp.Diagnostic{}}

	text, ok := s.Text(uri)
	if !ok {
		return params, fmt.Errorf("document not open: %s", uri)
	}

	if _, err := s.parse(uri, text); err != nil {
		params.Diagnostics = append(params.Diagnostics, toDiagnostic(err, text))
	}

	slog.Debug("computed diagnostics", "uri", uri, "count", len(params.Diagnostics))
	return params, nil
}

// Preview returns the LaTeX the open document transpiles to
func (s *DocumentService) Preview(uri lsp.DocumentURI) (string, error) {
	text, ok := s.Text(uri)
	if !ok {
		return "", fmt.Errorf("document not open: %s", uri)
	}

	doc, err := s.parse(uri, text)
	if err != nil {
		return "", err
	}
	return doc.LaTeX(), nil
}

// TransformFinalDoc writes the final outputs of a document, see [DocumentServiceOptions.FinalTransformerOpts]
func (s *DocumentService) TransformFinalDoc(ctx context.Context, uri lsp.DocumentURI) (*transformer.Result, error) {
	text, ok := s.Text(uri)
	if !ok {
		return nil, fmt.Errorf("document not open: %s", uri)
	}

	path, err := s.URIToPath(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid document URI: %w", err)
	}

	source := transformer.Source{
		Content: strings.NewReader(text),
		Metadata: texd.MetaData{
			Source:    path,
			AbsSource: path,
		},
	}

	res, err := s.finalTransformer.Transform(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("transform error: %w", err)
	}

	slog.Debug("transformed document", "uri", uri, "tex", res.TexPath, "pdf", res.PDFPath)
	return res, nil
}

func (s *DocumentService) parse(uri lsp.DocumentURI, text string) (*texd.Document, error) {
	md := texd.MetaData{Source: string(uri)}
	if path, err := s.URIToPath(uri); err == nil {
		md.Source = path
		md.AbsSource = path
	}
	return s.parser.ParseDocument(strings.NewReader(text), md)
}

// URIToPath converts an LSP URI to a filesystem path
func (s *DocumentService) URIToPath(uri lsp.DocumentURI) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// PathToURI converts a filesystem path to an LSP URI
func (s *DocumentService) PathToURI(path string) lsp.DocumentURI {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return lsp.DocumentURI(u.String())
}

// toDiagnostic positions a transpile error in text.
//
// Errors without a line, such as an unterminated front matter, point at the
// last line. Errors without a column span the whole line.
func toDiagnostic(err error, text string) lsp.Diagnostic {
	d := lsp.Diagnostic{
		Severity: lsp.Error,
		Source:   DiagnosticSource,
		Message:  err.Error(),
	}

	var pe *texd.ParseError
	if !errors.As(err, &pe) {
		return d
	}

	d.Code = pe.Kind.String()
	d.Message = pe.Detail()

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	line := len(lines) - 1
	if pe.Line > 0 && pe.Line <= len(lines) {
		line = pe.Line - 1
	}
	runes := []rune(strings.TrimSuffix(lines[line], "\r"))

	start, end := 0, len(runes)
	if pe.Column > 0 {
		start = min(pe.Column-1, len(runes))
		width := 1
		if pe.Ident != "" {
			width = len([]rune(pe.Ident))
		}
		end = min(start+width, len(runes))
	}

	d.Range = lsp.Range{
		Start: lsp.Position{Line: line, Character: utf16Len(runes[:start])},
		End:   lsp.Position{Line: line, Character: utf16Len(runes[:end])},
	}
	return d
}

// utf16Len counts UTF-16 code units, the unit of LSP character offsets
func utf16Len(runes []rune) int {
	n := 0
	for _, r := range runes {
		n += utf16.RuneLen(r)
	}
	return n
}
