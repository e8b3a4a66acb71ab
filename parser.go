package texd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/jwtly10/texd/internal/textenc"
)

var decoratorRegex = regexp.MustCompile(`^(@{1,2})([a-zA-Z][0-9a-zA-Z]+)(\s+\S+)*\s*$`)

const (
	commandMarker     = "@"
	environmentMarker = "@@"

	// maxLineSize bounds a single source line
	maxLineSize = 1024 * 1024
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseDocument transpiles a texd document into LaTeX.
//
// The document is a front matter block (see [ParseFrontMatter]) followed by
// body lines. Body lines are one of:
//
//	@name a b       a command, \name{a}{b}
//	@@name a b      an environment, \begin{name}{a}{b}, closed by the next blank line
//	@@csv ccc       a table; the next line is its caption, the following lines csv rows
//	(blank)         closes every open environment, innermost first
//	anything else   content, where $@name a b@$ expands to $\name{a}{b}$
//
// Scopes still open at the end of the input are closed as if the document
// ended with a blank line. The first error aborts the pass, no partial
// document is returned.
func (p *Parser) ParseDocument(r io.Reader, md MetaData) (*Document, error) {
	slog.Debug("parsing document", "source", md.Source)

	sc := bufio.NewScanner(textenc.NewReader(r))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	doc := &Document{Metadata: md}
	ps := &pass{}

	var frontMatter strings.Builder
	inFrontMatter := true

	for sc.Scan() {
		ps.line++
		line := sc.Text()

		if inFrontMatter {
			if !isFrontMatterTerminator(line) {
				frontMatter.WriteString(line)
				frontMatter.WriteByte('\n')
				continue
			}

			fm, err := ParseFrontMatter(frontMatter.String())
			if err != nil {
				return nil, ps.at(err)
			}
			doc.FrontMatter = fm
			ps.emit(fm.Preamble()...)
			inFrontMatter = false

			slog.Debug("parsed front matter", "line", ps.line, "fontsize", fm.Config.FontSize, "packages", len(fm.Config.Packages), "cover", fm.Cover != nil)
			continue
		}

		if err := ps.handleLine(line); err != nil {
			return nil, ps.at(err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if inFrontMatter {
		return nil, metadataError("front matter is not terminated by a --- line", nil)
	}

	if ps.scopes.depth() > 0 {
		slog.Debug("closing scopes left open at end of input", "depth", ps.scopes.depth())
		if err := ps.closeScopes(); err != nil {
			return nil, ps.at(err)
		}
	}

	doc.Lines = append(ps.out, `\end{document}`)
	return doc, nil
}

// Transpile is a convenience wrapper around [Parser.ParseDocument] for in memory sources
func Transpile(src string) (string, error) {
	doc, err := NewParser().ParseDocument(strings.NewReader(src), MetaData{})
	if err != nil {
		return "", err
	}
	return doc.LaTeX(), nil
}

// pass is the state of a single transpile pass over one document
type pass struct {
	out    []string
	scopes scopeStack
	// inline math mode, carried across lines
	math bool
	// current 1-indexed source line
	line int
}

func (p *pass) emit(lines ...string) {
	p.out = append(p.out, lines...)
}

// at stamps the current line on errors that do not carry one yet
func (p *pass) at(err error) error {
	if pe, ok := err.(*ParseError); ok && pe.Line == 0 {
		pe.Line = p.line
	}
	return err
}

func (p *pass) handleLine(line string) error {
	if i := strings.Index(line, "$$"); i >= 0 {
		return &ParseError{
			Kind:   KindUnsupportedIdentifier,
			Ident:  "$$",
			Column: utf8.RuneCountInString(line[:i]) + 1,
		}
	}

	if m := decoratorRegex.FindStringSubmatch(line); m != nil {
		return p.handleDecorator(m[1], m[2], strings.Fields(line[len(m[1])+len(m[2]):]))
	}

	if strings.TrimSpace(line) == "" {
		return p.closeScopes()
	}

	return p.handleContent(line)
}

func (p *pass) handleDecorator(marker, name string, args []string) error {
	slog.Debug("decorator", "line", p.line, "marker", marker, "name", name, "args", args)

	if name == tableScopeName {
		p.emit(`\begin{table}[hbtp]`, `\centering`, `\begin{tabular}`+braced(args))
		p.scopes.push(newTableScope(len(p.out) - 1))
		return nil
	}

	switch marker {
	case commandMarker:
		p.emit(command(name, args))
	case environmentMarker:
		p.emit(`\begin{` + name + `}` + braced(args))
		sc := newEnvironmentScope(name)
		if sc.kind == scopeMath {
			p.math = true
		}
		p.scopes.push(sc)
	default:
		r, _ := utf8.DecodeRuneInString(marker)
		return &ParseError{Kind: KindUnexpectedChar, Char: r, Column: 1}
	}

	return nil
}

func (p *pass) handleContent(line string) error {
	res, err := scanInline(line, p.math, p.scopes.align())
	if err != nil {
		return err
	}
	p.math = res.math

	if t := p.scopes.table(); t != nil {
		if t.captionPending {
			// \caption{..} goes before \begin{tabular}, \hline right after it
			i := t.tabularLine
			p.out = slices.Insert(p.out, i, `\caption{`+res.text+`}`)
			p.out = slices.Insert(p.out, i+2, tableRule)
			t.tabularLine++
			p.scopes.shiftTables(i+1, 2)
			t.captionPending = false
			return nil
		}

		if t.firstRowLine == 0 {
			t.firstRowLine = p.line
		}
		t.rows.WriteString(res.text)
		t.rows.WriteByte('\n')
		return nil
	}

	if p.scopes.align() {
		p.emit(res.text + alignRowEnd)
		return nil
	}

	p.emit(res.text)
	return nil
}
