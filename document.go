package texd

import "strings"

// SourceExt is the extension of texd source documents
const SourceExt = ".d.tex"

// Document represents a transpiled texd source, holding the parsed front matter
// and the emitted LaTeX lines, and any other required metadata about the source file
type Document struct {
	// Metadata about the source file
	Metadata MetaData
	// The parsed front matter block
	FrontMatter FrontMatter
	// Emitted LaTeX lines, terminated by \end{document}
	Lines []string
}

// LaTeX joins the emitted lines into the final LaTeX source
func (d *Document) LaTeX() string {
	return strings.Join(d.Lines, "\n")
}

type MetaData struct {
	// The source file path
	Source string
	// The absolute source file path
	AbsSource string
}

// FrontMatter is the structured header of a document, everything up to
// and including the first line starting with `---`
type FrontMatter struct {
	Config Config `yaml:"config"`
	// Nil when the document has no cover section
	Cover *Cover `yaml:"-"`
}

type Config struct {
	// Font size passed to the document class, eg 11pt
	FontSize string `yaml:"fontsize"`
	// Dotted package specifiers, eg amsmath or ja.jsclasses
	Packages []string `yaml:"packages"`
}

type Cover struct {
	Title  string
	Author string
	// Rendered verbatim, defaults to \today
	Date string
}
