package texd

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFontSize = "12pt"
	DefaultDate     = `\today`

	frontMatterTerminator = "---"
)

// rawFrontMatter mirrors the yaml layout. Pointers distinguish absent keys from empty values.
type rawFrontMatter struct {
	Config struct {
		FontSize *string  `yaml:"fontsize"`
		Packages []string `yaml:"packages"`
	} `yaml:"config"`
	// Kept as a node so that a present but empty `cover:` is not mistaken for no cover
	Cover yaml.Node `yaml:"cover"`
}

type rawCover struct {
	Title  *string `yaml:"title"`
	Author *string `yaml:"author"`
	Date   *string `yaml:"date"`
}

// ParseFrontMatter parses the front matter block of a document.
//
// src is the text of the block without its terminating `---` line. The
// following keys are understood:
//
//	config:
//	    fontsize: 11pt        # optional, defaults to 12pt
//	    packages:             # required, may be empty
//	        - amsmath
//	        - ja.jsclasses    # rendered as \usepackage[ja]{jsclasses}
//	cover:                    # optional
//	    title: "Example"      # required with cover
//	    author: "Author"      # required with cover
//	    date: "2020-01-01"    # optional, defaults to \today
//
// Any failure is returned as a [ParseError] of kind [KindMetadata].
func ParseFrontMatter(src string) (FrontMatter, error) {
	var raw rawFrontMatter
	if err := yaml.Unmarshal([]byte(src), &raw); err != nil {
		return FrontMatter{}, metadataError("could not parse front matter", err)
	}

	fm := FrontMatter{
		Config: Config{
			FontSize: DefaultFontSize,
			Packages: raw.Config.Packages,
		},
	}
	if raw.Config.FontSize != nil {
		fm.Config.FontSize = *raw.Config.FontSize
	}
	if raw.Config.Packages == nil {
		return FrontMatter{}, metadataError("config.packages is not specified", nil)
	}

	if raw.Cover.Kind == 0 {
		return fm, nil
	}

	var rc rawCover
	if err := raw.Cover.Decode(&rc); err != nil {
		return FrontMatter{}, metadataError("could not parse cover", err)
	}
	if rc.Title == nil {
		return FrontMatter{}, metadataError("title is not specified", nil)
	}
	if rc.Author == nil {
		return FrontMatter{}, metadataError("author is not specified", nil)
	}

	fm.Cover = &Cover{
		Title:  *rc.Title,
		Author: *rc.Author,
		Date:   DefaultDate,
	}
	if rc.Date != nil {
		fm.Cover.Date = *rc.Date
	}

	return fm, nil
}

// Preamble renders everything that precedes the document body, up to and
// including \begin{document} (and \maketitle when a cover is present)
func (fm FrontMatter) Preamble() []string {
	lines := []string{
		fmt.Sprintf(`\documentclass[a4paper,%s,xelatex,ja=standard]{bxjsarticle}`, fm.Config.FontSize),
	}

	for _, pkg := range fm.Config.Packages {
		lines = append(lines, usePackage(pkg))
	}

	if fm.Cover == nil {
		return append(lines, `\begin{document}`)
	}

	return append(lines,
		fmt.Sprintf(`\title{%s}`, fm.Cover.Title),
		fmt.Sprintf(`\author{%s}`, fm.Cover.Author),
		fmt.Sprintf(`\date{%s}`, fm.Cover.Date),
		`\begin{document}`,
		`\maketitle`,
	)
}

// usePackage renders a dotted package specifier. The last component is the
// package name, the others become options in reverse order: a.b.c -> \usepackage[b][a]{c}
func usePackage(pkg string) string {
	parts := strings.Split(pkg, ".")

	var b strings.Builder
	b.WriteString(`\usepackage`)
	for i := len(parts) - 2; i >= 0; i-- {
		b.WriteString("[" + parts[i] + "]")
	}
	b.WriteString("{" + parts[len(parts)-1] + "}")
	return b.String()
}

func isFrontMatterTerminator(line string) bool {
	return strings.HasPrefix(line, frontMatterTerminator)
}
