package texd

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputPaths are the artifacts produced from one source document
type OutputPaths struct {
	Tex string
	PDF string
}

// ResolveOutputPaths determines the .tex and .pdf paths for a source path.
//
// foo.d.tex produces foo.tex and foo.pdf next to the source, or inside outDir
// when it is set. A relative outDir is taken relative to the source directory.
func ResolveOutputPaths(srcPath, outDir string) (OutputPaths, error) {
	base := filepath.Base(srcPath)
	if !strings.HasSuffix(base, SourceExt) || base == SourceExt {
		return OutputPaths{}, fmt.Errorf("input file must be a %s file: %s", SourceExt, srcPath)
	}

	dir := filepath.Dir(srcPath)
	switch {
	case outDir == "":
	case filepath.IsAbs(outDir):
		dir = outDir
	default:
		dir = filepath.Join(dir, outDir)
	}

	stem := filepath.Join(dir, strings.TrimSuffix(base, SourceExt))
	return OutputPaths{
		Tex: stem + ".tex",
		PDF: stem + ".pdf",
	}, nil
}
