package texd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanInline(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		math     bool
		align    bool
		want     string
		wantMath bool
	}{
		{
			name: "text outside math",
			line: "a = b @x@",
			want: "a = b @x@",
		},
		{
			name: "macro with arguments",
			line: "$@SI 163 cm@$",
			want: `$\SI{163}{cm}$`,
		},
		{
			name: "macro without arguments",
			line: "$@alpha@ + 1$",
			want: `$\alpha + 1$`,
		},
		{
			name: "double space yields an empty argument",
			line: "$@f a  b@$",
			want: `$\f{a}{}{b}$`,
		},
		{
			name:     "line starting in math mode",
			line:     "@cos x@ + y",
			math:     true,
			want:     `\cos{x} + y`,
			wantMath: true,
		},
		{
			name:     "unclosed dollar leaves math mode on",
			line:     "see $x",
			want:     "see $x",
			wantMath: true,
		},
		{
			name:     "align marks every equals sign",
			line:     "a = b = c",
			math:     true,
			align:    true,
			want:     "a &= b &= c",
			wantMath: true,
		},
		{
			name:     "equals inside macro arguments is kept",
			line:     "@f a=b@ = c",
			math:     true,
			align:    true,
			want:     `\f{a=b} &= c`,
			wantMath: true,
		},
		{
			name:  "align applies outside dollar math too",
			line:  "x = $y$",
			align: true,
			want:  "x &= $y$",
		},
		{
			name: "multibyte text",
			line: "長さ $@SI 1 m@$",
			want: `長さ $\SI{1}{m}$`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanInline(tt.line, tt.math, tt.align)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.text)
			require.Equal(t, tt.wantMath, got.math)
		})
	}
}

func TestScanInlineEvenTogglesRestoreMathMode(t *testing.T) {
	lines := []string{
		"",
		"$a$",
		"$a$ and $b$",
		"$@f x@$",
		"x $@g a b@ + c$ y",
	}

	for _, line := range lines {
		require.Zero(t, strings.Count(line, "$")%2)
		for _, entry := range []bool{false, true} {
			got, err := scanInline(line, entry, false)
			require.NoError(t, err)
			require.Equal(t, entry, got.math, "line %q entered with math=%v", line, entry)
		}
	}
}

func TestScanInlineErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		math    bool
		kind    ErrorKind
		wantCol int
	}{
		{
			name:    "unterminated macro",
			line:    "$@frac a b",
			kind:    KindUnexpectedEOF,
			wantCol: 2,
		},
		{
			name:    "unterminated macro at end of line",
			line:    "x @",
			math:    true,
			kind:    KindUnexpectedEOF,
			wantCol: 3,
		},
		{
			name:    "dollar inside macro",
			line:    "@f $x@",
			math:    true,
			kind:    KindUnexpectedChar,
			wantCol: 4,
		},
		{
			name:    "empty macro name",
			line:    "$@@$",
			kind:    KindUnsupportedIdentifier,
			wantCol: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scanInline(tt.line, tt.math, false)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, tt.kind, pe.Kind)
			require.Equal(t, tt.wantCol, pe.Column)
		})
	}
}
