package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalLatex = "\\documentclass{article}\n\\begin{document}\nx\n\\end{document}"

func TestEngineArgs(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			name:    "xelatex",
			command: "xelatex",
			want:    []string{"-interaction=nonstopmode", "-halt-on-error", "-output-directory=/w", "texd.tex"},
		},
		{
			name:    "engine given by path",
			command: "/usr/local/bin/lualatex",
			want:    []string{"-interaction=nonstopmode", "-halt-on-error", "-output-directory=/w", "texd.tex"},
		},
		{
			name:    "tectonic",
			command: "tectonic",
			want:    []string{"--outdir", "/w", "texd.tex"},
		},
		{
			name:    "latexmk",
			command: "latexmk",
			want:    []string{"-xelatex", "-interaction=nonstopmode", "-halt-on-error", "-outdir=/w", "texd.tex"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engineArgs(tt.command, "texd.tex", "/w"))
		})
	}
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine("", nil, 0)
	assert.Equal(t, DefaultEngine, e.Command)
	assert.Equal(t, DefaultTimeout, e.Timeout)
}

func TestRenderFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses posix shell scripts as fake engines")
	}

	fakeEngine := func(t *testing.T, script string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "fake-latex")
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755))
		return path
	}

	tests := []struct {
		name    string
		command func(t *testing.T) string
		timeout time.Duration
		wantErr string
		wantIs  error
	}{
		{
			name:    "missing engine",
			command: func(t *testing.T) string { return filepath.Join(t.TempDir(), "no-such-engine") },
			wantErr: "not found",
		},
		{
			name: "engine exits non zero",
			command: func(t *testing.T) string {
				return fakeEngine(t, "echo '! Undefined control sequence.'\nexit 1")
			},
			wantErr: "Undefined control sequence",
		},
		{
			name: "engine produces nothing",
			command: func(t *testing.T) string {
				return fakeEngine(t, "exit 0")
			},
			wantIs: ErrNoPDF,
		},
		{
			name: "engine produces garbage",
			command: func(t *testing.T) string {
				return fakeEngine(t, "echo 'not a pdf' > texd.pdf")
			},
			wantErr: "invalid pdf",
		},
		{
			name: "engine hangs",
			command: func(t *testing.T) string {
				return fakeEngine(t, "exec sleep 5")
			},
			timeout: 100 * time.Millisecond,
			wantErr: "timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.command(t), nil, tt.timeout)

			_, err := e.Render(context.Background(), minimalLatex, "")
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.True(t, errors.Is(err, tt.wantIs), "got %v", err)
			}
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestTail(t *testing.T) {
	short := "short log"
	assert.Equal(t, short, tail(short))

	long := make([]byte, maxLogTail*2)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, tail(string(long)), maxLogTail+3)
}
