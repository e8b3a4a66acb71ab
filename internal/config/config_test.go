package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwtly10/texd/internal/render"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("texd", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "texd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	opts, err := Load("", newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, render.DefaultEngine, opts.Engine)
	assert.Equal(t, render.DefaultTimeout, opts.Timeout)
	assert.Empty(t, opts.EngineArgs)
	assert.Empty(t, opts.OutDir)
	assert.False(t, opts.Tex)
	assert.False(t, opts.NoPDF)
	assert.False(t, opts.NoBackup)
	assert.False(t, opts.NoHeader)
	assert.False(t, opts.Debug)
}

func TestLoadPrecedence(t *testing.T) {
	cfg := writeConfig(t, `engine: lualatex
engineArgs: ["-shell-escape"]
timeout: 30s
outDir: build
tex: true
noBackup: true
`)

	tests := []struct {
		name  string
		env   map[string]string
		args  []string
		check func(t *testing.T, opts Options)
	}{
		{
			name: "config file",
			check: func(t *testing.T, opts Options) {
				assert.Equal(t, "lualatex", opts.Engine)
				assert.Equal(t, []string{"-shell-escape"}, opts.EngineArgs)
				assert.Equal(t, 30*time.Second, opts.Timeout)
				assert.Equal(t, "build", opts.OutDir)
				assert.True(t, opts.Tex)
				assert.True(t, opts.NoBackup)
				assert.False(t, opts.NoPDF)
				assert.Equal(t, cfg, opts.ConfigFile)
			},
		},
		{
			name: "env overrides config file",
			env:  map[string]string{"TEXD_ENGINE": "pdflatex", "TEXD_NOPDF": "true", "TEXD_TIMEOUT": "5s"},
			check: func(t *testing.T, opts Options) {
				assert.Equal(t, "pdflatex", opts.Engine)
				assert.True(t, opts.NoPDF)
				assert.Equal(t, 5*time.Second, opts.Timeout)
				assert.Equal(t, "build", opts.OutDir)
			},
		},
		{
			name: "flags override env",
			env:  map[string]string{"TEXD_ENGINE": "pdflatex", "TEXD_OUTDIR": "env-out"},
			args: []string{"--engine", "tectonic", "--out-dir", "flag-out", "--no-header", "--timeout", "1m"},
			check: func(t *testing.T, opts Options) {
				assert.Equal(t, "tectonic", opts.Engine)
				assert.Equal(t, "flag-out", opts.OutDir)
				assert.True(t, opts.NoHeader)
				assert.Equal(t, time.Minute, opts.Timeout)
			},
		},
		{
			name: "unset flags do not shadow the config file",
			args: []string{"--debug"},
			check: func(t *testing.T, opts Options) {
				assert.True(t, opts.Debug)
				assert.Equal(t, "lualatex", opts.Engine)
				assert.True(t, opts.Tex)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			opts, err := Load(cfg, newFlags(t, tt.args...))
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func TestLoadFindsConfigInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "texd.yaml"), []byte("engine: latexmk\n"), 0644))
	t.Chdir(dir)

	opts, err := Load("", newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "latexmk", opts.Engine)
	assert.Equal(t, "texd.yaml", filepath.Base(opts.ConfigFile))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfgFile func(t *testing.T) string
		args    []string
		wantErr string
	}{
		{
			name: "explicit config file missing",
			cfgFile: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.yaml")
			},
			wantErr: "error reading config file",
		},
		{
			name: "invalid yaml",
			cfgFile: func(t *testing.T) string {
				return writeConfig(t, "engine: [unclosed\n")
			},
			wantErr: "error reading config file",
		},
		{
			name: "non positive timeout",
			cfgFile: func(t *testing.T) string {
				return writeConfig(t, "timeout: 0s\n")
			},
			wantErr: "timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.cfgFile(t), newFlags(t, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
