package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwtly10/texd/internal/render"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "TEXD"
	DefaultConfigName = "texd"
)

// Options is the merged configuration of a texd run
type Options struct {
	// LaTeX engine used to render the PDF
	Engine string `mapstructure:"engine"`
	// Extra arguments passed to the engine
	EngineArgs []string      `mapstructure:"engineArgs"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// Output directory, relative to the source file unless absolute
	OutDir   string `mapstructure:"outDir"`
	Tex      bool   `mapstructure:"tex"`
	NoPDF    bool   `mapstructure:"noPdf"`
	NoBackup bool   `mapstructure:"noBackup"`
	NoHeader bool   `mapstructure:"noHeader"`
	Debug    bool   `mapstructure:"debug"`

	// Config file that was read, empty when none was found
	ConfigFile string `mapstructure:"-"`
}

// flagKeys maps flag names to config keys
var flagKeys = map[string]string{
	"engine":     "engine",
	"engine-arg": "engineArgs",
	"timeout":    "timeout",
	"out-dir":    "outDir",
	"tex":        "tex",
	"no-pdf":     "noPdf",
	"no-backup":  "noBackup",
	"no-header":  "noHeader",
	"debug":      "debug",
}

// RegisterFlags adds the flags backing configuration keys to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("engine", render.DefaultEngine, "LaTeX engine used to render the pdf (xelatex, lualatex, pdflatex, tectonic, latexmk)")
	fs.StringArray("engine-arg", nil, "Extra argument passed to the engine (can be specified multiple times)")
	fs.Duration("timeout", render.DefaultTimeout, "Maximum time a single engine run may take")
	fs.String("out-dir", "", "Directory for outputs, relative to the source file unless absolute")
	fs.BoolP("tex", "t", false, "Also write the generated .tex file")
	fs.Bool("no-pdf", false, "Do not render the pdf")
	fs.Bool("no-backup", false, "Do not back up an existing .tex file before overwriting it")
	fs.Bool("no-header", false, "Do not write the generated-code header into the .tex file")
	fs.Bool("debug", false, "Enable debug logging")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine", render.DefaultEngine)
	v.SetDefault("engineArgs", []string{})
	v.SetDefault("timeout", render.DefaultTimeout)
	v.SetDefault("outDir", "")
	v.SetDefault("tex", false)
	v.SetDefault("noPdf", false)
	v.SetDefault("noBackup", false)
	v.SetDefault("noHeader", false)
	v.SetDefault("debug", false)
}

// Load merges defaults, the config file, TEXD_* environment variables and
// flags, in increasing order of precedence.
//
// When cfgFile is empty texd.yaml is looked up in the working directory and
// the user config directory, and a missing file is not an error.
func Load(cfgFile string, flags *pflag.FlagSet) (Options, error) {
	var opts Options
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return opts, fmt.Errorf("error reading config file: %w", err)
		}
		slog.Debug("no config file found, using defaults, env and flags")
	} else {
		opts.ConfigFile = v.ConfigFileUsed()
		slog.Debug("using config file", "path", opts.ConfigFile)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return opts, fmt.Errorf("error binding flag '--%s': %w", name, err)
			}
		}
	}

	if err := v.Unmarshal(&opts); err != nil {
		return opts, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	if opts.Timeout <= 0 {
		return opts, fmt.Errorf("timeout must be positive, got %s", opts.Timeout)
	}
	if opts.Engine == "" {
		opts.Engine = render.DefaultEngine
	}

	return opts, nil
}
