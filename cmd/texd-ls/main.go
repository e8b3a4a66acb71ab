package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwtly10/texd"
	"github.com/jwtly10/texd/internal/lsp/server"
	"github.com/spf13/cobra"
)

// getLogFile returns a log file for the lsp server to write to.
//
// During development (--debug flag) uses persistent log for easy access.
func getLogFile(debug bool) (*os.File, error) {
	if debug {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		logDir := filepath.Join(homeDir, ".texd")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, err
		}
		return os.OpenFile(filepath.Join(logDir, "texd-ls.log"),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	}

	return os.CreateTemp("", "texd-ls-*.log")
}

func main() {
	var debug, noHeader bool

	cmd := &cobra.Command{
		Use:          "texd-ls",
		Short:        "Language server for texd documents, speaking LSP over stdio.",
		Version:      texd.VERSION,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logFile, err := getLogFile(debug)
			if err != nil {
				return err
			}
			defer logFile.Close()

			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			// stdout carries the protocol, logs go to stderr and the log file
			slog.SetDefault(slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, logFile), &slog.HandlerOptions{
				Level:     level,
				AddSource: true,
			})))

			slog.Info("starting texd-ls", "version", texd.VERSION, "logfile", logFile.Name())

			o := server.DefaultServerOptions
			if noHeader {
				o.DocService.FinalTransformerOpts.WriterMode = texd.ModePlain
			}

			s, err := server.NewServer(o)
			if err != nil {
				return err
			}

			<-s.Serve(context.Background(), server.NewStdRWC()).DisconnectNotify()
			slog.Info("client disconnected")
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Do not write the generated-code header into .tex files written on save")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
