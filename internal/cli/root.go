package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-hotseat/internal"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/config"
)

var (
	configPath string
	conf       *config.Config
)

// Execute runs the root command. Without a subcommand a console game is started.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tictactoe",
		Short:        "Two-player hot-seat Tic-Tac-Toe",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				baseDir, err := os.Getwd()
				if err != nil {
					return err
				}
				configPath = filepath.Join(baseDir, "config.yml")
			}

			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			conf = loaded

			return nil
		},
		RunE: runPlay,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yml)")

	root.AddCommand(playCmd(), serveCmd())
	return root
}

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play in this terminal",
		RunE:  runPlay,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(os.Stdout, parseLevel(conf.LogLevel))

			return app.RunServer(logger, conf)
		},
	}
}

func runPlay(cmd *cobra.Command, _ []string) error {
	// keep the board readable, only warnings reach the terminal unless debugging
	level := max(parseLevel(conf.LogLevel), slog.LevelWarn)
	if conf.LogLevel == "debug" {
		level = slog.LevelDebug
	}

	logger := newLogger(cmd.ErrOrStderr(), level)

	return app.RunConsole(logger, conf, cmd.InOrStdin(), cmd.OutOrStdout())
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(value string) slog.Level {
	switch value {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
