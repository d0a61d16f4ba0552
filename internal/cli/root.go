package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/cinemap/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "cinemap",
	Short: "CinemaMap movie location service",
	Long:  `CinemaMap finds a movie's filming locations and resolves them to coordinates with encyclopedia descriptions.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, searchCmd, locateCmd)
}

// setup loads .env and the config file, then installs the default logger.
// A missing default config file falls back to built-in defaults with the
// OMDb key taken from OMDB_API_KEY.
func setup(cmd *cobra.Command) (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			stylelog.InitDefault()
			return nil, err
		}
		cfg = config.Default()
		cfg.Upstreams.OMDb.APIKey = os.Getenv("OMDB_API_KEY")
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	} else if cfg.Logging.Level == "warn" {
		slogLevel = slog.LevelWarn
	} else if cfg.Logging.Level == "error" {
		slogLevel = slog.LevelError
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	return cfg, nil
}
