package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/cinemap/internal/control"
)

var moviesOnly bool

var searchCmd = &cobra.Command{
	Use:   "search <title>",
	Short: "Search a movie and resolve its filming locations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var locateCmd = &cobra.Command{
	Use:   "locate <name>...",
	Short: "Resolve location names to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLocate,
}

func init() {
	searchCmd.Flags().BoolVar(&moviesOnly, "movie-only", false, "print the movie record without resolving locations")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	app, err := control.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	title := strings.Join(args, " ")
	if moviesOnly {
		movie, err := app.Facade().SearchMovie(ctx, title)
		if err != nil {
			return err
		}
		return printJSON(movie)
	}

	result, err := app.Facade().Explore(ctx, title)
	if result == nil {
		return err
	}
	if perr := printJSON(result); perr != nil {
		return perr
	}
	return err
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := control.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locations, err := app.Facade().ResolveLocations(ctx, args)
	if err != nil {
		return err
	}
	return printJSON(locations)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
