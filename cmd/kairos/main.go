// Command kairos evaluates date and time interval arithmetic over CSV and
// Parquet files.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/paveg/kairos/internal/config"
	"github.com/paveg/kairos/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := makeKairosCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
}

// loadConfig reads the --config file when given, and KAIROS_* environment
// variables otherwise. --verbose always wins.
func (g *globalFlags) loadConfig() (config.Config, error) {
	var cfg config.Config
	if g.configPath != "" {
		loaded, err := config.LoadFromFile(g.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadFromEnv()
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("invalid environment config: %w", err)
		}
	}
	if g.verbose {
		cfg.VerboseLogging = true
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func makeKairosCommand() *cobra.Command {
	flags := &globalFlags{}
	command := &cobra.Command{
		Use:     "kairos [command] (flags)",
		Short:   "kairos evaluates date and time interval arithmetic over columnar files.",
		Version: version.Version,
		Long: `kairos evaluates date and time interval arithmetic over columnar files.

Typical usage:
    kairos eval --input events.csv --schema "ts:timestamp[ms],d:date32" --column ts --op + --days 2
        Add two days to every value of column ts and print the rows as JSON lines.

    kairos eval --input events.parquet --column ended --op - --rhs-column started
        Print the interval between two timestamp columns for every row.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.PersistentFlags().StringVar(&flags.configPath, "config", "", "JSON or YAML config file (default: KAIROS_* environment variables)")
	command.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	command.AddCommand(makeEvalCommand(flags))
	command.AddCommand(makeVersionCommand())
	return command
}
