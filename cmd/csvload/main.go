package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"csvload/internal/config"
	"csvload/internal/logging"
	"csvload/internal/orchestrator"
	"csvload/internal/util"
	"csvload/internal/version"

	// Target store backends register themselves on import.
	_ "csvload/internal/store/mssql"
	_ "csvload/internal/store/postgres"
	_ "csvload/internal/store/sqlite"
)

func main() {
	app := &cli.App{
		Name:    version.Name,
		Usage:   version.Description,
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Infer a schema from a delimited file and load it into a typed store",
				ArgsUsage: "<inputFile>",
				Action:    runLoad,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "delimiter",
						Aliases: []string{"d"},
						Usage:   "Field delimiter (single character)",
					},
					&cli.StringFlag{
						Name:  "primary-key",
						Usage: "Header field to declare as the primary key",
					},
					&cli.StringFlag{
						Name:  "ignore",
						Usage: "Comma-separated header fields to exclude",
					},
					&cli.Int64Flag{
						Name:  "compact-every",
						Usage: "Compact the store after this many rows (0 disables)",
						Value: -1,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Rows per insert statement",
					},
					&cli.StringFlag{
						Name:  "driver",
						Usage: "Target store driver: sqlite, postgres, mssql",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Target store path (sqlite; default derives from input name)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Infer and print the schema without loading",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runLoad(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	logging.SetFormat(cfg.LogFormat)

	if c.Bool("dry-run") {
		summary, err := orchestrator.DescribeSchema(cfg)
		if err != nil {
			return err
		}
		fmt.Print(summary)
		return nil
	}

	// A second signal falls through to the default handler and kills the
	// process; the first one cancels the run cleanly.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted.")
		cancel()
		signal.Stop(sigCh)
	}()

	return orchestrator.Run(ctx, cfg)
}

// buildConfig layers defaults, the optional config file, and flags.
func buildConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.Args().Len() > 0 {
		cfg.Input = c.Args().First()
	}
	if c.IsSet("delimiter") {
		cfg.Delimiter = c.String("delimiter")
	}
	if c.IsSet("primary-key") {
		cfg.PrimaryKey = c.String("primary-key")
	}
	if c.IsSet("ignore") {
		cfg.IgnoreFields = util.SplitCSV(c.String("ignore"))
	}
	if v := c.Int64("compact-every"); v >= 0 {
		cfg.CompactEvery = v
	}
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("driver") {
		cfg.Target.Driver = c.String("driver")
	}
	if c.IsSet("output") {
		cfg.Target.Path = c.String("output")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
