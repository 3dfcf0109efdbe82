package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/andresuchdata/reorder-forecast/internal/app"
	"github.com/andresuchdata/reorder-forecast/internal/config"
	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/andresuchdata/reorder-forecast/internal/report"
	"github.com/andresuchdata/reorder-forecast/pkg/logger"
	"github.com/urfave/cli/v2"
)

type appKey struct{}

func main() {
	cliApp := &cli.App{
		Name:  "forecast",
		Usage: "Forecast reorder quantities from recent point-of-sale history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			{
				Name:   "categories",
				Usage:  "List the categories available for forecasting",
				Action: listCategories,
			},
			{
				Name:  "run",
				Usage: "Run a forecast for one or more categories",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "category",
						Aliases:  []string{"c"},
						Usage:    "Category id to include (repeatable or comma separated)",
						Required: true,
						EnvVars:  []string{"FORECAST_CATEGORIES"},
					},
					&cli.BoolFlag{
						Name:  "show-all",
						Usage: "Include items that need no reorder",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: table, csv or xlsx",
						Value: string(report.FormatTable),
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write the report to this file instead of stdout",
					},
					&cli.StringFlag{
						Name:  "upload-key",
						Usage: "Also upload the report to object storage under this key",
					},
				},
				Action: runForecast,
			},
			{
				Name:  "runs",
				Usage: "Show recent forecast runs from the audit log",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: recentRuns,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("forecast failed")
		stop()
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	cfg := config.Load()
	level := cfg.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger.SetOutput(logger.Console(os.Stderr))
	logger.SetLevel(level)

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, appKey{}, application)
	return nil
}

func teardown(c *cli.Context) error {
	if application, ok := c.Context.Value(appKey{}).(*app.App); ok && application != nil {
		return application.Close()
	}
	return nil
}

func fromContext(c *cli.Context) (*app.App, error) {
	application, ok := c.Context.Value(appKey{}).(*app.App)
	if !ok || application == nil {
		return nil, errors.New("forecast service not initialised")
	}
	return application, nil
}

func listCategories(c *cli.Context) error {
	application, err := fromContext(c)
	if err != nil {
		return err
	}

	categories, err := application.Forecasts.ListCategories(c.Context)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, category := range categories {
		fmt.Fprintf(w, "%s\t%s\n", category.ID, category.Name)
	}
	return w.Flush()
}

func runForecast(c *cli.Context) error {
	application, err := fromContext(c)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	uploadKey := c.String("upload-key")
	if uploadKey != "" && application.Storage == nil {
		return errors.New("--upload-key requires STORAGE_ENABLED=true")
	}

	bundle, err := application.Forecasts.Run(c.Context, splitIDs(c.StringSlice("category")))
	if err != nil {
		return err
	}
	if bundle.Empty {
		fmt.Fprintln(c.App.ErrWriter, "No items found in the selected categories.")
		return nil
	}
	printStageWarnings(c.App.ErrWriter, bundle.Stages)

	data, err := report.Render(format, bundle.Window, report.BuildRows(bundle, c.Bool("show-all")))
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if err := writeOutput(c.App.Writer, c.String("out"), data); err != nil {
		return err
	}

	if uploadKey != "" {
		info, err := application.Storage.UploadObject(c.Context, uploadKey, data, format.ContentType())
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "Uploaded %s (%d bytes)\n", info.Key, info.Size)
	}
	return nil
}

func recentRuns(c *cli.Context) error {
	application, err := fromContext(c)
	if err != nil {
		return err
	}

	runs, err := application.Forecasts.RecentRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tITEMS\tCATEGORIES")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%v\n", run.ID, run.StartedAt.Format("2006-01-02 15:04"), run.Status, run.ItemCount, run.CategoryIDs)
	}
	return w.Flush()
}

func printStageWarnings(w io.Writer, stages []domain.StageReport) {
	for _, stage := range stages {
		if stage.Status == domain.FetchSuccess {
			continue
		}
		fmt.Fprintf(w, "warning: %s fetch %s (%d of %d requests failed)\n", stage.Stage, stage.Status, stage.Failed, stage.Requests)
	}
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// splitIDs flattens repeated and comma separated category flags.
func splitIDs(values []string) []string {
	ids := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
	}
	return ids
}
