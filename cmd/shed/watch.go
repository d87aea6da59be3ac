package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/shed/internal/output"
	"github.com/panbanda/shed/internal/scanner"
	"github.com/panbanda/shed/pkg/models"
	"github.com/panbanda/shed/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-run the analysis whenever source files change",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period after the last change before re-analyzing",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// A redrawn bar would interleave with the re-rendered reports.
	cfg.ShowProgress = false

	paths := getPaths(c)
	watcher, err := watch.NewWatcher(paths[0], cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()
	root := watcher.Root()

	fileCache, err := newCache(cfg)
	if err != nil {
		return err
	}
	a := newAnalyzer(c, cfg, fileCache, root, nil)

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	scan := scanner.NewScanner(cfg)
	session := watch.NewSession(
		func() ([]string, error) { return scan.ScanDir(root) },
		a,
		func(r *models.AnalysisReport) error { return formatter.Output(output.NewAnalysisView(r)) },
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context) {
		if _, err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			color.Red("Error: %v", err)
		}
	}

	run(ctx)
	color.Cyan("Watching %s for changes (Ctrl+C to stop)", root)

	watcher.SetCallback(func(ctx context.Context, changed []string) {
		color.Cyan("\n%d file(s) changed, re-analyzing...", len(changed))
		run(ctx)
	})
	watcher.SetErrorHandler(func(err error) {
		color.Yellow("Watch error: %v", err)
	})

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(c.App.ErrWriter, "\nStopping watch...")
	return nil
}
