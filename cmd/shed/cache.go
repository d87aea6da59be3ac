package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/shed/internal/cache"
	"github.com/panbanda/shed/internal/output"
	"github.com/panbanda/shed/pkg/config"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the persistent analysis cache (cacheDir)",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show persistent cache statistics",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every persistent cache entry",
				Action: runCacheClear,
			},
		},
	}
}

// openStore returns the configured persistent store, or nil when no
// cacheDir is configured.
func openStore(c *cli.Context, cfg *config.Config) (*cache.Store, error) {
	if cfg.CacheDir == "" {
		color.New(color.FgYellow).Fprintln(c.App.Writer, "No cacheDir configured; the persistent cache is disabled.")
		return nil, nil
	}
	return cache.NewStore(cfg.CacheDir)
}

func runCacheStats(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := openStore(c, cfg)
	if err != nil || store == nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	view := &output.Fields{
		Title: "Analysis Cache",
		Fields: []output.Field{
			{Label: "Cache directory", Value: stats.Dir},
			{Label: "Entries", Value: strconv.Itoa(stats.Entries)},
			{Label: "Total size", Value: fmt.Sprintf("%.1f KB", float64(stats.TotalSize)/1024)},
		},
		Data: stats,
	}
	if stats.Entries > 0 {
		view.Fields = append(view.Fields,
			output.Field{Label: "Oldest entry", Value: stats.OldestAge.Round(time.Second).String() + " ago"},
			output.Field{Label: "Newest entry", Value: stats.NewestAge.Round(time.Second).String() + " ago"},
		)
	}
	return formatter.Output(view)
}

func runCacheClear(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := openStore(c, cfg)
	if err != nil || store == nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	color.New(color.FgGreen).Fprintf(c.App.Writer, "Cleared cache at %s\n", store.Dir())
	return nil
}
