package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/shed/internal/cache"
	"github.com/panbanda/shed/internal/output"
	"github.com/panbanda/shed/internal/progress"
	"github.com/panbanda/shed/internal/scanner"
	"github.com/panbanda/shed/pkg/analyzer/exports"
	"github.com/panbanda/shed/pkg/config"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Report dead exports, unused imports and removal suggestions",
		ArgsUsage: "[path...]",
		Action:    runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	paths := getPaths(c)

	scan := scanner.NewScanner(cfg)
	files, err := scan.ScanPaths(paths)
	if err != nil {
		return err
	}
	if n := scan.Skipped(); n > 0 {
		color.Yellow("Skipped %d file(s) larger than %.1f MB", n, cfg.MaxFileSizeMB)
	}

	fileCache, err := newCache(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bar *progress.Bar
	if cfg.ShowProgress {
		bar = progress.NewBarWriter("Analyzing", c.App.ErrWriter)
	}
	a := newAnalyzer(c, cfg, fileCache, projectPath(paths), bar)

	report, err := a.Analyze(ctx, files)
	if bar != nil {
		if err != nil {
			bar.FinishError(err)
		} else {
			bar.FinishSuccess()
		}
	}
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.NewAnalysisView(report))
}

// newAnalyzer builds an analyzer from the config. fileCache and bar may be nil.
func newAnalyzer(c *cli.Context, cfg *config.Config, fileCache *cache.Cache, project string, bar *progress.Bar) *exports.Analyzer {
	opts := []exports.Option{
		exports.WithChunkSize(cfg.ChunkSize),
		exports.WithWorkers(cfg.Workers),
		exports.WithLogger(newLogger(c)),
	}
	if fileCache != nil {
		opts = append(opts, exports.WithCache(fileCache))
	}
	if project != "" {
		opts = append(opts, exports.WithProjectPath(project))
	}
	if bar != nil {
		opts = append(opts, exports.WithProgress(bar.Update))
	}
	return exports.New(opts...)
}

// newFormatter writes to --output when given, else to the app's writer.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := output.ParseFormat(cfg.Format)
	colored := cfg.Color && !color.NoColor
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, colored)
	}
	return output.NewWriterFormatter(format, c.App.Writer, colored), nil
}

// projectPath returns the absolute directory when a single directory is
// analyzed. Otherwise the analyzer derives it from the files.
func projectPath(paths []string) string {
	if len(paths) != 1 {
		return ""
	}
	info, err := os.Stat(paths[0])
	if err != nil || !info.IsDir() {
		return ""
	}
	abs, err := filepath.Abs(paths[0])
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs
}
