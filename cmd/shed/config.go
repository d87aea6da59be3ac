package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/shed/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a shed configuration file against its schema.

Examples:
  shed config validate                 # Validates default config locations
  shed -c shed.toml config validate    # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "as",
						Value: "toml",
						Usage: "Encoding: toml, yaml, json",
					},
				},
				Action: runConfigShow,
			},
		},
	}
}

func loadConfigResult(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

func runConfigValidate(c *cli.Context) error {
	result, err := loadConfigResult(c)
	if err != nil {
		color.New(color.FgRed).Fprintln(c.App.Writer, "Configuration validation failed:")
		fmt.Fprintf(c.App.Writer, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		color.New(color.FgGreen).Fprintf(c.App.Writer, "Configuration valid: %s\n", result.Source)
	} else {
		color.New(color.FgYellow).Fprintln(c.App.Writer, "No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	result, err := loadConfigResult(c)
	if err != nil {
		return err
	}

	content, err := result.Config.Marshal(c.String("as"))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// JSON has no comment syntax.
	if c.String("as") != "json" {
		if result.Source != "" {
			fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", result.Source)
		} else {
			fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
		}
	}
	fmt.Fprint(c.App.Writer, string(content))
	if !strings.HasSuffix(string(content), "\n") {
		fmt.Fprintln(c.App.Writer)
	}
	return nil
}
