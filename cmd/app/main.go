package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/odshub/internal"
	"github.com/starford/odshub/internal/mcpserver"
	"github.com/starford/odshub/internal/parser"
	"github.com/starford/odshub/internal/render"
	pkgconfig "github.com/starford/odshub/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// serveMCP runs the MCP server on stdio. Logs go to stderr so they do not
// corrupt the protocol stream.
func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	store, err := internal.NewStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	svc := internal.NewService(store, cfg, logger)
	logger.Info("mcp: serving on stdio", slog.String("version", version))
	return mcpserver.New(svc, version).ServeStdio()
}

type renderOutput struct {
	Title    string `json:"title"`
	Metadata any    `json:"metadata"`
	HTML     string `json:"html"`
	Headings any    `json:"headings"`
}

func renderFile(_ context.Context, cmd *cli.Command) error {
	file := cmd.Args().First()
	if file == "" {
		return fmt.Errorf("usage: render <file.md>")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	parsed, err := parser.Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	slug := cmd.String("slug")
	if slug == "" {
		slug = strings.TrimSuffix(filepath.ToSlash(filepath.Base(file)), ".md")
	}

	cfg := internal.NewDefaultConfig()
	cfg.Content.IframeDomains = cmd.StringSlice("iframe-domain")
	out, err := internal.NewPipeline(cfg).Render(parsed.Body, slug)
	if err != nil {
		return fmt.Errorf("render %s: %w", file, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(renderOutput{
		Title:    parsed.Title,
		Metadata: parsed.Metadata,
		HTML:     out.HTML,
		Headings: out.Headings,
	})
}

func writeCSS(_ context.Context, cmd *cli.Command) error {
	return render.WriteHighlightCSS(os.Stdout, cmd.String("style"))
}

func main() {
	cmd := &cli.Command{
		Name:    "odshub",
		Usage:   "Content API for a data sharing hub: renders Markdown pages from a content repository and serves fuzzy search",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve content tools over MCP on stdio",
				Action: serveMCP,
			},
			{
				Name:      "render",
				Usage:     "Render one Markdown file and print the result as JSON",
				ArgsUsage: "<file.md>",
				Action:    renderFile,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "slug",
						Usage: "Slug path used for section theming (collection/page)",
					},
					&cli.StringSliceFlag{
						Name:  "iframe-domain",
						Usage: "Allowed iframe host; repeat to replace the default list",
					},
				},
			},
			{
				Name:   "css",
				Usage:  "Print the syntax highlighting stylesheet",
				Action: writeCSS,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "style",
						Value: "github",
						Usage: "Chroma style name",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
