// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/docsearch"
	"github.com/poiesic/docsearch/config"
	"github.com/poiesic/docsearch/core"
	"github.com/urfave/cli/v2"
)

func main() {
	// Provider tokens may live in a local .env file
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docsearch",
		Usage: "Document ingestion and hybrid semantic search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "docsearch.yaml",
				EnvVars: []string{"DOCSEARCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "storage-path",
				Usage:   "Badger directory, overrides storage.path",
				EnvVars: []string{"DOCSEARCH_STORAGE_PATH"},
			},
			&cli.StringFlag{
				Name:    "bucket",
				Usage:   "S3 bucket, switches storage to s3",
				EnvVars: []string{"DOCSEARCH_BUCKET"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write a configuration file with default settings",
				Action:    initCommand,
				ArgsUsage: " ",
			},
			{
				Name:      "ingest",
				Usage:     "Upload and index local files, or index keys already in the store",
				ArgsUsage: "<path or key>...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stored",
						Usage: "Treat arguments as keys already present in the store",
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Key prefix for uploaded files",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of results (0 uses the configured default)",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Show semantic and keyword scores for every result",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-ingest every document in the store",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Run even if the index already has entries (duplicates them)",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show index statistics",
				Action: statsCommand,
			},
		},
	}
}

func openService(c *cli.Context) (*docsearch.Service, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(c, cfg)
	svc, err := docsearch.New(c.Context, docsearch.WithConfig(cfg), docsearch.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	if err := svc.LoadError(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: index snapshot not restored, starting empty: %v\n", err)
	}
	return svc, nil
}

// applyOverrides copies storage flags, set directly or through the
// environment, over file values.
func applyOverrides(c *cli.Context, cfg *config.AppConfig) {
	if path := c.String("storage-path"); path != "" {
		cfg.Storage.Type = config.StorageBadger
		cfg.Storage.Path = path
		cfg.Storage.InMemory = false
	}
	if bucket := c.String("bucket"); bucket != "" {
		cfg.Storage.Type = config.StorageS3
		cfg.Storage.Bucket = bucket
	}
}

func initCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one file or key is required")
	}
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	failed := 0
	for _, arg := range c.Args().Slice() {
		var result core.IngestResult
		if c.Bool("stored") {
			result = svc.IngestFile(c.Context, arg)
		} else {
			result = uploadFile(c.Context, svc, c.String("prefix"), arg)
		}
		printIngestResult(c, result)
		if result.Status != core.StatusIndexed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, c.NArg())
	}
	return nil
}

func uploadFile(ctx context.Context, svc *docsearch.Service, prefix, path string) core.IngestResult {
	key := prefix + filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return core.IngestResult{Source: key, Status: core.StatusIndexingFailed, Err: err}
	}
	return svc.Upload(ctx, key, data)
}

func printIngestResult(c *cli.Context, result core.IngestResult) {
	if result.Err != nil {
		fmt.Fprintf(c.App.Writer, "%s: %s (%v)\n", result.Source, result.Status, result.Err)
		return
	}
	persisted := ""
	if !result.Persisted && result.Chunks > 0 {
		persisted = ", snapshot not saved"
	}
	fmt.Fprintf(c.App.Writer, "%s: %s, %d chunks%s\n", result.Source, result.Status, result.Chunks, persisted)
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("query is required")
	}
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	var results []*core.SearchResult
	if c.Bool("explain") {
		results, err = svc.Explain(c.Context, query, c.Int("k"))
	} else {
		results, err = svc.Search(c.Context, query, c.Int("k"))
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Found %d results\n", len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%d. [%0.3f] %s\n", i+1, r.Score, r.Source)
		if b := r.Breakdown; b != nil {
			fmt.Fprintf(w, "   semantic %0.3f, keyword %0.3f, distance %0.3f, via %s\n",
				b.Semantic, b.Keyword, b.Distance, b.Path)
		}
		fmt.Fprintf(w, "   %s\n", r.Content)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.Reindex(c.Context, c.App.ErrWriter, c.Bool("force"))
	if err != nil {
		if errors.Is(err, docsearch.ErrIndexNotEmpty) {
			return fmt.Errorf("%w; rerun with --force to append duplicates", err)
		}
		return fmt.Errorf("reindex failed: %w", err)
	}
	for _, f := range summary.Failures {
		fmt.Fprintf(c.App.Writer, "failed: %s (%v)\n", f.Key, f.Err)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats := svc.Stats()
	w := c.App.Writer
	fmt.Fprintf(w, "Vectors:   %d\n", stats.Vectors)
	fmt.Fprintf(w, "Metadata:  %d\n", stats.Metadata)
	fmt.Fprintf(w, "Dimension: %d\n", stats.Dimension)

	sources := make([]string, 0, len(stats.BySource))
	for source := range stats.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		fmt.Fprintf(w, "  %s: %d\n", source, stats.BySource[source])
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
