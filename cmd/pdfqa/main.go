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
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/pdfqa"
	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/ai/ollama"
	"github.com/poiesic/pdfqa/config"
	"github.com/poiesic/pdfqa/server"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pdfqa",
		Usage: "Ask questions about a PDF using retrieval-augmented generation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"PDFQA_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from `FILE` (defaults to ./.env when present)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
					&cli.IntFlag{
						Name:  "wait",
						Usage: "Ping the local model up to N times before serving (0 skips the check)",
						Value: 3,
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Index a PDF, replacing the current document",
				ArgsUsage: "<file.pdf>",
				Action:    ingestCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the current document",
				ArgsUsage: "<question...>",
				Action:    askCommand,
			},
			{
				Name:   "documents",
				Usage:  "List ingested documents, most recent first",
				Action: documentsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of documents to list (0 lists all)",
					},
				},
			},
		},
	}
}

func before(c *cli.Context) error {
	if err := config.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return setupLogger(c)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func openEngine(c *cli.Context, cfg *config.Config, opts ...pdfqa.EngineOption) (*pdfqa.Engine, error) {
	engine, err := pdfqa.NewEngine(c.Context, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if attempts := c.Int("wait"); attempts > 0 {
		checkBackends(ctx, engine.Provider(), attempts)
	}

	handler := server.NewHandler(engine, cfg.UploadDir,
		server.WithMaxUploadBytes(cfg.MaxUploadBytes()),
		server.WithLogger(slog.Default()),
	)
	srv := server.New(cfg.Server.Addr, server.NewRouter(handler, cfg.Server.AllowedOrigins), slog.Default())

	fmt.Fprintf(os.Stderr, "Data directory: %s\n", cfg.DataDir)
	fmt.Fprintf(os.Stderr, "Listening on: %s\n", cfg.Server.Addr)
	return srv.Run(ctx)
}

// checkBackends warns about generators that are not ready. Serving continues
// because the fallback chain may still answer.
func checkBackends(ctx context.Context, provider ai.AIProvider, attempts int) {
	for _, g := range provider.Generators() {
		checker, ok := g.(ai.HealthChecker)
		if !ok {
			continue
		}
		err := ai.WaitReady(ctx, checker, attempts, time.Second)
		switch {
		case err == nil:
			slog.Info("backend ready", "backend", g.Name())
		case errors.Is(err, ollama.ErrModelNotFound):
			slog.Warn("backend model missing", "backend", g.Name(), "err", err)
		default:
			slog.Warn("backend not reachable", "backend", g.Name(), "err", err)
		}
	}
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one PDF path")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg, pdfqa.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	defer engine.Close()

	path := c.Args().First()
	fmt.Fprintf(os.Stderr, "Ingesting: %s\n", path)
	state := engine.Ingest(c.Context, path)
	if state.Err != nil {
		return fmt.Errorf("ingestion failed: %w", state.Err)
	}
	fmt.Fprintf(c.App.Writer, "Indexed %s: %d characters in %d chunks\n",
		path, len([]rune(state.ExtractedText)), len(state.Chunks))
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	state := engine.Ask(c.Context, question)
	if state.Err != nil {
		return fmt.Errorf("query failed: %w", state.Err)
	}
	printAnswer(c.App.Writer, state.Answer, state.Backend)
	return nil
}

func printAnswer(w io.Writer, answer, backend string) {
	if backend == "" {
		backend = "unknown"
	}
	fmt.Fprintln(w, answer)
	fmt.Fprintf(w, "\n(source: %s)\n", backend)
}

func documentsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.Documents(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Fprintln(c.App.Writer, "No documents ingested")
		return nil
	}
	for i, doc := range docs {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(c.App.Writer, "%s %016x  %-30s  %4d pages  %5d chunks  %s\n",
			marker, uint64(doc.Id), doc.Name, doc.Pages, doc.Chunks,
			doc.IngestedAt.Local().Format(time.RFC3339))
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
