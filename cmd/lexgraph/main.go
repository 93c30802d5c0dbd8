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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/lexgraph"
	"github.com/poiesic/lexgraph/ai"
	"github.com/poiesic/lexgraph/core"
	"github.com/urfave/cli/v2"
)

func main() {
	// Populate the environment from a local .env when present.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "lexgraph",
		Usage: "Legal document retrieval and analysis pipelines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "lexgraph-data",
				EnvVars: []string{"LEXGRAPH_DB"},
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "Chat backend: openai or ollama",
				Value:   ai.BackendOpenAI,
				EnvVars: []string{"LEXGRAPH_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "AI service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"LEXGRAPH_HOST"},
			},
			&cli.StringFlag{
				Name:    "chat-model",
				Usage:   "Chat model name",
				Value:   "qwen2.5:3b",
				EnvVars: []string{"LEXGRAPH_CHAT_MODEL"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "embeddinggemma",
				EnvVars: []string{"LEXGRAPH_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "reranker-host",
				Usage:   "Reranker service host URL (empty disables reranking)",
				EnvVars: []string{"LEXGRAPH_RERANKER_HOST"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API token for the AI service",
				EnvVars: []string{"LEXGRAPH_TOKEN"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a document into the store",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Document title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "doc-type",
						Usage: "Document type (e.g. contract, ruling, statute)",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Document category (e.g. employment, real estate)",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Document origin (court, registry, upload)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid retrieval query",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "doc-type",
						Usage: "Restrict results to document types (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Usage: "Restrict results to categories (repeatable)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   core.DefaultLimit,
					},
				},
			},
			{
				Name:      "analyze",
				Usage:     "Run multi-step analysis on a document file",
				ArgsUsage: "FILE",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Analysis scope (summary, key_points, legal_issues, entities, recommendations, risk, full)",
						Value: string(core.ScopeFull),
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Retrieve documents and analyze the best match",
				ArgsUsage: "QUERY",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Analysis scope for the top document",
						Value: string(core.ScopeFull),
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of retrieval results",
						Value:   core.DefaultLimit,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
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

func openAssistant(c *cli.Context) (*lexgraph.Assistant, error) {
	aiConfig := ai.NewConfig(
		ai.WithBackend(c.String("backend")),
		ai.WithHost(c.String("host")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithRerankerHost(c.String("reranker-host")),
		ai.WithToken(c.String("token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	assistant, err := lexgraph.NewAssistant(c.String("db"), lexgraph.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open assistant: %w", err)
	}
	return assistant, nil
}

func readDocumentArg(c *cli.Context) (string, error) {
	path := c.Args().First()
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	content, err := readDocumentArg(c)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	docs, err := assistant.Ingest(ctx, &core.Document{
		Title:    c.String("title"),
		Content:  content,
		DocType:  c.String("doc-type"),
		Category: c.String("category"),
		Source:   c.String("source"),
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Ingested %q as document %d\n", docs[0].Title, docs[0].Id)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	filters := core.Filters{
		DocTypes:   c.StringSlice("doc-type"),
		Categories: c.StringSlice("category"),
	}

	results, advisory, err := assistant.Retrieve(ctx, query, filters, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printAdvisory(advisory)

	if len(results) == 0 {
		fmt.Println("No documents found.")
		return nil
	}
	for _, rec := range results {
		fmt.Printf("%2d. [%s] %s (score %.3f)\n", rec.Rank, rec.Source, rec.Title, rec.FusedScore)
	}
	return nil
}

func analyzeCommand(c *cli.Context) error {
	ctx := context.Background()

	content, err := readDocumentArg(c)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	result, advisory, err := assistant.Analyze(ctx, content, core.Scope(c.String("scope")))
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	printAdvisory(advisory)
	printAnalysis(result)
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	result, advisory, err := assistant.Ask(ctx, query, core.Filters{}, c.Int("limit"), core.Scope(c.String("scope")))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	printAdvisory(advisory)

	if len(result.Results) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	fmt.Println("Retrieved documents:")
	for _, rec := range result.Results {
		fmt.Printf("%2d. [%s] %s (score %.3f)\n", rec.Rank, rec.Source, rec.Title, rec.FusedScore)
	}
	fmt.Println()
	printAnalysis(result.Analysis)
	return nil
}

func printAdvisory(advisory *core.ErrorInfo) {
	if advisory == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "warning: %s fault in %s: %s\n",
		advisory.Kind, advisory.SourceStep, advisory.Message)
}

func printAnalysis(result *core.AnalysisResult) {
	if result == nil {
		return
	}

	if result.Summary != "" {
		fmt.Printf("Summary:\n%s\n\n", result.Summary)
	}
	printSection("Key points", result.KeyPoints)
	printSection("Legal issues", result.LegalIssues)
	if result.Entities != nil {
		fmt.Println("Entities:")
		for _, category := range []string{"people", "organizations", "statutes", "dates", "amounts", "locations"} {
			items := result.Entities[category]
			if len(items) == 0 {
				continue
			}
			fmt.Printf("  %s: %s\n", category, strings.Join(items, ", "))
		}
		fmt.Println()
	}
	printSection("Recommendations", result.Recommendations)
	if result.Risk != core.RiskUnset {
		fmt.Printf("Risk: %s\n", result.Risk)
	}
}

func printSection(title string, items []string) {
	if items == nil {
		return
	}
	fmt.Printf("%s:\n", title)
	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, item)
	}
	fmt.Println()
}
