package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/recursive-rag/pkg/chat"
	"github.com/mikeboe/recursive-rag/pkg/config"
	"github.com/mikeboe/recursive-rag/pkg/ingest"
	"github.com/mikeboe/recursive-rag/pkg/server"
)

var (
	depth     int
	direct    bool
	showTrace bool
)

func main() {
	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:   "recursive-rag",
		Short: "Question answering over PDF documents with recursive reasoning",
		Long: `recursive-rag answers questions about ingested PDF documents. Complex questions are
decomposed into sub-questions, answered recursively and synthesized into one answer.`,
		SilenceUsage: true,
	}

	askCmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the ingested documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), cfg, logger, func(svc *server.Service) error {
				recursive := !direct
				req := chat.Request{
					Message:      strings.Join(args, " "),
					UseRecursive: &recursive,
				}
				if cmd.Flags().Changed("depth") {
					req.MaxRecursionDepth = &depth
				}

				resp, err := svc.Chat.Ask(cmd.Context(), req)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, resp.Response)
				if len(resp.Sources) > 0 {
					fmt.Fprintf(out, "\nSources: %s\n", strings.Join(resp.Sources, ", "))
				}
				if showTrace {
					data, err := json.MarshalIndent(resp.ReasoningSteps, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "\nReasoning steps (%d sub-questions):\n%s\n", resp.RecursionDepth, data)
				}
				return nil
			})
		},
	}
	askCmd.Flags().IntVarP(&depth, "depth", "d", cfg.MaxRecursionDepth, "Maximum recursion depth")
	askCmd.Flags().BoolVar(&direct, "direct", false, "Answer with a single prompt, without recursion")
	askCmd.Flags().BoolVar(&showTrace, "trace", false, "Print the reasoning steps")

	ingestCmd := &cobra.Command{
		Use:   "ingest <file.pdf>...",
		Short: "Extract, chunk and store PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), cfg, logger, func(svc *server.Service) error {
				files := make([]ingest.File, 0, len(args))
				for _, path := range args {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", path, err)
					}
					files = append(files, ingest.File{Name: filepath.Base(path), Data: data})
				}

				res, err := svc.Ingestor.Ingest(cmd.Context(), files)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d chunks)\n", res.Message, res.TotalChunks)
				return nil
			})
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every document from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), cfg, logger, func(svc *server.Service) error {
				if err := svc.Store.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Database cleared successfully")
				return nil
			})
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), cfg, logger, server.Run)
		},
	}

	rootCmd.AddCommand(askCmd, ingestCmd, resetCmd, serveCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func withService(ctx context.Context, cfg *config.Config, logger *slog.Logger, fn func(*server.Service) error) error {
	svc, err := server.NewService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}
