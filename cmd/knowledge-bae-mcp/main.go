// Command knowledge-bae-mcp runs the knowledge-bae router as a stdio server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/knowledgebae/knowledge-bae-mcp/dispatch"
	"github.com/knowledgebae/knowledge-bae-mcp/internal/config"
	"github.com/knowledgebae/knowledge-bae-mcp/knowledgebae"
	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
	"github.com/knowledgebae/knowledge-bae-mcp/stdio"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	logLevel      string
	logFormat     string
	pageSize      int
	serverVersion string
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "knowledge-bae-mcp",
		Short:         "Knowledge Bae MCP server over stdio",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f)
		},
	}
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error (env KNOWLEDGE_BAE_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&f.logFormat, "log-format", "", "log format: text or json (env KNOWLEDGE_BAE_LOG_FORMAT)")
	root.PersistentFlags().IntVar(&f.pageSize, "page-size", 0, "list page size, 0 returns everything (env KNOWLEDGE_BAE_PAGE_SIZE)")
	root.PersistentFlags().StringVar(&f.serverVersion, "server-version", "", "advertised server version (env KNOWLEDGE_BAE_SERVER_VERSION)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the protocol on stdin/stdout (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "describe",
		Short: "Print the negotiation payload and registries as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, f)
		},
	})
	return root
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	fs := cmd.Flags()
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if fs.Changed("page-size") {
		cfg.PageSize = f.pageSize
	}
	if fs.Changed("server-version") {
		cfg.ServerVersion = f.serverVersion
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newAdapter(cfg config.Config, log *slog.Logger, lv *slog.LevelVar) *dispatch.Adapter {
	return dispatch.New(knowledgebae.New(),
		dispatch.WithLogger(log),
		dispatch.WithVersion(cfg.ServerVersion),
		dispatch.WithPageSize(cfg.PageSize),
		dispatch.WithLevelVar(lv),
	)
}

func runServe(cmd *cobra.Command, f flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	lv := new(slog.LevelVar)
	log := cfg.NewLogger(cmd.ErrOrStderr(), lv)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Hello World from Knowledge Bae MCP Server!",
		slog.String("name", knowledgebae.Name),
		slog.String("version", cfg.ServerVersion),
	)

	h := stdio.NewHandler(newAdapter(cfg, log, lv),
		stdio.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
		stdio.WithLogger(log),
	)
	if err := h.Serve(ctx); err != nil && ctx.Err() == nil {
		log.ErrorContext(ctx, "knowledge_bae.serve.fail", slog.String("err", err.Error()))
		return err
	}
	log.InfoContext(ctx, "knowledge_bae.serve.done")
	return nil
}

// description is the payload printed by the describe command.
type description struct {
	Initialize *mcp.InitializeResult `json:"initialize"`
	Tools      []mcp.Tool            `json:"tools"`
	Resources  []mcp.Resource        `json:"resources"`
	Prompts    []mcp.Prompt          `json:"prompts"`
}

func runDescribe(cmd *cobra.Command, f flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	lv := new(slog.LevelVar)
	adapter := newAdapter(cfg, cfg.NewLogger(io.Discard, lv), lv)

	initRes, err := adapter.Negotiate(context.Background(), &mcp.InitializeRequest{ProtocolVersion: mcp.LatestProtocolVersion})
	if err != nil {
		return fmt.Errorf("negotiate: %w", err)
	}
	r := adapter.Router()
	d := description{
		Initialize: initRes,
		Tools:      r.ListTools(),
		Resources:  r.ListResources(),
		Prompts:    r.ListPrompts(),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
