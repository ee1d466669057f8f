package cli

import (
	"context"
	"fmt"
	"time"

	"careercoach/internal/ai"
	"careercoach/internal/chat"
	"careercoach/internal/observability"
	"careercoach/internal/server"
	"careercoach/internal/session"

	"github.com/spf13/cobra"
)

var serveFlags struct {
	port     string
	host     string
	tlsMode  string
	certFile string
	keyFile  string
	caFile   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing code generation, the interview assistant and
resume analysis as a JSON API. Each client session is selected with the
X-Session-ID header and has its own history and usage data.

Available endpoints:
- POST /api/v1/generate:         Generate code
- GET  /api/v1/history:          Prompt history of the session
- POST /api/v1/reset:            Reset code generation or all usage data
- POST /api/v1/chat:             Ask the interview assistant
- POST /api/v1/analyze:          Analyze a resume
- GET  /api/v1/analysis/export:  Download the last analysis
- GET  /api/v1/stats:            Usage analytics of the session
- GET  /api/v1/prompts:          Languages, topics and analysis options
- GET  /health:                  Health check
- GET  /stats:                   Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.tlsMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.caFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	state, err := stateFromContext(ctx)
	if err != nil {
		return err
	}
	cfg, logger := state.cfg, state.logger

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Server.Port, serveFlags.port)
	override(&cfg.Server.Host, serveFlags.host)
	override(&cfg.Server.TLS.Mode, serveFlags.tlsMode)
	override(&cfg.Server.TLS.CertFile, serveFlags.certFile)
	override(&cfg.Server.TLS.KeyFile, serveFlags.keyFile)
	override(&cfg.Server.TLS.CAFile, serveFlags.caFile)

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()
	metrics := om.GetMetrics()

	sessions, err := session.NewManager(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.Close(context.WithoutCancel(ctx)); err != nil {
			logger.LogError(err, "Failed to save session data")
		}
	}()

	analyzer, err := ai.NewService(cfg, metrics, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() { _ = analyzer.Close() }()

	deps := server.Deps{
		Sessions:      sessions,
		Analyzer:      analyzer,
		Chat:          chat.NewService(cfg, metrics, logger),
		Observability: om,
	}
	if state.vault != nil {
		deps.Vault = state.vault
	}

	logger.Info("Starting careercoach server",
		"version", Version,
		"codegen_endpoint", cfg.Codegen.Endpoint,
		"chat_provider", cfg.Chat.Provider,
		"ai_model", cfg.GetAnalyzeConfig().Model,
		"stats_backend", cfg.Stats.Backend)

	return server.NewServer(cfg, Version, deps, logger).Start(ctx)
}
