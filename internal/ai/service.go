package ai

import (
	"context"
	"fmt"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"
)

// Service handles resume analysis for the CLI and the HTTP server
type Service struct {
	Analyzer Analyzer
	config   config.OperationAIConfig
	logger   *errors.Logger
}

// NewService creates the analysis service for the configured provider
func NewService(cfg *config.Config, metrics *observability.Metrics, logger *errors.Logger) (*Service, error) {
	opCfg := cfg.GetAnalyzeConfig()

	logger.Debug("Initializing AI service",
		"provider", opCfg.Provider,
		"model", opCfg.Model,
		"api_key_set", opCfg.APIKey != "")

	var analyzer Analyzer
	switch opCfg.Provider {
	case "", "gemini":
		analyzer = NewGeminiAnalyzer(opCfg, cfg.GetLoadedAnalyzePrompts(), metrics, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", opCfg.Provider), nil)
	}

	return &Service{
		Analyzer: analyzer,
		config:   opCfg,
		logger:   logger,
	}, nil
}

// Analyze runs one analysis
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	return s.Analyzer.Analyze(ctx, req)
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Analyzer.GetModelInfo(ctx)
}

func (s *Service) Close() error {
	return s.Analyzer.Close()
}

// BreakerStats reports the analyzer's circuit breaker, if it has one.
func (s *Service) BreakerStats() map[string]any {
	if b, ok := s.Analyzer.(interface{ BreakerStats() map[string]any }); ok {
		return b.BreakerStats()
	}
	return map[string]any{"enabled": false}
}
