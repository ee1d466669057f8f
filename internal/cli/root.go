package cli

import (
	"context"
	"fmt"

	"careercoach/internal/common"
	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/formatters"

	"github.com/spf13/cobra"
)

// appState is filled in by the root command before any subcommand runs.
type appState struct {
	cfg    *config.Config
	logger *errors.Logger
	vault  *config.VaultClient
}

type stateKeyType struct{}

var stateKey = stateKeyType{}

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

var rootFlags struct {
	configFile string
	logLevel   string
	format     string
	session    string
}

var rootCmd = &cobra.Command{
	Use:   "careercoach",
	Short: "Code generation, interview coaching and resume analysis",
	Long: `careercoach is a command-line tool and HTTP service that helps developers
prepare for their next job. It generates code from natural language prompts,
answers interview questions on a range of topics, and analyzes resumes
against job descriptions for recruiters and job seekers. Usage of every
feature is tracked per session.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadState,
}

// Execute runs the CLI. Configuration is loaded once the flags are parsed.
func Execute(ctx context.Context) error {
	state := &appState{}
	ctx = context.WithValue(ctx, stateKey, state)

	err := rootCmd.ExecuteContext(ctx)
	if state.logger != nil {
		if err != nil {
			state.logger.LogError(err, "Command failed")
		}
		_ = state.logger.Close()
	}
	return err
}

func loadState(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}
	state, err := stateFromContext(cmd.Context())
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(rootFlags.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if rootFlags.logLevel != "" {
		cfg.App.LogLevel = rootFlags.logLevel
	}

	level, err := errors.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return err
	}
	logger, err := errors.NewLoggerWithOptions(errors.LoggerOptions{
		Level:  level,
		Format: cfg.App.LogFormat,
		File:   cfg.App.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	state.logger = logger

	vault, err := config.ApplyVaultSecrets(cfg, logger)
	if err != nil {
		return err
	}
	state.vault = vault

	if rootFlags.format == "" {
		rootFlags.format = cfg.App.DefaultFormat
	}
	if err := common.ValidateOutputFormat(rootFlags.format, cfg.App.SupportedFormats); err != nil {
		return err
	}

	state.cfg = cfg
	logger.Debug("Configuration loaded",
		"command", cmd.Name(),
		"codegen_endpoint", cfg.Codegen.Endpoint,
		"stats_backend", cfg.Stats.Backend)
	return nil
}

func stateFromContext(ctx context.Context) (*appState, error) {
	if state, ok := ctx.Value(stateKey).(*appState); ok {
		return state, nil
	}
	return nil, fmt.Errorf("application state not found in context")
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	state, err := stateFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if state.cfg == nil {
		return nil, fmt.Errorf("config not found in context")
	}
	return state.cfg, nil
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	state, err := stateFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if state.logger == nil {
		return nil, fmt.Errorf("logger not found in context")
	}
	return state.logger, nil
}

func outputConfig(outputFile string) common.CommandConfig {
	return common.CommandConfig{OutputFile: outputFile, OutputFormat: rootFlags.format}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.careercoach/config.yaml)")
	flags.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&rootFlags.format, "format", "", "Output format: json, text, or markdown (default from config)")
	flags.StringVar(&rootFlags.session, "session", config.DefaultSessionID, "Session whose history and usage data to use")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return formatters.GlobalRegistry.GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
