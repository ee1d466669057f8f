package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careercoach/internal/common"
	"careercoach/internal/config"
	"careercoach/internal/types"

	"github.com/spf13/cobra"
)

var generateFlags struct {
	language   string
	prompt     string
	promptFile string
	output     string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate code from a natural language prompt",
	Long: `Generate code in the chosen language from a prompt. The most recent prompts
of the session are sent along as context, so follow-up requests can refer to
earlier ones. Each successful generation is recorded in the session's usage
data.`,
	Example: `  careercoach generate --language Go --prompt "write a function that reverses a string"
  careercoach generate -l Python -f prompt.txt --format markdown`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if (generateFlags.prompt == "") == (generateFlags.promptFile == "") {
			return fmt.Errorf("exactly one of --prompt or --file is required")
		}
		return nil
	},
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateFlags.language, "language", "l", "", "Programming language of the generated code")
	generateCmd.Flags().StringVarP(&generateFlags.prompt, "prompt", "p", "", "What the code should do")
	generateCmd.Flags().StringVarP(&generateFlags.promptFile, "file", "f", "", "Read the prompt from a file")
	generateCmd.Flags().StringVarP(&generateFlags.output, "output", "o", "", "Output file path (default: stdout)")
	_ = generateCmd.MarkFlagRequired("language")

	_ = generateCmd.RegisterFlagCompletionFunc("language", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return config.DefaultLanguages, cobra.ShellCompDirectiveNoFileComp
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(run sessionRun) error {
		var files []string
		if generateFlags.promptFile != "" {
			files = []string{generateFlags.promptFile}
		}

		command := common.Command[types.GenerateInput, types.GenerateOutput]{
			Name:        "generate",
			Config:      outputConfig(generateFlags.output),
			MaxFileSize: run.cfg.App.MaxFileSize,
			Stdout:      cmd.OutOrStdout(),
			CreateInput: func(contents []string) (types.GenerateInput, error) {
				input := types.GenerateInput{Language: generateFlags.language, Prompt: generateFlags.prompt}
				if len(contents) == 1 {
					input.Prompt = strings.TrimSpace(contents[0])
				}
				return input, common.ValidatePrompt(input.Language, input.Prompt, run.cfg.Codegen.MinPromptLength)
			},
			LogDetails: func(input types.GenerateInput, cfg common.CommandConfig) {
				run.logger.Info("Generating code",
					"language", input.Language,
					"prompt_chars", len(input.Prompt),
					"history", len(run.session.Codegen.History()),
					"output_format", cfg.OutputFormat)
			},
			Operation: func(ctx context.Context, input types.GenerateInput) (types.GenerateOutput, error) {
				start := time.Now()
				code, err := run.session.Codegen.Generate(ctx, input.Language, input.Prompt)
				if err != nil {
					return types.GenerateOutput{}, err
				}
				return types.GenerateOutput{
					SessionID: run.session.ID,
					Language:  input.Language,
					Prompt:    input.Prompt,
					Code:      code,
					Elapsed:   time.Since(start).Seconds(),
				}, nil
			},
		}

		_, err := common.RunCommand(run.ctx, run.logger, command, files)
		return err
	})
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the prompts remembered for the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(run sessionRun) error {
			out := types.HistoryOutput{
				SessionID: run.session.ID,
				Capacity:  run.cfg.Codegen.HistorySize,
				Prompts:   run.session.Codegen.History(),
			}
			return common.NewOutputHandler(run.logger, cmd.OutOrStdout()).HandleOutput(out, outputConfig(""))
		})
	},
}
