package cli

import (
	"careercoach/internal/ai"
	"careercoach/internal/chat"
	"careercoach/internal/common"
	"careercoach/internal/types"

	"github.com/spf13/cobra"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List languages, chat topics and analysis options",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		logger, err := getLoggerFromContext(cmd.Context())
		if err != nil {
			return err
		}

		minLength := cfg.Codegen.MinPromptLength
		if minLength <= 0 {
			minLength = common.DefaultMinPromptLength
		}
		out := types.PromptsOutput{
			Languages:        cfg.Codegen.Languages,
			MinPromptLength:  minLength,
			Topics:           chat.TopicNames(),
			RecruiterOptions: ai.OptionNames(ai.RoleRecruiter),
			JobSeekerOptions: ai.OptionNames(ai.RoleJobSeeker),
		}
		return common.NewOutputHandler(logger, cmd.OutOrStdout()).HandleOutput(out, outputConfig(""))
	},
}
