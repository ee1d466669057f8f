package cli

import (
	"careercoach/internal/chat"
	"careercoach/internal/common"

	"github.com/spf13/cobra"
)

var chatFlags struct {
	topic    string
	question string
	output   string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask the interview preparation assistant a question",
	Long: `Ask an interview question on one of the supported topics. The assistant
answers as an interviewer experienced in that area. Run "careercoach prompts"
to list the topics.`,
	Example: `  careercoach chat --topic ReactJS --question "What problem do hooks solve?"`,
	Args:    cobra.NoArgs,
	RunE:    runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatFlags.topic, "topic", "t", "", "Interview topic")
	chatCmd.Flags().StringVarP(&chatFlags.question, "question", "q", "", "Question for the assistant")
	chatCmd.Flags().StringVarP(&chatFlags.output, "output", "o", "", "Output file path (default: stdout)")
	_ = chatCmd.MarkFlagRequired("topic")
	_ = chatCmd.MarkFlagRequired("question")

	_ = chatCmd.RegisterFlagCompletionFunc("topic", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return chat.TopicNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runChat(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(run sessionRun) error {
		service := chat.NewService(run.cfg, nil, run.logger)

		run.logger.Info("Asking interview assistant",
			"topic", chatFlags.topic,
			"question_chars", len(chatFlags.question),
			"provider", run.cfg.Chat.Provider)

		answer, err := service.Ask(run.ctx, run.session.Chat, chatFlags.topic, chatFlags.question)
		if err != nil {
			return err
		}
		return common.NewOutputHandler(run.logger, cmd.OutOrStdout()).HandleOutput(answer, outputConfig(chatFlags.output))
	})
}
