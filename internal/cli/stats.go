package cli

import (
	"careercoach/internal/common"
	"careercoach/internal/stats"
	"careercoach/internal/types"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show or reset the session's usage analytics",
}

var statsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show usage analytics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(run sessionRun) error {
			summary := stats.SummarizeTracker(run.session.Tracker())
			return common.NewOutputHandler(run.logger, cmd.OutOrStdout()).HandleOutput(summary, outputConfig(""))
		})
	},
}

var resetAll bool

var statsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset code generation history, or with --all every usage counter",
	Long: `Reset clears the prompt history together with the code prompt count, the
code response times and total code time. With --all every counter is zeroed
and the stored usage data is rewritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(run sessionRun) error {
			run.session.Reset(run.ctx, resetAll)

			scope := "code"
			if resetAll {
				scope = "all"
			}
			run.logger.Info("Session reset", "scope", scope)
			out := types.ResetOutput{SessionID: run.session.ID, Scope: scope}
			return common.NewOutputHandler(run.logger, cmd.OutOrStdout()).HandleOutput(out, outputConfig(""))
		})
	},
}

func init() {
	statsResetCmd.Flags().BoolVar(&resetAll, "all", false, "Zero every usage counter, not just code generation")
	statsCmd.AddCommand(statsShowCmd)
	statsCmd.AddCommand(statsResetCmd)
}
