package cli

import (
	"context"
	"fmt"
	"strings"

	"careercoach/internal/ai"
	"careercoach/internal/common"
	"careercoach/internal/types"

	"github.com/spf13/cobra"
)

var analyzeFlags struct {
	role   string
	option string
	query  string
	resume string
	job    string
	export string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume against a job description",
	Long: `Analyze a resume, given as a PDF or a text file, against a job description.
Recruiters and job seekers each have their own catalogue of analyses; pick one
with --option or ask anything with --query. Run "careercoach prompts" to list
the options.

With --output the analysis is also saved as plain text, by default to
resume_analysis.txt.`,
	Example: `  careercoach analyze --role job-seeker --option "Percentage Match" --resume cv.pdf --job job.txt
  careercoach analyze --role recruiter --query "Is this candidate ready to lead a team?" --resume cv.pdf --output`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := ai.ParseRole(analyzeFlags.role); !ok {
			return fmt.Errorf("invalid role %q: expected recruiter or job-seeker", analyzeFlags.role)
		}
		if (analyzeFlags.option == "") == (strings.TrimSpace(analyzeFlags.query) == "") {
			return fmt.Errorf("exactly one of --option or --query is required")
		}
		return nil
	},
	RunE: runAnalyze,
}

func init() {
	flags := analyzeCmd.Flags()
	flags.StringVarP(&analyzeFlags.role, "role", "r", string(ai.RoleJobSeeker), "Who the analysis is for: recruiter or job-seeker")
	flags.StringVar(&analyzeFlags.option, "option", "", "Predefined analysis to run")
	flags.StringVar(&analyzeFlags.query, "query", "", "Free-form question about the resume")
	flags.StringVar(&analyzeFlags.resume, "resume", "", "Resume file (PDF or text)")
	flags.StringVarP(&analyzeFlags.job, "job", "j", "", "Job description file")
	flags.StringVarP(&analyzeFlags.export, "output", "o", "", "Also save the analysis as plain text to this file")
	flags.Lookup("output").NoOptDefVal = ai.ExportFileName
	_ = analyzeCmd.MarkFlagRequired("resume")

	_ = analyzeCmd.RegisterFlagCompletionFunc("role", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(ai.RoleRecruiter), string(ai.RoleJobSeeker)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = analyzeCmd.RegisterFlagCompletionFunc("option", func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		role, ok := ai.ParseRole(analyzeFlags.role)
		if !ok {
			return nil, cobra.ShellCompDirectiveError
		}
		return ai.OptionNames(role), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(run sessionRun) error {
		service, err := ai.NewService(run.cfg, nil, run.logger)
		if err != nil {
			return fmt.Errorf("failed to create AI service: %w", err)
		}
		defer func() {
			if err := service.Close(); err != nil {
				run.logger.Debug("Failed to close AI service", "error", err)
			}
		}()

		files := []string{}
		if analyzeFlags.job != "" {
			files = append(files, analyzeFlags.job)
		}
		fileProcessor := common.NewFileProcessor(run.logger, run.cfg.App.MaxFileSize)

		command := common.Command[types.AnalyzeInput, *ai.Result]{
			Name:        "analyze",
			Config:      outputConfig(""),
			MaxFileSize: run.cfg.App.MaxFileSize,
			Stdout:      cmd.OutOrStdout(),
			CreateInput: func(contents []string) (types.AnalyzeInput, error) {
				input := types.AnalyzeInput{
					Role:       analyzeFlags.role,
					Option:     analyzeFlags.option,
					Query:      analyzeFlags.query,
					ResumeFile: analyzeFlags.resume,
				}
				if len(contents) == 1 {
					input.JobDescription = contents[0]
				}
				pdf, text, err := fileProcessor.ReadResume(analyzeFlags.resume)
				if err != nil {
					return input, err
				}
				input.ResumePDF, input.ResumeText = pdf, text
				return input, nil
			},
			LogDetails: func(input types.AnalyzeInput, cfg common.CommandConfig) {
				run.logger.Info("Starting resume analysis",
					"role", input.Role,
					"option", input.Option,
					"custom_query", input.Query != "",
					"resume_pdf", len(input.ResumePDF) > 0,
					"job_chars", len(input.JobDescription),
					"output_format", cfg.OutputFormat)
			},
			Operation: func(ctx context.Context, input types.AnalyzeInput) (*ai.Result, error) {
				return service.Analyze(ctx, ai.Request{
					Role:           input.Role,
					Option:         input.Option,
					Query:          input.Query,
					JobDescription: input.JobDescription,
					ResumeText:     input.ResumeText,
					ResumePDF:      input.ResumePDF,
				})
			},
		}

		result, err := common.RunCommand(run.ctx, run.logger, command, files)
		if err != nil {
			return fmt.Errorf("failed to analyze resume: %w", err)
		}
		run.session.SetAnalysis(result)

		if analyzeFlags.export != "" {
			if err := common.NewOutputHandler(run.logger, nil).WriteFile(analyzeFlags.export, result.Export()); err != nil {
				return err
			}
		}
		run.logger.Info("Resume analysis completed successfully", "elapsed_seconds", result.Elapsed)
		return nil
	})
}
