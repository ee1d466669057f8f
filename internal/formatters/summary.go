package formatters

import (
	"fmt"
	"strings"

	"careercoach/internal/stats"
)

const noUsageData = "No data available yet. Generate code or ask the chatbot to start collecting usage."

// SummaryTextFormatter prints the usage analytics of a session
type SummaryTextFormatter struct{}

func (stf *SummaryTextFormatter) Format(data any) (string, error) {
	s, ok := data.(stats.Summary)
	if !ok {
		return "", fmt.Errorf("expected stats.Summary, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== USAGE SUMMARY ===\n")
	output.WriteString(fmt.Sprintf("Chatbot Queries:          %d\n", s.ChatbotQueries))
	output.WriteString(fmt.Sprintf("Code Prompts:             %d\n", s.CodePrompts))
	output.WriteString(fmt.Sprintf("Chatbot Total Time (s):   %.2f\n", s.TotalChatbotTime))
	output.WriteString(fmt.Sprintf("Code Total Time (s):      %.2f\n", s.TotalCodeTime))
	output.WriteString(fmt.Sprintf("Resumes Analyzed:         %d\n", s.ResumeCount))
	output.WriteString(fmt.Sprintf("Analysis Total Time (s):  %.2f\n", s.TotalAnalysisTime))

	if s.NoData {
		output.WriteString("\n")
		output.WriteString(noUsageData)
		output.WriteString("\n")
		return output.String(), nil
	}

	if s.Samples > 0 {
		output.WriteString("\n=== CODE RESPONSE TIMES ===\n")
		output.WriteString(fmt.Sprintf("Samples: %d\n", s.Samples))
		output.WriteString(fmt.Sprintf("Average: %.2fs  Median: %.2fs  Min: %.2fs  Max: %.2fs\n",
			s.AverageResponseTime, s.MedianResponseTime, s.MinResponseTime, s.MaxResponseTime))
	}

	output.WriteString("\n=== TASK DISTRIBUTION ===\n")
	output.WriteString(fmt.Sprintf("Chatbot: %.2f%%\n", s.ChatbotShare))
	output.WriteString(fmt.Sprintf("Code:    %.2f%%\n", s.CodeShare))
	return output.String(), nil
}

func (stf *SummaryTextFormatter) SupportedType() string {
	return "Summary"
}

// SummaryMarkdownFormatter renders the usage analytics as markdown tables
type SummaryMarkdownFormatter struct{}

func (smf *SummaryMarkdownFormatter) Format(data any) (string, error) {
	s, ok := data.(stats.Summary)
	if !ok {
		return "", fmt.Errorf("expected stats.Summary, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Usage Summary\n\n")
	output.WriteString("| Metric | Value |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Chatbot Queries | %d |\n", s.ChatbotQueries))
	output.WriteString(fmt.Sprintf("| Code Prompts | %d |\n", s.CodePrompts))
	output.WriteString(fmt.Sprintf("| Chatbot Total Time (s) | %.2f |\n", s.TotalChatbotTime))
	output.WriteString(fmt.Sprintf("| Code Total Time (s) | %.2f |\n", s.TotalCodeTime))
	output.WriteString(fmt.Sprintf("| Resumes Analyzed | %d |\n", s.ResumeCount))
	output.WriteString(fmt.Sprintf("| Analysis Total Time (s) | %.2f |\n", s.TotalAnalysisTime))

	if s.NoData {
		output.WriteString("\n_" + noUsageData + "_\n")
		return output.String(), nil
	}

	if s.Samples > 0 {
		output.WriteString("\n## Code Response Times\n\n")
		output.WriteString("| Samples | Average | Median | Min | Max |\n|---|---|---|---|---|\n")
		output.WriteString(fmt.Sprintf("| %d | %.2f | %.2f | %.2f | %.2f |\n",
			s.Samples, s.AverageResponseTime, s.MedianResponseTime, s.MinResponseTime, s.MaxResponseTime))
	}

	output.WriteString("\n## Task Distribution\n\n")
	output.WriteString("| Task | Share |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Chatbot | %.2f%% |\n", s.ChatbotShare))
	output.WriteString(fmt.Sprintf("| Code | %.2f%% |\n", s.CodeShare))
	return output.String(), nil
}

func (smf *SummaryMarkdownFormatter) SupportedType() string {
	return "Summary"
}
