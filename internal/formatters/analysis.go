package formatters

import (
	"fmt"
	"strings"

	"careercoach/internal/ai"
	"careercoach/internal/chat"
)

// ChatTextFormatter prints the assistant's answer
type ChatTextFormatter struct{}

func (ctf *ChatTextFormatter) Format(data any) (string, error) {
	answer, ok := data.(chat.Answer)
	if !ok {
		return "", fmt.Errorf("expected chat.Answer, got %T", data)
	}
	return strings.TrimSpace(answer.Text) + "\n", nil
}

func (ctf *ChatTextFormatter) SupportedType() string {
	return "ChatAnswer"
}

// ChatMarkdownFormatter prints the whole transcript
type ChatMarkdownFormatter struct{}

func (cmf *ChatMarkdownFormatter) Format(data any) (string, error) {
	answer, ok := data.(chat.Answer)
	if !ok {
		return "", fmt.Errorf("expected chat.Answer, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# %s Interview Preparation\n\n", answer.Topic))
	for _, m := range answer.Messages {
		output.WriteString(fmt.Sprintf("**%s:** %s\n\n", speaker(m.Role), strings.TrimSpace(m.Content)))
	}
	return strings.TrimRight(output.String(), "\n") + "\n", nil
}

func (cmf *ChatMarkdownFormatter) SupportedType() string {
	return "ChatAnswer"
}

func speaker(role string) string {
	if role == chat.RoleUser {
		return "You"
	}
	return "Assistant"
}

// AnalysisTextFormatter handles text formatting for resume analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*ai.Result)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *ai.Result, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("=== %s: %s ===\n\n", strings.ToUpper(result.Role.Label()), strings.ToUpper(result.Option)))
	output.WriteString(strings.TrimSpace(result.Text))
	output.WriteString("\n\n")
	output.WriteString(fmt.Sprintf("Model: %s (%.2fs)\n", result.Model, result.Elapsed))
	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for resume analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*ai.Result)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *ai.Result, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# %s\n\n", result.Option))
	output.WriteString(fmt.Sprintf("**Role:** %s\n\n", result.Role.Label()))
	output.WriteString(strings.TrimSpace(result.Text))
	output.WriteString("\n\n---\n\n")
	output.WriteString(fmt.Sprintf("_Model %s, %.2fs_\n", result.Model, result.Elapsed))
	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}
