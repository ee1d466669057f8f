package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"careercoach/internal/ai"
	"careercoach/internal/chat"
	"careercoach/internal/stats"
	"careercoach/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "any", &TextFormatter{})

	registry.RegisterFormatter("text", "GenerateOutput", &GenerateTextFormatter{})
	registry.RegisterFormatter("markdown", "GenerateOutput", &GenerateMarkdownFormatter{})
	registry.RegisterFormatter("text", "HistoryOutput", &HistoryTextFormatter{})
	registry.RegisterFormatter("markdown", "HistoryOutput", &HistoryMarkdownFormatter{})
	registry.RegisterFormatter("text", "PromptsOutput", &PromptsTextFormatter{})
	registry.RegisterFormatter("markdown", "PromptsOutput", &PromptsMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResetOutput", &ResetTextFormatter{})
	registry.RegisterFormatter("markdown", "ResetOutput", &ResetTextFormatter{})
	registry.RegisterFormatter("text", "ChatAnswer", &ChatTextFormatter{})
	registry.RegisterFormatter("markdown", "ChatAnswer", &ChatMarkdownFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "Summary", &SummaryTextFormatter{})
	registry.RegisterFormatter("markdown", "Summary", &SummaryMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.GenerateOutput:
		return "GenerateOutput"
	case types.HistoryOutput:
		return "HistoryOutput"
	case types.PromptsOutput:
		return "PromptsOutput"
	case types.ResetOutput:
		return "ResetOutput"
	case chat.Answer:
		return "ChatAnswer"
	case *ai.Result:
		return "AnalysisResult"
	case stats.Summary:
		return "Summary"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// TextFormatter prints values without a dedicated formatter
type TextFormatter struct{}

func (tf *TextFormatter) Format(data any) (string, error) {
	return fmt.Sprintf("%v\n", data), nil
}

func (tf *TextFormatter) SupportedType() string {
	return "any"
}

// GenerateTextFormatter prints the generated code as is
type GenerateTextFormatter struct{}

func (gtf *GenerateTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerateOutput)
	if !ok {
		return "", fmt.Errorf("expected GenerateOutput, got %T", data)
	}
	return strings.TrimRight(result.Code, "\n") + "\n", nil
}

func (gtf *GenerateTextFormatter) SupportedType() string {
	return "GenerateOutput"
}

// GenerateMarkdownFormatter wraps the generated code in a fenced block
type GenerateMarkdownFormatter struct{}

func (gmf *GenerateMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerateOutput)
	if !ok {
		return "", fmt.Errorf("expected GenerateOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# %s\n\n", result.Language))
	output.WriteString(fmt.Sprintf("> %s\n\n", result.Prompt))
	output.WriteString("```" + fenceLanguage(result.Language) + "\n")
	output.WriteString(strings.TrimRight(result.Code, "\n"))
	output.WriteString("\n```\n\n")
	output.WriteString(fmt.Sprintf("_Generated in %.2fs_\n", result.Elapsed))
	return output.String(), nil
}

func (gmf *GenerateMarkdownFormatter) SupportedType() string {
	return "GenerateOutput"
}

// fenceLanguage maps a display language name to a markdown info string.
func fenceLanguage(language string) string {
	switch strings.ToLower(language) {
	case "c++":
		return "cpp"
	default:
		return strings.ToLower(language)
	}
}

// HistoryTextFormatter lists the remembered prompts
type HistoryTextFormatter struct{}

func (htf *HistoryTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.HistoryOutput)
	if !ok {
		return "", fmt.Errorf("expected HistoryOutput, got %T", data)
	}
	if len(result.Prompts) == 0 {
		return "No prompts in history.\n", nil
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("=== PROMPT HISTORY (%d/%d) ===\n", len(result.Prompts), result.Capacity))
	for i, prompt := range result.Prompts {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, prompt))
	}
	return output.String(), nil
}

func (htf *HistoryTextFormatter) SupportedType() string {
	return "HistoryOutput"
}

// HistoryMarkdownFormatter lists the remembered prompts as markdown
type HistoryMarkdownFormatter struct{}

func (hmf *HistoryMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.HistoryOutput)
	if !ok {
		return "", fmt.Errorf("expected HistoryOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Prompt History\n\n")
	if len(result.Prompts) == 0 {
		output.WriteString("_No prompts yet._\n")
		return output.String(), nil
	}
	for i, prompt := range result.Prompts {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, prompt))
	}
	return output.String(), nil
}

func (hmf *HistoryMarkdownFormatter) SupportedType() string {
	return "HistoryOutput"
}

// PromptsTextFormatter prints the catalogue of languages, topics and options
type PromptsTextFormatter struct{}

func (ptf *PromptsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.PromptsOutput)
	if !ok {
		return "", fmt.Errorf("expected PromptsOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== CODE GENERATION ===\n")
	output.WriteString(fmt.Sprintf("Languages: %s\n", strings.Join(result.Languages, ", ")))
	output.WriteString(fmt.Sprintf("Minimum prompt length: %d characters\n\n", result.MinPromptLength))

	writeList := func(title string, items []string) {
		output.WriteString(fmt.Sprintf("=== %s ===\n", title))
		for _, item := range items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}
	writeList("CHAT TOPICS", result.Topics)
	writeList("RECRUITER ANALYSES", result.RecruiterOptions)
	writeList("JOB SEEKER ANALYSES", result.JobSeekerOptions)
	return strings.TrimRight(output.String(), "\n") + "\n", nil
}

func (ptf *PromptsTextFormatter) SupportedType() string {
	return "PromptsOutput"
}

// PromptsMarkdownFormatter prints the catalogue as markdown
type PromptsMarkdownFormatter struct{}

func (pmf *PromptsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.PromptsOutput)
	if !ok {
		return "", fmt.Errorf("expected PromptsOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Code Generation\n\n")
	output.WriteString(fmt.Sprintf("**Languages:** %s\n\n", strings.Join(result.Languages, ", ")))
	output.WriteString(fmt.Sprintf("**Minimum prompt length:** %d characters\n\n", result.MinPromptLength))

	for _, section := range []struct {
		title string
		items []string
	}{
		{"Chat Topics", result.Topics},
		{"Recruiter Analyses", result.RecruiterOptions},
		{"Job Seeker Analyses", result.JobSeekerOptions},
	} {
		output.WriteString(fmt.Sprintf("## %s\n\n", section.title))
		for _, item := range section.items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}
	return strings.TrimRight(output.String(), "\n") + "\n", nil
}

func (pmf *PromptsMarkdownFormatter) SupportedType() string {
	return "PromptsOutput"
}

// ResetTextFormatter confirms a reset
type ResetTextFormatter struct{}

func (rtf *ResetTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ResetOutput)
	if !ok {
		return "", fmt.Errorf("expected ResetOutput, got %T", data)
	}
	if result.Scope == "all" {
		return fmt.Sprintf("All usage data for session %s has been reset.\n", result.SessionID), nil
	}
	return fmt.Sprintf("Code generation history for session %s has been reset.\n", result.SessionID), nil
}

func (rtf *ResetTextFormatter) SupportedType() string {
	return "ResetOutput"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
