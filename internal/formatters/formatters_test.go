package formatters

import (
	"encoding/json"
	"testing"

	"careercoach/internal/ai"
	"careercoach/internal/chat"
	"careercoach/internal/stats"
	"careercoach/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text"}, NewFormatterRegistry().GetSupportedFormats())
}

func TestFormatUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(types.GenerateOutput{}, "yaml")
	assert.ErrorContains(t, err, "no formatter found for format 'yaml'")
}

func TestJSONFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(types.GenerateOutput{Language: "Go", Code: "package main"}, "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Go", decoded["language"])
	assert.Equal(t, "package main", decoded["code"])
}

func TestGenerateFormatters(t *testing.T) {
	result := types.GenerateOutput{Language: "C++", Prompt: "print hello world", Code: "int main() {}\n\n", Elapsed: 1.234}

	text, err := GlobalRegistry.Format(result, "text")
	require.NoError(t, err)
	assert.Equal(t, "int main() {}\n", text)

	md, err := GlobalRegistry.Format(result, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "```cpp\nint main() {}\n```")
	assert.Contains(t, md, "> print hello world")
	assert.Contains(t, md, "1.23s")
}

func TestHistoryFormatters(t *testing.T) {
	empty, err := GlobalRegistry.Format(types.HistoryOutput{Capacity: 5}, "text")
	require.NoError(t, err)
	assert.Equal(t, "No prompts in history.\n", empty)

	text, err := GlobalRegistry.Format(types.HistoryOutput{Capacity: 5, Prompts: []string{"first", "second"}}, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "(2/5)")
	assert.Contains(t, text, "1. first\n2. second\n")
}

func TestPromptsFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(types.PromptsOutput{
		Languages:        []string{"Go", "Rust"},
		MinPromptLength:  10,
		Topics:           []string{"ReactJS"},
		RecruiterOptions: []string{"Skill Gap Analysis"},
		JobSeekerOptions: []string{"Percentage Match"},
	}, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Languages: Go, Rust")
	assert.Contains(t, out, "10 characters")
	assert.Contains(t, out, "- ReactJS")
	assert.Contains(t, out, "- Percentage Match")
}

func TestResetFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(types.ResetOutput{SessionID: "default", Scope: "all"}, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "All usage data")

	out, err = GlobalRegistry.Format(types.ResetOutput{SessionID: "default", Scope: "code"}, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Code generation history")
}

func TestChatFormatters(t *testing.T) {
	answer := chat.Answer{
		Topic: "ReactJS",
		Text:  "  Hooks let function components hold state.  ",
		Messages: []chat.Message{
			{Role: chat.RoleAssistant, Content: chat.Greeting("ReactJS")},
			{Role: chat.RoleUser, Content: "What are hooks?"},
			{Role: chat.RoleAssistant, Content: "Hooks let function components hold state."},
		},
	}

	text, err := GlobalRegistry.Format(answer, "text")
	require.NoError(t, err)
	assert.Equal(t, "Hooks let function components hold state.\n", text)

	md, err := GlobalRegistry.Format(answer, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# ReactJS Interview Preparation")
	assert.Contains(t, md, "**You:** What are hooks?")
}

func TestAnalysisFormatters(t *testing.T) {
	result := &ai.Result{Role: ai.RoleJobSeeker, Option: "Percentage Match", Text: "Match: 80%\n", Model: "gemini-1.5-flash", Elapsed: 2}

	text, err := GlobalRegistry.Format(result, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "=== JOB SEEKER: PERCENTAGE MATCH ===")
	assert.Contains(t, text, "Match: 80%")

	md, err := GlobalRegistry.Format(result, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Percentage Match")
	assert.Contains(t, md, "**Role:** Job Seeker")
}

func TestSummaryFormatters(t *testing.T) {
	empty := stats.Summarize(stats.NewRecord())
	text, err := GlobalRegistry.Format(empty, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "No data available yet")
	assert.NotContains(t, text, "TASK DISTRIBUTION")

	summary := stats.Summary{
		ChatbotQueries:      1,
		CodePrompts:         3,
		TotalCodeTime:       6,
		Samples:             3,
		AverageResponseTime: 2,
		MedianResponseTime:  2,
		MinResponseTime:     1,
		MaxResponseTime:     3,
		ChatbotShare:        25,
		CodeShare:           75,
	}
	text, err = GlobalRegistry.Format(summary, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Code Prompts:             3")
	assert.Contains(t, text, "Average: 2.00s")
	assert.Contains(t, text, "Code:    75.00%")

	md, err := GlobalRegistry.Format(summary, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| Code | 75.00% |")
	assert.Contains(t, md, "| 3 | 2.00 | 2.00 | 1.00 | 3.00 |")
}
