package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"careercoach/internal/ai"
	"careercoach/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	configFile string
	statsDir   string
	requests   *atomic.Int32
}

// newCLIEnv writes a config pointing the code generator at a stub endpoint
// that always answers with code.
func newCLIEnv(t *testing.T, code string) *cliEnv {
	t.Helper()

	var requests atomic.Int32
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": code, "done": true})
	}))
	t.Cleanup(endpoint.Close)

	dir := t.TempDir()
	statsDir := filepath.Join(dir, "stats")
	configFile := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf(`codegen:
  endpoint: %s
  retry:
    maxAttempts: 1
    attemptTimeout: 2s
    delay: 1ms
stats:
  dir: %s
app:
  logLevel: error
`, endpoint.URL, statsDir)
	require.NoError(t, os.WriteFile(configFile, []byte(yaml), 0o600))

	return &cliEnv{configFile: configFile, statsDir: statsDir, requests: &requests}
}

// run executes the CLI with args and returns what it printed to stdout.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flag variables outlive a single execution; start every run clean.
	rootFlags.configFile, rootFlags.logLevel, rootFlags.format, rootFlags.session = "", "", "", config.DefaultSessionID
	generateFlags.language, generateFlags.prompt, generateFlags.promptFile, generateFlags.output = "", "", "", ""
	resetAll = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config", e.configFile}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := Execute(context.Background())
	return out.String(), err
}

func TestGenerateRecordsUsage(t *testing.T) {
	env := newCLIEnv(t, "def reverse(s):\n    return s[::-1]")

	out, err := env.run(t, "generate", "--language", "Python", "--prompt", "reverse a string please", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "def reverse(s):\n    return s[::-1]\n", out)
	assert.Equal(t, int32(1), env.requests.Load())

	// A new process sees the persisted record.
	out, err = env.run(t, "stats", "show", "--format", "json")
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, float64(1), summary["code_prompts"])
	assert.Equal(t, float64(1), summary["samples"])

	_, err = os.Stat(filepath.Join(env.statsDir, "session_data.json"))
	assert.NoError(t, err)
}

func TestGenerateFromFile(t *testing.T) {
	env := newCLIEnv(t, "fn main() {}")
	promptFile := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(promptFile, []byte("  an empty rust program  \n"), 0o600))

	out, err := env.run(t, "generate", "-l", "Rust", "-f", promptFile, "--format", "json")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "an empty rust program", result["prompt"])
	assert.Equal(t, "fn main() {}", result["code"])
	assert.Equal(t, config.DefaultSessionID, result["session_id"])
}

func TestGenerateRejectsShortPrompt(t *testing.T) {
	env := newCLIEnv(t, "x")

	_, err := env.run(t, "generate", "--language", "Go", "--prompt", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 10 characters")
	assert.Equal(t, int32(0), env.requests.Load(), "endpoint must not be called")
}

func TestGenerateNeedsOnePromptSource(t *testing.T) {
	env := newCLIEnv(t, "x")

	_, err := env.run(t, "generate", "--language", "Go", "--prompt", "a long enough prompt", "--file", "prompt.txt")
	assert.ErrorContains(t, err, "exactly one of --prompt or --file")
}

func TestHistoryAndResetScopes(t *testing.T) {
	env := newCLIEnv(t, "package main")

	for _, prompt := range []string{"first program please", "second program please"} {
		_, err := env.run(t, "generate", "--language", "Go", "--prompt", prompt, "--session", "alice")
		require.NoError(t, err)
	}

	// History lives in memory, so a new process starts with an empty one.
	out, err := env.run(t, "history", "--session", "alice", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"session_id": "alice"`)

	out, err = env.run(t, "stats", "reset", "--session", "alice", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Code generation history for session alice has been reset.")

	out, err = env.run(t, "stats", "show", "--session", "alice", "--format", "json")
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, float64(0), summary["code_prompts"])
	assert.Equal(t, float64(0), summary["samples"])

	_, err = env.run(t, "stats", "reset", "--all", "--session", "alice")
	require.NoError(t, err)
	out, err = env.run(t, "stats", "show", "--session", "alice", "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, float64(0), summary["code_prompts"])
	assert.Equal(t, true, summary["no_data"])

	_, err = os.Stat(filepath.Join(env.statsDir, "session_alice.json"))
	assert.NoError(t, err)
}

func TestInvalidSession(t *testing.T) {
	env := newCLIEnv(t, "x")
	_, err := env.run(t, "stats", "show", "--session", "../escape")
	assert.ErrorContains(t, err, "invalid session id")
}

func TestPromptsCommand(t *testing.T) {
	env := newCLIEnv(t, "x")

	out, err := env.run(t, "prompts", "--format", "json")
	require.NoError(t, err)

	var catalogue struct {
		Languages        []string `json:"languages"`
		MinPromptLength  int      `json:"min_prompt_length"`
		Topics           []string `json:"chat_topics"`
		RecruiterOptions []string `json:"recruiter_options"`
		JobSeekerOptions []string `json:"job_seeker_options"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &catalogue))
	assert.Equal(t, config.DefaultLanguages, catalogue.Languages)
	assert.Equal(t, 10, catalogue.MinPromptLength)
	assert.Contains(t, catalogue.Topics, "Data Science")
	assert.Equal(t, ai.OptionNames(ai.RoleRecruiter), catalogue.RecruiterOptions)
	assert.Contains(t, catalogue.JobSeekerOptions, "Percentage Match")
}

func TestUnsupportedFormat(t *testing.T) {
	env := newCLIEnv(t, "x")
	_, err := env.run(t, "prompts", "--format", "yaml")
	assert.Error(t, err)
}

func TestAnalyzeValidatesFlags(t *testing.T) {
	env := newCLIEnv(t, "x")
	analyzeFlags.role, analyzeFlags.option, analyzeFlags.query = string(ai.RoleJobSeeker), "", ""
	t.Cleanup(func() { analyzeFlags.role, analyzeFlags.option, analyzeFlags.query = string(ai.RoleJobSeeker), "", "" })

	_, err := env.run(t, "analyze", "--role", "manager", "--option", "Percentage Match", "--resume", "cv.pdf")
	assert.ErrorContains(t, err, "invalid role")

	analyzeFlags.option = ""
	_, err = env.run(t, "analyze", "--role", "recruiter", "--option", "Skill Gap Analysis", "--query", "and this?", "--resume", "cv.pdf")
	assert.ErrorContains(t, err, "exactly one of --option or --query")
}

func TestVersionSkipsConfig(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, Execute(context.Background()))
	assert.Contains(t, out.String(), "careercoach version dev")
}
