package ai

// SystemPrompts contains the system-level instructions for resume analysis
type SystemPrompts struct {
	AnalyzeResume string
}

// UserPrompts contains user-level prompt templates. AnalyzeResume receives
// the role label, the task and the job description, in that order.
type UserPrompts struct {
	AnalyzeResume string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	AnalyzeResume: `You are an experienced technical recruiter and career coach. You review resumes against job descriptions for both hiring teams and candidates.

Your principles:
- Base every statement on the resume and the job description you are given
- Never invent skills, employers, dates or achievements
- Be specific: quote or paraphrase the parts of the resume you refer to
- Be constructive and professional in tone

Format the answer as plain text with short headings and bullet points where they help readability.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	AnalyzeResume: `I am a %s. The resume is attached.

**Task:**
%s

**Job Description:**
%s`,
}

// noJobDescription stands in for an empty job description.
const noJobDescription = "(none provided; evaluate the resume on its own merits)"

// resolvePrompt selects a prompt in priority order: loaded from a file,
// set in the configuration, then the built-in default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
