package types

// GenerateInput represents the input for generating code
type GenerateInput struct {
	Language string `json:"language"`
	Prompt   string `json:"prompt"`
}

// GenerateOutput represents the output from a code generation
type GenerateOutput struct {
	SessionID string  `json:"session_id"`
	Language  string  `json:"language"`
	Prompt    string  `json:"prompt"`
	Code      string  `json:"code"`
	Elapsed   float64 `json:"elapsed_seconds"`
}

// HistoryOutput lists the prompts kept for a session, oldest first
type HistoryOutput struct {
	SessionID string   `json:"session_id"`
	Capacity  int      `json:"capacity"`
	Prompts   []string `json:"prompts"`
}

// AnalyzeInput represents the files and selection for a resume analysis
type AnalyzeInput struct {
	Role           string `json:"role"`
	Option         string `json:"option,omitempty"`
	Query          string `json:"query,omitempty"`
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resumeText,omitempty"`
	ResumePDF      []byte `json:"-"`
	ResumeFile     string `json:"resumeFile"`
}

// PromptsOutput is the catalogue of everything a user can ask for
type PromptsOutput struct {
	Languages        []string `json:"languages"`
	MinPromptLength  int      `json:"min_prompt_length"`
	Topics           []string `json:"chat_topics"`
	RecruiterOptions []string `json:"recruiter_options"`
	JobSeekerOptions []string `json:"job_seeker_options"`
}

// ResetOutput reports what a reset cleared
type ResetOutput struct {
	SessionID string `json:"session_id"`
	Scope     string `json:"scope"` // "code" or "all"
}
