package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careercoach/internal/errors"
)

// ExportFileName is the suggested name for a saved analysis.
const ExportFileName = "resume_analysis.txt"

// Analyzer reviews resumes against job descriptions.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Result, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Request describes one analysis. Exactly one of Option and Query selects
// the task; ResumePDF takes precedence over ResumeText.
type Request struct {
	Role           string `json:"role"`
	Option         string `json:"option,omitempty"`
	Query          string `json:"query,omitempty"`
	JobDescription string `json:"job_description,omitempty"`
	ResumeText     string `json:"resume_text,omitempty"`
	ResumePDF      []byte `json:"resume_pdf,omitempty"`
}

// Result is a completed analysis.
type Result struct {
	Role      Role      `json:"role"`
	Option    string    `json:"option"`
	Text      string    `json:"response"`
	Model     string    `json:"model"`
	Elapsed   float64   `json:"elapsed_seconds"`
	CreatedAt time.Time `json:"created_at"`
}

// Export renders the result as the plain text users download.
func (r *Result) Export() []byte {
	return []byte(strings.TrimSpace(r.Text) + "\n")
}

type task struct {
	role        Role
	option      string
	instruction string
}

func (r Request) resolve() (task, error) {
	role, ok := ParseRole(r.Role)
	if !ok {
		return task{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown role %q, expected recruiter or job-seeker", r.Role), nil)
	}
	if len(r.ResumePDF) == 0 && strings.TrimSpace(r.ResumeText) == "" {
		return task{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Please upload the resume", nil)
	}

	query := strings.TrimSpace(r.Query)
	option := strings.TrimSpace(r.Option)
	switch {
	case query != "" && option != "":
		return task{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"choose either an analysis option or a custom query, not both", nil)
	case query != "":
		return task{role: role, option: CustomQueryOption, instruction: query}, nil
	case option == "":
		return task{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"an analysis option or a custom query is required", nil)
	}

	opt, ok := LookupOption(role, option)
	if !ok {
		return task{}, errors.NewValidationError(errors.ErrCodeUnknownOption,
			fmt.Sprintf("unknown %s option %q, expected one of: %s",
				role.Label(), option, strings.Join(OptionNames(role), ", ")), nil)
	}
	return task{role: role, option: opt.Name, instruction: opt.Name + ": " + opt.Instruction}, nil
}
