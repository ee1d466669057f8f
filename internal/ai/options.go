package ai

import (
	"strings"
)

// Role selects the analysis catalogue.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleJobSeeker Role = "job-seeker"
)

// CustomQueryOption names analyses driven by a free-form query.
const CustomQueryOption = "Custom Query"

// Option is one predefined analysis.
type Option struct {
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	Instruction string `json:"instruction"`
}

var recruiterOptions = []Option{
	{Name: "Skill Gap Analysis", Instruction: "Compare the skills in the resume with those the job description requires. List the required skills the candidate lacks, the ones only partially covered, and how critical each gap is for the role."},
	{Name: "Candidate Ranking", Instruction: "Rate the candidate against the job description on a scale from 1 to 10. Justify the rating with the strongest matches and the most important shortcomings."},
	{Name: "Cultural Fit Evaluation", Instruction: "Assess how well the candidate's experience, working style and values, as evidenced in the resume, fit the culture and team described in the job description."},
	{Name: "Diversity and Inclusion Metrics", Instruction: "Summarize the perspectives and varied experience the candidate could bring to the team. Base the assessment only on professional information in the resume and never infer protected characteristics."},
	{Name: "Keyword Frequency Analysis", Instruction: "List the keywords and phrases from the job description, how often each appears in the resume, and which important keywords are absent."},
	{Name: "Red Flag Detection", Instruction: "Identify potential red flags in the resume such as unexplained employment gaps, frequent job changes, inconsistent dates or vague claims, and suggest questions to clarify each in an interview."},
}

var jobSeekerOptions = []Option{
	{Name: "Tell Me About the Resume", Instruction: "Act as an experienced technical HR manager. Review the resume against the job description and share a professional evaluation of whether the profile aligns with the role, highlighting strengths and weaknesses."},
	{Name: "Missing Keywords", Instruction: "Act as an ATS scanner. List the keywords from the job description that are missing from the resume, grouped by importance."},
	{Name: "Percentage Match", Instruction: "Act as an ATS scanner. Give the percentage match between the resume and the job description first, then the missing keywords, then final thoughts."},
	{Name: "Actionable Feedback for Improvement", Instruction: "Give concrete, prioritized changes the candidate can make to the resume to better match the job description."},
	{Name: "Role Fit Suggestions", Instruction: "Suggest the roles and seniority levels the resume is best suited for and explain how they relate to the job description."},
	{Name: "Career Growth Potential", Instruction: "Describe the candidate's likely career trajectory based on the resume, the next steps that would move it toward the role in the job description, and the skills to develop on the way."},
	{Name: "Resume Tailoring Suggestions", Instruction: "Suggest how to rewrite the summary, experience bullets and skills section of the resume to target the job description, using only experience the resume already contains."},
	{Name: "Cover Letter Generation", Instruction: "Write a concise cover letter for the job description based only on the experience and skills in the resume."},
	{Name: "Job Fit Score", Instruction: "Score the fit between the resume and the job description from 0 to 100 and break the score down by skills, experience, education and domain knowledge."},
	{Name: "Resume Length Optimization", Instruction: "Evaluate whether the resume length suits the candidate's experience and the role, and point out sections to shorten, merge or expand."},
	{Name: "Achievement-Based Suggestions", Instruction: "Rewrite duty-oriented statements in the resume as quantified, achievement-based bullets relevant to the job description, without inventing results."},
}

func init() {
	for i := range recruiterOptions {
		recruiterOptions[i].Role = RoleRecruiter
	}
	for i := range jobSeekerOptions {
		jobSeekerOptions[i].Role = RoleJobSeeker
	}
}

// ParseRole accepts the role names shown to users in any case, with or
// without the dash.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recruiter":
		return RoleRecruiter, true
	case "job-seeker", "job seeker", "jobseeker":
		return RoleJobSeeker, true
	}
	return "", false
}

// Label is the display name of r.
func (r Role) Label() string {
	switch r {
	case RoleRecruiter:
		return "Recruiter"
	case RoleJobSeeker:
		return "Job Seeker"
	}
	return string(r)
}

// Options returns the catalogue for role in display order.
func Options(role Role) []Option {
	var src []Option
	switch role {
	case RoleRecruiter:
		src = recruiterOptions
	case RoleJobSeeker:
		src = jobSeekerOptions
	}
	out := make([]Option, len(src))
	copy(out, src)
	return out
}

// OptionNames lists the option names available to role.
func OptionNames(role Role) []string {
	opts := Options(role)
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.Name
	}
	return names
}

// LookupOption finds an option of role by name, ignoring case and
// surrounding space.
func LookupOption(role Role, name string) (Option, bool) {
	name = strings.TrimSpace(name)
	for _, o := range Options(role) {
		if strings.EqualFold(o.Name, name) {
			return o, true
		}
	}
	return Option{}, false
}
