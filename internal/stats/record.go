// Package stats tracks per-session usage counters and persists them through
// a Repository.
package stats

import "slices"

// Record is the persisted usage-statistics document. Field names match the
// on-disk JSON layout.
type Record struct {
	ChatbotQueries   int       `json:"chatbot_queries"`
	CodePrompts      int       `json:"code_prompts"`
	TotalChatbotTime float64   `json:"total_chatbot_time"`
	TotalCodeTime    float64   `json:"total_code_time"`
	ResponseTimes    []float64 `json:"response_times"`
}

// NewRecord returns the zero record with an empty, non-nil latency list.
func NewRecord() Record {
	return Record{ResponseTimes: []float64{}}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.ResponseTimes = slices.Clone(r.ResponseTimes)
	if out.ResponseTimes == nil {
		out.ResponseTimes = []float64{}
	}
	return out
}

// IsEmpty reports whether no activity has been recorded.
func (r Record) IsEmpty() bool {
	return r.ChatbotQueries == 0 &&
		r.CodePrompts == 0 &&
		r.TotalChatbotTime == 0 &&
		r.TotalCodeTime == 0
}

func (r *Record) addCodePrompt(seconds float64) {
	r.ResponseTimes = append(r.ResponseTimes, seconds)
	r.TotalCodeTime += seconds
	r.CodePrompts++
}

func (r *Record) addChatQuery(seconds float64) {
	r.TotalChatbotTime += seconds
	r.ChatbotQueries++
}

// resetCode clears the fields owned by code generation, keeping CodePrompts
// equal to len(ResponseTimes).
func (r *Record) resetCode() {
	r.ResponseTimes = []float64{}
	r.TotalCodeTime = 0
	r.CodePrompts = 0
}

func normalize(r Record) Record {
	if r.ResponseTimes == nil {
		r.ResponseTimes = []float64{}
	}
	return r
}
