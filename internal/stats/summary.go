package stats

import (
	"math"

	"github.com/elliotchance/pie/v2"
)

// Summary is the analytics view of a record.
type Summary struct {
	ChatbotQueries      int     `json:"chatbot_queries"`
	CodePrompts         int     `json:"code_prompts"`
	TotalChatbotTime    float64 `json:"total_chatbot_time"`
	TotalCodeTime       float64 `json:"total_code_time"`
	Samples             int     `json:"samples"`
	AverageResponseTime float64 `json:"average_response_time"`
	MedianResponseTime  float64 `json:"median_response_time"`
	MinResponseTime     float64 `json:"min_response_time"`
	MaxResponseTime     float64 `json:"max_response_time"`
	ChatbotShare        float64 `json:"chatbot_share_percent"`
	CodeShare           float64 `json:"code_share_percent"`
	ResumeCount         int     `json:"resume_count"`
	TotalAnalysisTime   float64 `json:"total_analysis_time"`
	NoData              bool    `json:"no_data"`
}

// Summarize builds the analytics summary of rec. Times are rounded to two
// decimals.
func Summarize(rec Record) Summary {
	s := Summary{
		ChatbotQueries:   rec.ChatbotQueries,
		CodePrompts:      rec.CodePrompts,
		TotalChatbotTime: round2(rec.TotalChatbotTime),
		TotalCodeTime:    round2(rec.TotalCodeTime),
		Samples:          len(rec.ResponseTimes),
		NoData:           rec.IsEmpty(),
	}

	if len(rec.ResponseTimes) > 0 {
		s.AverageResponseTime = round2(pie.Average(rec.ResponseTimes))
		s.MedianResponseTime = round2(pie.Median(rec.ResponseTimes))
		s.MinResponseTime = round2(pie.Min(rec.ResponseTimes))
		s.MaxResponseTime = round2(pie.Max(rec.ResponseTimes))
	}

	if total := rec.ChatbotQueries + rec.CodePrompts; total > 0 {
		s.ChatbotShare = round2(float64(rec.ChatbotQueries) * 100 / float64(total))
		s.CodeShare = round2(float64(rec.CodePrompts) * 100 / float64(total))
	}
	return s
}

// SummarizeTracker adds the tracker's in-memory analysis counters to the summary.
func SummarizeTracker(t *Tracker) Summary {
	s := Summarize(t.Snapshot())
	count, total := t.Analysis()
	s.ResumeCount = count
	s.TotalAnalysisTime = round2(total)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
