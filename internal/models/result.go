package models

import "time"

// AnalyzeResponse is the body of POST /analyze.
type AnalyzeResponse struct {
	ParsedResume         string `json:"parsed_resume"`
	ParsedJobDescription string `json:"parsed_job_description"`
	ATSResult            string `json:"ats_result"`
}

type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type AnalysisResponse struct {
	ID               string        `json:"id"`
	Status           string        `json:"status"`
	OriginalFilename string        `json:"original_filename"`
	CreatedAt        time.Time     `json:"created_at"`
	Result           *AnalysisData `json:"result,omitempty"`
	ErrorMessage     *string       `json:"error_message,omitempty"`
}

type AnalysisData struct {
	ParsedResume         string   `json:"parsed_resume"`
	ParsedJobDescription string   `json:"parsed_job_description"`
	ATSResult            string   `json:"ats_result"`
	MatchPercentage      *float64 `json:"match_percentage,omitempty"`
}

type AnalysisListResponse struct {
	Analyses []AnalysisResponse `json:"analyses"`
	Count    int                `json:"count"`
}

// NewAnalysisResponse shapes a stored analysis for the API, exposing results only once completed.
func NewAnalysisResponse(a *Analysis) AnalysisResponse {
	response := AnalysisResponse{
		ID:               a.ID.String(),
		Status:           string(a.Status),
		OriginalFilename: a.OriginalFilename,
		CreatedAt:        a.CreatedAt,
	}

	if a.Status == StatusCompleted {
		response.Result = &AnalysisData{
			ParsedResume:         deref(a.ParsedResume),
			ParsedJobDescription: deref(a.ParsedJobDescription),
			ATSResult:            deref(a.ATSResult),
			MatchPercentage:      a.MatchPercentage,
		}
	}

	if a.Status == StatusFailed && a.ErrorMessage != nil && *a.ErrorMessage != "" {
		response.ErrorMessage = a.ErrorMessage
	}

	return response
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
