package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Analysis is one résumé/job-description comparison, kept for history and async jobs.
type Analysis struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OriginalFilename     string         `gorm:"type:text" json:"original_filename"`
	StoredFilename       string         `gorm:"type:text" json:"stored_filename"`
	FilePath             string         `gorm:"type:text" json:"-"`
	JobDescription       string         `gorm:"type:text;not null" json:"job_description"`
	Status               AnalysisStatus `gorm:"type:text;not null;default:'queued';index" json:"status"`
	ParsedResume         *string        `gorm:"type:text" json:"parsed_resume,omitempty"`
	ParsedJobDescription *string        `gorm:"type:text" json:"parsed_job_description,omitempty"`
	ATSResult            *string        `gorm:"type:text" json:"ats_result,omitempty"`
	MatchPercentage      *float64       `gorm:"type:decimal(5,2)" json:"match_percentage,omitempty"`
	ErrorMessage         *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt            time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Analysis) TableName() string {
	return "analyses"
}
