package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/ats-matcher/internal/models"
)

var ErrAnalysisNotFound = errors.New("analysis not found")

type AnalysisRepository interface {
	Create(analysis *models.Analysis) error
	FindByID(id uuid.UUID) (*models.Analysis, error)
	List(limit int) ([]models.Analysis, error)
	MarkProcessing(id uuid.UUID) (bool, error)
	UpdateResult(id uuid.UUID, data *AnalysisUpdateData) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindQueued(limit int) ([]models.Analysis, error)
	FailStale(before time.Time, errorMsg string) (int64, error)
}

type AnalysisUpdateData struct {
	ParsedResume         *string
	ParsedJobDescription *string
	ATSResult            *string
	MatchPercentage      *float64
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(analysis *models.Analysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

func (r *analysisRepository) List(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Order("created_at DESC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	return analyses, nil
}

// MarkProcessing moves a queued analysis to processing. It returns false when
// another worker already claimed it.
func (r *analysisRepository) MarkProcessing(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim analysis: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *analysisRepository) UpdateResult(id uuid.UUID, data *AnalysisUpdateData) error {
	updates := map[string]interface{}{
		"status":     models.StatusCompleted,
		"updated_at": time.Now(),
	}

	if data.ParsedResume != nil {
		updates["parsed_resume"] = *data.ParsedResume
	}
	if data.ParsedJobDescription != nil {
		updates["parsed_job_description"] = *data.ParsedJobDescription
	}
	if data.ATSResult != nil {
		updates["ats_result"] = *data.ATSResult
	}
	if data.MatchPercentage != nil {
		updates["match_percentage"] = *data.MatchPercentage
	}

	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update result: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrAnalysisNotFound
	}

	return nil
}

func (r *analysisRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrAnalysisNotFound
	}

	return nil
}

func (r *analysisRepository) FindQueued(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find queued analyses: %w", err)
	}

	return analyses, nil
}

// FailStale marks analyses stuck in processing since before the cutoff as
// failed, e.g. after a crash between the claim and the result write.
func (r *analysisRepository) FailStale(before time.Time, errorMsg string) (int64, error) {
	result := r.db.Model(&models.Analysis{}).
		Where("status = ? AND updated_at < ?", models.StatusProcessing, before).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to fail stale analyses: %w", result.Error)
	}

	return result.RowsAffected, nil
}
