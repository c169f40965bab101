package repositories

import (
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/ats-matcher/internal/models"
)

// noopAnalysisRepository stands in when DATABASE_ENABLED is false. Writes are
// dropped and lookups find nothing.
type noopAnalysisRepository struct{}

func NewNoopAnalysisRepository() AnalysisRepository {
	return noopAnalysisRepository{}
}

func (noopAnalysisRepository) Create(*models.Analysis) error { return nil }

func (noopAnalysisRepository) FindByID(uuid.UUID) (*models.Analysis, error) {
	return nil, ErrAnalysisNotFound
}

func (noopAnalysisRepository) List(int) ([]models.Analysis, error) { return nil, nil }

func (noopAnalysisRepository) MarkProcessing(uuid.UUID) (bool, error) { return false, nil }

func (noopAnalysisRepository) UpdateResult(uuid.UUID, *AnalysisUpdateData) error { return nil }

func (noopAnalysisRepository) UpdateError(uuid.UUID, string) error { return nil }

func (noopAnalysisRepository) FindQueued(int) ([]models.Analysis, error) { return nil, nil }

func (noopAnalysisRepository) FailStale(time.Time, string) (int64, error) { return 0, nil }
