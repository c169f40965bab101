package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/models"
	"alfredoptarigan/ats-matcher/internal/repositories"
)

const (
	ModeSync  = "sync"
	ModeAsync = "async"

	uploadPrefix = "resume"
)

// AnalysisService owns an upload from the moment it is saved until its
// result is recorded, archived and announced.
type AnalysisService interface {
	AnalyzeUpload(ctx context.Context, file *multipart.FileHeader, jobDescription string) (*AnalysisResult, error)
	SubmitUpload(ctx context.Context, file *multipart.FileHeader, jobDescription string) (*models.Analysis, error)
	Process(ctx context.Context, id uuid.UUID) error
}

type analysisService struct {
	repo        repositories.AnalysisRepository
	storage     StorageService
	analyzer    AnalyzerService
	archive     ArchiveService
	publisher   EventPublisher
	deleteAfter bool
	log         *zap.Logger
}

func NewAnalysisService(
	repo repositories.AnalysisRepository,
	storage StorageService,
	analyzer AnalyzerService,
	archive ArchiveService,
	publisher EventPublisher,
	deleteAfter bool,
	log *zap.Logger,
) AnalysisService {
	return &analysisService{
		repo:        repo,
		storage:     storage,
		analyzer:    analyzer,
		archive:     archive,
		publisher:   publisher,
		deleteAfter: deleteAfter,
		log:         log,
	}
}

// AnalyzeUpload runs the pipeline inline. Only failing to save the upload is
// an error; model and extraction failures are already folded into the result.
func (s *analysisService) AnalyzeUpload(ctx context.Context, file *multipart.FileHeader, jobDescription string) (*AnalysisResult, error) {
	storedName, filePath, err := s.storage.SaveFile(file, uploadPrefix)
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("file", storedName), zap.String("mode", ModeSync))
	log.Info("resume saved", zap.String("original", file.Filename), zap.Int64("size", file.Size))

	s.archiveFile(ctx, log, storedName, filePath)

	result := s.analyzer.Analyze(ctx, AnalysisInput{
		ResumePath:     filePath,
		JobDescription: jobDescription,
	})

	analysis := &models.Analysis{
		ID:                   uuid.New(),
		OriginalFilename:     file.Filename,
		StoredFilename:       storedName,
		FilePath:             filePath,
		JobDescription:       jobDescription,
		Status:               models.StatusCompleted,
		ParsedResume:         &result.ParsedResume,
		ParsedJobDescription: &result.ParsedJobDescription,
		ATSResult:            &result.ATSResult,
		MatchPercentage:      result.MatchPercentage,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	if err := s.repo.Create(analysis); err != nil {
		log.Warn("failed to record analysis history", zap.Error(err))
	}

	s.publish(ctx, log, analysis, ModeSync)
	s.cleanup(log, storedName)

	return result, nil
}

// SubmitUpload saves the upload and queues it for the worker.
func (s *analysisService) SubmitUpload(ctx context.Context, file *multipart.FileHeader, jobDescription string) (*models.Analysis, error) {
	storedName, filePath, err := s.storage.SaveFile(file, uploadPrefix)
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("file", storedName), zap.String("mode", ModeAsync))
	s.archiveFile(ctx, log, storedName, filePath)

	analysis := &models.Analysis{
		ID:               uuid.New(),
		OriginalFilename: file.Filename,
		StoredFilename:   storedName,
		FilePath:         filePath,
		JobDescription:   jobDescription,
		Status:           models.StatusQueued,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := s.repo.Create(analysis); err != nil {
		if delErr := s.storage.DeleteFile(storedName); delErr != nil {
			log.Warn("failed to remove orphaned upload", zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to queue analysis: %w", err)
	}

	log.Info("analysis queued", zap.String("id", analysis.ID.String()))
	return analysis, nil
}

// Process runs a queued analysis. Analyses already claimed by another worker are skipped.
func (s *analysisService) Process(ctx context.Context, id uuid.UUID) error {
	claimed, err := s.repo.MarkProcessing(id)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Debug("analysis already claimed, skipping", zap.String("id", id.String()))
		return nil
	}

	log := s.log.With(zap.String("id", id.String()), zap.String("mode", ModeAsync))

	analysis, err := s.repo.FindByID(id)
	if err != nil {
		if updErr := s.repo.UpdateError(id, err.Error()); updErr != nil && !errors.Is(updErr, repositories.ErrAnalysisNotFound) {
			log.Warn("failed to record analysis error", zap.Error(updErr))
		}
		return fmt.Errorf("failed to load analysis: %w", err)
	}

	if err := ctx.Err(); err != nil {
		s.fail(ctx, log, analysis, fmt.Sprintf("analysis interrupted: %v", err))
		return err
	}

	result := s.analyzer.Analyze(ctx, AnalysisInput{
		ResumePath:     analysis.FilePath,
		JobDescription: analysis.JobDescription,
	})

	err = s.repo.UpdateResult(id, &repositories.AnalysisUpdateData{
		ParsedResume:         &result.ParsedResume,
		ParsedJobDescription: &result.ParsedJobDescription,
		ATSResult:            &result.ATSResult,
		MatchPercentage:      result.MatchPercentage,
	})
	if err != nil {
		err = fmt.Errorf("failed to save analysis result: %w", err)
		s.fail(ctx, log, analysis, err.Error())
		return err
	}

	analysis.Status = models.StatusCompleted
	analysis.MatchPercentage = result.MatchPercentage

	s.publish(ctx, log, analysis, ModeAsync)
	s.cleanup(log, analysis.StoredFilename)

	log.Info("analysis completed")
	return nil
}

func (s *analysisService) fail(ctx context.Context, log *zap.Logger, analysis *models.Analysis, message string) {
	if err := s.repo.UpdateError(analysis.ID, message); err != nil {
		log.Warn("failed to record analysis error", zap.Error(err))
	}
	analysis.Status = models.StatusFailed
	s.publish(context.WithoutCancel(ctx), log, analysis, ModeAsync)
}

func (s *analysisService) archiveFile(ctx context.Context, log *zap.Logger, storedName, filePath string) {
	if !s.archive.Enabled() {
		return
	}
	if err := s.archive.Archive(ctx, storedName, filePath); err != nil {
		log.Warn("failed to archive resume", zap.Error(err))
	}
}

func (s *analysisService) publish(ctx context.Context, log *zap.Logger, analysis *models.Analysis, mode string) {
	event := AnalysisEvent{
		AnalysisID:       analysis.ID.String(),
		Mode:             mode,
		Status:           string(analysis.Status),
		OriginalFilename: analysis.OriginalFilename,
		MatchPercentage:  analysis.MatchPercentage,
		FinishedAt:       time.Now().UTC(),
	}
	if err := s.publisher.PublishAnalysisEvent(ctx, event); err != nil {
		log.Warn("failed to publish analysis event", zap.Error(err))
	}
}

func (s *analysisService) cleanup(log *zap.Logger, storedName string) {
	if !s.deleteAfter || storedName == "" {
		return
	}
	if err := s.storage.DeleteFile(storedName); err != nil {
		log.Warn("failed to delete upload", zap.Error(err))
	}
}
