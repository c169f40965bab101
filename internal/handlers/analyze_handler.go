package handlers

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/ats-matcher/internal/models"
	"alfredoptarigan/ats-matcher/internal/services"
)

const (
	resumeField         = "resume"
	jobDescriptionField = "job_description"
)

type AnalyzeHandler struct {
	analyses    services.AnalysisService
	worker      services.Worker
	maxFileSize int64
}

// NewAnalyzeHandler builds the upload handlers. worker may be nil when
// asynchronous analyses are disabled.
func NewAnalyzeHandler(
	analyses services.AnalysisService,
	worker services.Worker,
	maxFileSize int64,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyses:    analyses,
		worker:      worker,
		maxFileSize: maxFileSize,
	}
}

// HandleAnalyze handles POST /analyze and answers with the three model outputs.
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	file, jobDescription, errMsg := h.readUpload(c)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errMsg,
		})
	}

	result, err := h.analyses.AnalyzeUpload(c.UserContext(), file, jobDescription)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(models.AnalyzeResponse{
		ParsedResume:         result.ParsedResume,
		ParsedJobDescription: result.ParsedJobDescription,
		ATSResult:            result.ATSResult,
	})
}

// HandleSubmit handles POST /api/v1/analyses and returns the queued job ID immediately.
func (h *AnalyzeHandler) HandleSubmit(c *fiber.Ctx) error {
	file, jobDescription, errMsg := h.readUpload(c)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errMsg,
		})
	}

	analysis, err := h.analyses.SubmitUpload(c.UserContext(), file, jobDescription)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if h.worker != nil {
		h.worker.EnqueueJob(analysis.ID)
	}

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitResponse{
		ID:     analysis.ID.String(),
		Status: string(analysis.Status),
	})
}

// readUpload validates the multipart form. A non-empty message means 400.
func (h *AnalyzeHandler) readUpload(c *fiber.Ctx) (*multipart.FileHeader, string, string) {
	file, err := c.FormFile(resumeField)
	if err != nil || file == nil {
		return nil, "", "Resume PDF is required"
	}

	jobDescription := c.FormValue(jobDescriptionField)
	if strings.TrimSpace(jobDescription) == "" {
		return nil, "", "Job description is required"
	}

	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return nil, "", fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize)
	}

	return file, jobDescription, ""
}
