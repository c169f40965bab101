package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/ats-matcher/internal/models"
	"alfredoptarigan/ats-matcher/internal/repositories"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type AnalysisHandler struct {
	repo repositories.AnalysisRepository
}

func NewAnalysisHandler(repo repositories.AnalysisRepository) *AnalysisHandler {
	return &AnalysisHandler{
		repo: repo,
	}
}

// HandleGetAnalysis handles GET /api/v1/analyses/:id
func (h *AnalysisHandler) HandleGetAnalysis(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid analysis ID format",
		})
	}

	analysis, err := h.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrAnalysisNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Analysis not found",
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(models.NewAnalysisResponse(analysis))
}

// HandleListAnalyses handles GET /api/v1/analyses?limit=N, newest first.
func (h *AnalysisHandler) HandleListAnalyses(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	analyses, err := h.repo.List(limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	response := models.AnalysisListResponse{
		Analyses: make([]models.AnalysisResponse, 0, len(analyses)),
	}
	for i := range analyses {
		response.Analyses = append(response.Analyses, models.NewAnalysisResponse(&analyses[i]))
	}
	response.Count = len(response.Analyses)

	return c.JSON(response)
}
