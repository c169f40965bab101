package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/ats-matcher/internal/web"
)

type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// HandleIndex serves the frontend at GET /.
func (h *PageHandler) HandleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(web.IndexHTML)
}
