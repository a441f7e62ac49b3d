package controller

import (
	"agentic-rag-be/internal/pkg/serverutils"
	"agentic-rag-be/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

type IMetricsController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type metricsController struct {
	tracker *metrics.Tracker
}

func NewMetricsController(tracker *metrics.Tracker) IMetricsController {
	return &metricsController{tracker: tracker}
}

func (c *metricsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/metrics")
	h.Get("", c.Show)
	h.Post("/reset", c.Reset)
}

func (c *metricsController) Show(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success show metrics", c.tracker.Snapshot()))
}

func (c *metricsController) Reset(ctx *fiber.Ctx) error {
	c.tracker.Reset()
	return ctx.JSON(serverutils.SuccessResponse("Success reset metrics", nil))
}
