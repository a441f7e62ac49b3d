package controller

import (
	"agentic-rag-be/internal/dto"
	"agentic-rag-be/internal/pkg/serverutils"
	"agentic-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFeedbackController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type feedbackController struct {
	feedbackService service.IFeedbackService
}

func NewFeedbackController(feedbackService service.IFeedbackService) IFeedbackController {
	return &feedbackController{
		feedbackService: feedbackService,
	}
}

func (c *feedbackController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/feedback")
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get("/stats", c.Stats)
}

func (c *feedbackController) Stats(ctx *fiber.Ctx) error {
	res, err := c.feedbackService.Stats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success feedback stats", res))
}

func (c *feedbackController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.feedbackService.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create feedback", res))
}

func (c *feedbackController) List(ctx *fiber.Ctx) error {
	maxRating := ctx.QueryInt("max_rating", 0)
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.feedbackService.List(ctx.Context(), maxRating, limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list feedback", res))
}
