package controller

import (
	"agentic-rag-be/internal/pkg/serverutils"
	"agentic-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type conversationController struct {
	conversationService service.IConversationService
}

func NewConversationController(conversationService service.IConversationService) IConversationController {
	return &conversationController{
		conversationService: conversationService,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/conversations")
	h.Get("", c.List)
	h.Get(":id/messages", c.Messages)
	h.Delete(":id", c.Delete)
}

func (c *conversationController) List(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.conversationService.List(ctx.Context(), limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *conversationController) Messages(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversation id")
	}
	limit := ctx.QueryInt("limit", 50)

	res, err := c.conversationService.Messages(ctx.Context(), id, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *conversationController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversation id")
	}

	if err := c.conversationService.Delete(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete conversation", nil))
}
