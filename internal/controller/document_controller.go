package controller

import (
	"agentic-rag-be/internal/dto"
	"agentic-rag-be/internal/pkg/serverutils"
	"agentic-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents")
	h.Post("", c.Ingest)
	h.Get("/stats", c.Stats)
}

func (c *documentController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.Ingest(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success ingest document", res))
}

func (c *documentController) Stats(ctx *fiber.Ctx) error {
	res, err := c.documentService.Stats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show corpus stats", res))
}
