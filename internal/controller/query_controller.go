package controller

import (
	"bufio"
	"context"
	"encoding/json"

	"agentic-rag-be/internal/dto"
	"agentic-rag-be/internal/pkg/serverutils"
	"agentic-rag-be/internal/service"
	"agentic-rag-be/pkg/rag/executor"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	AskStream(ctx *fiber.Ctx) error
	Analyze(ctx *fiber.Ctx) error
}

type queryController struct {
	queryService service.IQueryService
}

func NewQueryController(queryService service.IQueryService) IQueryController {
	return &queryController{
		queryService: queryService,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/query")
	h.Post("", c.Ask)
	h.Post("/stream", c.AskStream)
	h.Post("/analyze", c.Analyze)
}

func (c *queryController) Analyze(ctx *fiber.Ctx) error {
	var req dto.AnalyzeQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.queryService.Analyze(ctx.Context(), &req)
	return ctx.JSON(serverutils.SuccessResponse("Success analyze query", res))
}

func (c *queryController) Ask(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.queryService.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer query", res))
}

// AskStream answers over Server-Sent Events: one data frame per
// pipeline event, ending with the terminal answer and metadata frames.
func (c *queryController) AskStream(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The writer runs after this handler returns, so it must not touch
	// the fiber context again.
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sink := func(ev executor.Event) error {
			payload, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			if _, err := w.WriteString("data: " + string(payload) + "\n\n"); err != nil {
				return err
			}
			// Flush failure means the client disconnected; stop the
			// pipeline's event emission.
			return w.Flush()
		}

		_ = c.queryService.AskStream(context.Background(), &req, sink)
	}))

	return nil
}
