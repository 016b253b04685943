package controller

import (
	"errors"

	"knowledge-workspace/internal/service"
	"knowledge-workspace/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, session fiber.Handler)
	Chat(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router, session fiber.Handler) {
	r.Post("/chat", session, c.Chat)
}

// Chat answers with a bare {answer, sources} body. Failures are plain text,
// the message the assistant shows to the user.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req rag.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).SendString("invalid request body")
	}

	res, err := c.service.Chat(ctx.UserContext(), &req)
	if err != nil {
		var domainErr *service.DomainError
		if errors.As(err, &domainErr) {
			return ctx.Status(domainErr.StatusCode()).SendString(domainErr.Error())
		}
		return ctx.Status(fiber.StatusInternalServerError).SendString("AI assistant failed: " + err.Error())
	}
	return ctx.JSON(res)
}
