package controller

import (
	"knowledge-workspace/internal/dto"
	"knowledge-workspace/internal/entity"
	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, session fiber.Handler)
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	logs logger.LogReader
}

func NewAdminController(logs logger.LogReader) IAdminController {
	return &adminController{logs: logs}
}

func (c *adminController) RegisterRoutes(r fiber.Router, session fiber.Handler) {
	h := r.Group("/admin", session, serverutils.RequireRole(string(entity.UserRoleAdmin)))
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	entries, err := c.logs.GetLogs(ctx.Query("level"), limit, (page-1)*limit)
	if err != nil {
		return err
	}

	res := make([]dto.LogListResponse, len(entries))
	for i, e := range entries {
		res[i] = toLogListResponse(e)
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", res))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	entry, err := c.logs.GetLogById(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "Log not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", dto.LogDetailResponse{
		LogListResponse: toLogListResponse(*entry),
		Details:         entry.Details,
	}))
}

func toLogListResponse(e logger.LogEntry) dto.LogListResponse {
	return dto.LogListResponse{
		Id:        e.Id,
		Level:     e.Level,
		Module:    e.Module,
		Message:   e.Message,
		Timestamp: e.Timestamp,
	}
}
