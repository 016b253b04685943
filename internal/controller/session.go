package controller

import (
	"knowledge-workspace/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actorID is the uuid of the signed-in user, or uuid.Nil for legacy tokens.
func actorID(ctx *fiber.Ctx) uuid.UUID {
	session, ok := serverutils.CurrentSession(ctx)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(session.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}
