package controller

import (
	"time"

	"knowledge-workspace/internal/dto"
	"knowledge-workspace/internal/entity"
	"knowledge-workspace/internal/pkg/serverutils"
	"knowledge-workspace/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CookieSettings struct {
	Name   string
	Secure bool
}

type IAuthController interface {
	RegisterRoutes(r fiber.Router, session fiber.Handler)
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
	CreateUser(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
	cookie  CookieSettings
}

func NewAuthController(service service.IAuthService, cookie CookieSettings) IAuthController {
	return &authController{service: service, cookie: cookie}
}

func (c *authController) RegisterRoutes(r fiber.Router, session fiber.Handler) {
	h := r.Group("/auth")
	h.Post("/login", c.Login)
	h.Post("/logout", c.Logout)
	h.Get("/me", session, c.Me)
	h.Post("/users", session, serverutils.RequireRole(string(entity.UserRoleAdmin)), c.CreateUser)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.UserContext(), &req, ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     c.cookie.Name,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
		Secure:   c.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.JSON(serverutils.SuccessResponse("Login successful", res.SessionResponse))
}

// Logout always succeeds, even without a session.
func (c *authController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   c.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.JSON(serverutils.SuccessResponse[any]("Logged out", nil))
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	session, _ := serverutils.CurrentSession(ctx)
	res, err := c.service.Me(ctx.UserContext(), session)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Current session", res))
}

func (c *authController) CreateUser(ctx *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateUser(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("User created", res))
}
