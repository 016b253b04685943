package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newSessionApp() *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())

	protected := app.Group("/p", SessionMiddleware(secret, "ws_session"))
	protected.Get("/me", func(ctx *fiber.Ctx) error {
		s, _ := CurrentSession(ctx)
		return ctx.JSON(SuccessResponse("ok", s))
	})
	protected.Get("/admin", RequireRole("admin"), func(ctx *fiber.Ctx) error {
		return ctx.SendString("welcome")
	})
	return app
}

func token(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	tok, _, err := IssueSessionToken(secret, Session{UserID: "u-1", Email: "a@b.c", Role: role}, ttl)
	require.NoError(t, err)
	return tok
}

func TestSessionMiddleware(t *testing.T) {
	app := newSessionApp()

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		path   string
		status int
	}{
		{"no credentials", func(r *http.Request) {}, "/p/me", 401},
		{"garbage cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "ws_session", Value: "nope"})
		}, "/p/me", 401},
		{"expired token", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "ws_session", Value: token(t, "viewer", -time.Minute)})
		}, "/p/me", 401},
		{"valid cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "ws_session", Value: token(t, "viewer", time.Hour)})
		}, "/p/me", 200},
		{"valid bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(t, "viewer", time.Hour))
		}, "/p/me", 200},
		{"viewer on admin route", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "ws_session", Value: token(t, "viewer", time.Hour)})
		}, "/p/admin", 403},
		{"admin on admin route", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "ws_session", Value: token(t, "admin", time.Hour)})
		}, "/p/admin", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.setup(req)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestSessionMiddleware_StoresLocals(t *testing.T) {
	app := newSessionApp()

	req := httptest.NewRequest(http.MethodGet, "/p/me", nil)
	req.AddCookie(&http.Cookie{Name: "ws_session", Value: token(t, "admin", time.Hour)})
	resp, err := app.Test(req)
	require.NoError(t, err)

	var body BaseResponse[Session]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, Session{UserID: "u-1", Email: "a@b.c", Role: "admin"}, body.Data)
}

func TestParseSessionToken_RejectsOtherSecret(t *testing.T) {
	tok, _, err := IssueSessionToken("other", Session{UserID: "u", Role: "admin"}, time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(secret, tok)
	assert.Error(t, err)
}

type codedErr struct{}

func (codedErr) Error() string   { return "document not found" }
func (codedErr) StatusCode() int { return 404 }

func TestErrorHandlerMiddleware(t *testing.T) {
	type payload struct {
		Title string `validate:"required"`
	}

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"fiber error", fiber.NewError(418, "teapot"), 418, "teapot"},
		{"validation", ValidateRequest(payload{}), 400, "Title is required"},
		{"domain error", codedErr{}, 404, "document not found"},
		{"wrapped domain error", fmt.Errorf("load: %w", codedErr{}), 404, "load: document not found"},
		{"unknown", errors.New("boom"), 500, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body BaseResponse[any]
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestErrorHandlerMiddleware_BadJSON(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Post("/", func(ctx *fiber.Ctx) error {
		var v map[string]string
		return ctx.BodyParser(&v)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{oops"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
