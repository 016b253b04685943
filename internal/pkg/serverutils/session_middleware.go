package serverutils

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
	LocalRole   = "role"
)

type Session struct {
	UserID string
	Email  string
	Role   string
}

// IssueSessionToken signs an HS256 session token for the user.
func IssueSessionToken(secret string, s Session, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"user_id": s.UserID,
		"email":   s.Email,
		"role":    s.Role,
		"exp":     expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func ParseSessionToken(secret, tokenStr string) (*Session, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || role == "" {
		return nil, errors.New("invalid claims")
	}

	return &Session{UserID: userID, Email: email, Role: role}, nil
}

// SessionMiddleware accepts the session cookie, or a Bearer token for
// non-browser tools, and stores the session in the request locals.
func SessionMiddleware(secret, cookieName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := ctx.Cookies(cookieName)
		if tokenStr == "" {
			authHeader := ctx.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenStr = authHeader[7:]
			}
		}
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing session"))
		}

		session, err := ParseSessionToken(secret, tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid session"))
		}

		ctx.Locals(LocalUserID, session.UserID)
		ctx.Locals(LocalEmail, session.Email)
		ctx.Locals(LocalRole, session.Role)
		return ctx.Next()
	}
}

// RequireRole must run after SessionMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		role, _ := ctx.Locals(LocalRole).(string)
		for _, r := range roles {
			if role == r {
				return ctx.Next()
			}
		}
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Insufficient permissions"))
	}
}

// CurrentSession reads what SessionMiddleware stored.
func CurrentSession(ctx *fiber.Ctx) (Session, bool) {
	userID, _ := ctx.Locals(LocalUserID).(string)
	if userID == "" {
		return Session{}, false
	}
	email, _ := ctx.Locals(LocalEmail).(string)
	role, _ := ctx.Locals(LocalRole).(string)
	return Session{UserID: userID, Email: email, Role: role}, true
}
