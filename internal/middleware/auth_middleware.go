package middleware

import (
	"strings"

	"backoffice-api/internal/model"
	"backoffice-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserID    = "user_id"
	LocalUserName  = "user_name"
	LocalUserEmail = "user_email"
)

// Identify reads an optional bearer token and stores the operator in the
// request locals for audit fields. It never rejects a request: missing or
// invalid tokens leave the request attributed to the system actor.
func Identify(signer *jwt.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.Next()
		}

		claims, err := signer.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			GetLoggerFromCtx(c.UserContext()).Debug("Ignoring invalid bearer token")
			return c.Next()
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserName, claims.Name)
		c.Locals(LocalUserEmail, claims.Email)
		return c.Next()
	}
}

// ActorFrom returns the operator set by Identify, or the system actor.
func ActorFrom(c *fiber.Ctx) model.Actor {
	id, _ := c.Locals(LocalUserID).(string)
	if id == "" {
		return model.SystemActor
	}
	name, _ := c.Locals(LocalUserName).(string)
	email, _ := c.Locals(LocalUserEmail).(string)
	if name == "" {
		name = "Unknown"
	}
	return model.Actor{ID: id, Name: name, Email: email}
}
