// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"strconv"
	"strings"

	"agora/internal/config"
	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// ActorLocal is the fiber.Ctx locals key holding the resolved models.Actor.
const ActorLocal = "actor"

// ActorFromCtx returns the actor resolved by the auth middleware. Requests
// that carried no (valid) token get the anonymous actor.
func ActorFromCtx(c *fiber.Ctx) models.Actor {
	if actor, ok := c.Locals(ActorLocal).(models.Actor); ok {
		return actor
	}
	return models.Actor{}
}

// actorFromToken parses and validates a bearer token and maps its claims to
// an Actor. Identity claims: sub (user id), role, email_verified.
func actorFromToken(tokenString string) (models.Actor, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, false
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return models.Actor{}, false
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil || userID == 0 {
		return models.Actor{}, false
	}

	actor := models.Actor{ID: uint(userID), Role: models.RoleUser}
	if role, ok := claims["role"].(string); ok && role != "" {
		actor.Role = role
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		actor.EmailVerified = verified
	}
	return actor, true
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization header required",
		})
	}

	actor, ok := actorFromToken(tokenString)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals(ActorLocal, actor)
	c.Locals("userID", actor.ID)
	return c.Next()
}

// OptionalAuth resolves the actor when a valid token is present but lets the
// request through anonymously otherwise. Read endpoints use it so visibility
// rules can distinguish owners and admins from the public.
func OptionalAuth(c *fiber.Ctx) error {
	if tokenString, ok := bearerToken(c); ok {
		if actor, ok := actorFromToken(tokenString); ok {
			c.Locals(ActorLocal, actor)
			c.Locals("userID", actor.ID)
		}
	}
	return c.Next()
}

// AdminRequired enforces that the resolved actor has the admin role. Must run
// after AuthRequired.
func AdminRequired(c *fiber.Ctx) error {
	if !ActorFromCtx(c).IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin role required",
		})
	}
	return c.Next()
}
