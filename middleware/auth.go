package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/services"
	"github.com/Govind-619/RentSphere/store"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// UserFinder loads the user a token was issued to
type UserFinder interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware verifies the bearer token, loads the user and stores a services.Actor
// in the request context.
func AuthMiddleware(users UserFinder, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.LogError("Missing Authorization header on %s", c.Request.URL.Path)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		userID, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.LogError("Invalid token: %v", err)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		user, err := users.FindUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.LogError("Token for unknown user %s", userID)
				utils.Unauthorized(c, "User not found")
			} else {
				utils.LogError("Failed to load user %s: %v", userID, err)
				utils.InternalServerError(c, "Failed to authenticate", nil)
			}
			c.Abort()
			return
		}

		if user.IsBlocked {
			utils.LogError("Blocked user attempted access: %s", userID)
			utils.Forbidden(c, "Account is blocked")
			c.Abort()
			return
		}

		SetActor(c, services.Actor{ID: user.ID, Role: user.Role})
		utils.LogDebug("User %s authenticated as %s", user.ID, user.Role)
		c.Next()
	}
}

// RequireRoles lets through only actors holding one of roles
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			utils.LogError("Actor not found in context")
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		utils.LogError("User %s with role %s denied access to %s", actor.ID, actor.Role, c.Request.URL.Path)
		utils.Forbidden(c, "Access denied")
		c.Abort()
	}
}

// CurrentActor returns the authenticated actor of the request
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}

// SetActor stores actor in the request context
func SetActor(c *gin.Context, actor services.Actor) {
	c.Set(actorKey, actor)
}
