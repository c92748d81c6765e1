package middleware

import (
	"net/http"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/infrastructure/logger"
	"github.com/dairy/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Caller identity headers. Authentication happens upstream; the gateway
// forwards the verified user and role.
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"

	// ActorKey is the gin context key holding the appshared.Actor
	ActorKey = "actor"
)

// Actor resolves the calling actor from the identity headers.
// A missing or malformed user ID is rejected with 401, an unknown role with 403.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader(UserIDHeader)
		if rawID == "" {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Missing "+UserIDHeader+" header")
			return
		}
		userID, err := uuid.Parse(rawID)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Invalid "+UserIDHeader+" header")
			return
		}

		actor, err := appshared.NewActor(userID, appshared.Role(c.GetHeader(UserRoleHeader)))
		if err != nil {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, err.Error())
			return
		}

		c.Set(ActorKey, actor)

		ctx := c.Request.Context()
		log := logger.GetGinLogger(c)
		ctx, log = logger.WithUserID(ctx, log, userID.String())
		ctx, log = logger.WithRole(ctx, log, string(actor.Role))
		c.Set("logger", log)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetActor returns the actor stored by the Actor middleware
func GetActor(c *gin.Context) (appshared.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return appshared.Actor{}, false
	}
	actor, ok := v.(appshared.Actor)
	return actor, ok
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestIDFromContext(c)))
}
