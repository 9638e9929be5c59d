package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	obscontext "github.com/stagelink/stagelink/internal/observability/context"
)

const actorContextKey = "actor_user"

// actorMiddleware resolves the authenticated user from the X-Actor-Id header
// set by the auth gateway in front of this service. Routes behind it always
// have an actor.
func (s *Server) actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Actor-Id"))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actorID, err := snowflake.ParseString(raw)
		if err != nil || actorID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.users.FindByID(c.Request.Context(), s.db, actorID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := obscontext.WithActor(c.Request.Context(), strings.ToLower(string(user.Role)), user.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(actorContextKey, user)
		c.Next()
	}
}

func actorFrom(c *gin.Context) *accountdomain.User {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return nil
	}
	user, _ := value.(*accountdomain.User)
	return user
}

// requireAuthorization enforces the casbin policy for the actor's role.
func (s *Server) requireAuthorization(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if actor == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor.ID, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
