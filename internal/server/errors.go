package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
	"github.com/stagelink/stagelink/internal/authorization"
	funneldomain "github.com/stagelink/stagelink/internal/funnel/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	quotadomain "github.com/stagelink/stagelink/internal/quota/domain"
	shortlistdomain "github.com/stagelink/stagelink/internal/shortlist/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// mapError translates domain errors into HTTP statuses. Recoverable funnel
// outcomes are client errors, never 500s.
func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, shortlistdomain.ErrUpgradeRequired):
		return http.StatusForbidden, errorPayload{
			Type:    "upgrade_required",
			Message: "subscription tier does not allow this action",
		}
	case errors.Is(err, quotadomain.ErrQuotaExceeded):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "quota_exceeded",
			Message: "monthly application limit reached",
		}
	case errors.Is(err, shortlistdomain.ErrNotEligible):
		return http.StatusBadRequest, errorPayload{
			Type:    "not_eligible",
			Message: "project has not reached the application threshold",
		}
	case errors.Is(err, shortlistdomain.ErrSnapshotConflict):
		return http.StatusConflict, errorPayload{
			Type:    "snapshot_conflict",
			Message: "another shortlist generation is in progress",
		}
	case errors.Is(err, applicationdomain.ErrAlreadyApplied):
		return http.StatusConflict, errorPayload{
			Type:    "already_applied",
			Message: "application for this project already exists",
		}
	case errors.Is(err, funneldomain.ErrInvalidTransition):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_transition",
			Message: "status transition is not allowed",
		}
	case errors.Is(err, projectdomain.ErrProjectNotLive),
		errors.Is(err, projectdomain.ErrInvalidProject),
		errors.Is(err, projectdomain.ErrInvalidStatus),
		errors.Is(err, projectdomain.ErrInvalidPageToken),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accountdomain.ErrUserNotFound),
		errors.Is(err, projectdomain.ErrProjectNotFound),
		errors.Is(err, applicationdomain.ErrApplicationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog labels request-log entries with the mapped error kind
// so expected funnel outcomes are distinguishable from real failures.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal", payload.Type
	}
	return "client", payload.Type
}
