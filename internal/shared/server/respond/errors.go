package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Roshanbtech/Extractify/internal/shared/apperror"
	"github.com/Roshanbtech/Extractify/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AppError maps a kinded service error to its HTTP response. Internal
// causes stay in the logs; the client only sees the caller-safe message.
func AppError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)

	if cause := err; cause != nil {
		telemetry.Error("service.error", map[string]any{
			"kind":       kind.String(),
			"err":        cause.Error(),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString("requestId"),
		})
	}

	switch kind {
	case apperror.Unauthenticated:
		Error(c, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
	case apperror.Forbidden:
		Error(c, http.StatusForbidden, "forbidden", "forbidden", nil)
	case apperror.Validation:
		Error(c, http.StatusBadRequest, "validation_error", apperror.MessageOf(err, "invalid input"), nil)
	case apperror.NotFound:
		Error(c, http.StatusNotFound, "not_found", apperror.MessageOf(err, "not found"), nil)
	default:
		Error(c, http.StatusInternalServerError, "internal_error", "operation failed", nil)
	}
}
