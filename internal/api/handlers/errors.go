package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// statusFor maps a lifecycle error to its HTTP status.
func statusFor(err error) int {
	var (
		validationErr *services.ValidationError
		conflictErr   *services.ConflictError
		transitionErr *services.InvalidTransitionError
		preconErr     *services.PreconditionError
		concurrentErr *services.ConcurrentModificationError
		forbiddenErr  *services.ForbiddenError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &conflictErr),
		errors.As(err, &transitionErr),
		errors.As(err, &concurrentErr):
		return http.StatusConflict
	case errors.As(err, &preconErr):
		return http.StatusPreconditionFailed
	case errors.As(err, &forbiddenErr):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body with the matching status.
// Unexpected errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		utils.Logger.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		body["field"] = validationErr.Field
	}
	c.JSON(status, body)
}

// bindBody decodes the JSON body, answering 400 when it is malformed.
func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body"})
		return false
	}
	return true
}

// bindOptionalBody is bindBody for endpoints whose body may be empty.
func bindOptionalBody(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindBody(c, dst)
}
