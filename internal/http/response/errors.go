package response

import (
	"github.com/gin-gonic/gin"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/apierr"
)

// RespondAPIError maps a service error to its HTTP status and code via
// apierr; anything untyped becomes a 500.
func RespondAPIError(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	RespondError(c, status, code, err)
}
