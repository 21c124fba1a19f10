// internal/api/respond.go
package api

import (
	"github.com/gin-gonic/gin"

	"evocrm/internal/common/errors"
)

// respondError renders any error as the standard error envelope. Gateway
// errors carry their upstream HTTP status through.
func respondError(c *gin.Context, err error) {
	stdErr := errors.FromError(err)
	c.JSON(stdErr.UpstreamHTTPStatus(), errorResponse{
		Error: errorBody{
			Code:    string(stdErr.Code),
			Message: stdErr.Message,
			Details: stdErr.Details,
		},
	})
}

func respondValidation(c *gin.Context, details string) {
	respondError(c, errors.NewValidationFailedError(details))
}
