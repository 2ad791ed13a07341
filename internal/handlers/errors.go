package handlers

import (
	"github.com/gin-gonic/gin"

	"motomarket-chat/internal/apperrors"
)

// respondError writes err as {"error", "code"} with the status of its kind.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": apperrors.MessageOf(err), "code": string(apperrors.KindOf(err))})
}
