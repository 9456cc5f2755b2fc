package utils

import (
	"github.com/gin-gonic/gin"
)

// RespondWithError writes the standard error envelope.
func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// RespondWithData writes the standard success envelope.
func RespondWithData(c *gin.Context, status int, message string, data any) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}
