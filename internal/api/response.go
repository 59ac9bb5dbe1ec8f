package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes the standard success envelope. Extra keys are merged
// alongside success and message.
func Success(c *gin.Context, message string, extra gin.H) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Error writes the standard failure envelope.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// AbortError writes the failure envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
