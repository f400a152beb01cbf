package response

import "github.com/gin-gonic/gin"

// Error writes the uniform error payload. Success payloads are shaped per
// endpoint and written directly by the handlers.
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"message": message})
}
