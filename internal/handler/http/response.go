package http

import "github.com/gin-gonic/gin"

// ErrorResponse writes {"success": false, "error": message}.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// SuccessResponse writes data with "success": true added.
func SuccessResponse(c *gin.Context, code int, data gin.H) {
	body := gin.H{"success": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(code, body)
}
