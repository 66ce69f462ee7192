package middleware

import "github.com/gin-gonic/gin"

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// AbortWithError stops the chain and writes an ErrorResponse
func AbortWithError(c *gin.Context, status int, name, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:      name,
		Message:    message,
		StatusCode: status,
	})
}
