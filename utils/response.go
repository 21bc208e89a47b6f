package utils

import "github.com/gin-gonic/gin"

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, body JSONResponse) {
	ctx.JSON(status, body)
}

// Success returns a standard success response.
func Success(ctx *gin.Context, status int, message string, data interface{}) {
	Respond(ctx, status, JSONResponse{Success: true, Message: message, Data: data})
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, message string) {
	Respond(ctx, status, JSONResponse{Success: false, Message: message})
}

// FieldErrors returns a failure carrying per-field validation messages.
func FieldErrors(ctx *gin.Context, status int, message string, fields map[string]string) {
	Respond(ctx, status, JSONResponse{Success: false, Message: message, Errors: fields})
}
