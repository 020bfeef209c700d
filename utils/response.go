package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform envelope for API responses. Every JSON
// endpoint returns exactly these three keys; code is 0 for 2xx outcomes and
// the HTTP status otherwise.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Respond writes an enveloped JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard 200 success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// SuccessMsg returns a 200 success response with a handler-provided message.
func SuccessMsg(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusOK, 0, message, data)
}

// Created returns a 201 response for newly created resources.
func Created(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusCreated, 0, message, data)
}

// Error returns a standard error response. The message is mirrored under
// data.error so failures always carry structured detail.
func Error(ctx *gin.Context, status int, message string) {
	Respond(ctx, status, status, message, gin.H{"error": message})
}

// ErrorData returns an error response with caller-provided detail under data,
// used for field-level validation errors.
func ErrorData(ctx *gin.Context, status int, message string, data interface{}) {
	Respond(ctx, status, status, message, data)
}
