package api

import (
	"log"
	"net/http"

	"bhss/internal/errors"

	"github.com/gin-gonic/gin"
)

// statusFor maps an error code to its HTTP status
func statusFor(code string) int {
	switch code {
	case errors.CodeValidationError, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeImportFailed:
		return http.StatusUnprocessableEntity
	case errors.CodeUnauthorized:
		return http.StatusUnauthorized
	case errors.CodeForbidden:
		return http.StatusForbidden
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"}. Server-side failures are
// logged in full and reported without internals.
func respondError(c *gin.Context, handler string, err error) {
	code := errors.GetCode(err)
	if code == "UNKNOWN" {
		code = errors.CodeInternalError
	}
	status := statusFor(code)

	message := errors.Message(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] ERROR: %v", handler, err)
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// bindJSON decodes the request body into v, responding 400 on failure
func bindJSON(c *gin.Context, handler string, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, handler, errors.InvalidInput("invalid request body: "+err.Error()))
		return false
	}
	return true
}
