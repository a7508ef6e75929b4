package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Message string `json:"message" example:"An error message"`
}

func abortMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

func abortInternal(c *gin.Context) {
	abortMessage(c, http.StatusInternalServerError, "Internal Server Error")
}

// abortMissingFields renders the 400 body for absent required fields,
// e.g. "Missing title in request body" or "Missing username and password
// in request body".
func abortMissingFields(c *gin.Context, fields ...string) {
	abortMessage(c, http.StatusBadRequest, "Missing "+strings.Join(fields, " and ")+" in request body")
}

// abortValidation renders the 422 registration-style validation body,
// which names the offending field.
func abortValidation(c *gin.Context, message, location string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"code":     http.StatusUnprocessableEntity,
		"reason":   "ValidationError",
		"message":  message,
		"location": location,
	})
}
