package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ValidateID rejects requests whose `id` path parameter is not a
// structurally valid identifier. It runs before authentication on every
// route that takes an id: validation precedes authorization precedes
// execution.
func ValidateID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := strconv.ParseUint(c.Param("id"), 10, 32); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "The `id` is not valid"})
			return
		}
		c.Next()
	}
}

// IDParam returns the `id` path parameter. Routes using it are guarded by
// ValidateID, so the parse cannot fail here.
func IDParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id)
}
