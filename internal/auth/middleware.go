package auth

import (
	"net/http"
	"strings"

	"myshelf/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Middleware creates a gin middleware that requires a valid bearer token.
// On success the embedded user snapshot is attached to the request as the
// authenticated principal; any failure (missing header, malformed header,
// bad signature, expired token) is rejected uniformly.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, secret)
		if !ok {
			Unauthorized(c)
			return
		}
		c.Set(principalKey, claims.User)
		c.Next()
	}
}

// AdminMiddleware creates a gin middleware that requires the principal to
// be an admin. It must be used AFTER Middleware. The admin flag comes
// from the token claims; like everything else in them it is trusted as of
// issuance time.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentUser(c)
		if !ok || !principal.Admin {
			Unauthorized(c)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated principal attached by Middleware.
func CurrentUser(c *gin.Context) (jwt.UserClaims, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return jwt.UserClaims{}, false
	}
	principal, ok := v.(jwt.UserClaims)
	return principal, ok
}

// Unauthorized aborts the request with the uniform 401 body. Credential
// and policy failures are indistinguishable on the wire.
func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
}

func bearerClaims(c *gin.Context, secret string) (*jwt.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := jwt.ParseToken(secret, parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}
