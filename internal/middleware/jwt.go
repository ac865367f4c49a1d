package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"ebank_api/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// TokenHeader carries the signed token on requests and on the login response
const TokenHeader = "auth-token"

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "userID"

// JWTAuthMiddleware validates tokens and attaches the user id to the request context
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c) // Extract the token string
		if tokenStr == "" {
			// If not present, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access denied. No token provided"})
			return
		}
		userID, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID)) // Request scoped identity
		c.Set(UserIDKey, userID)                                                   // Store userID in gin context
		c.Next()                                                                   // Proceed to the next handler
	}
}

// tokenFromRequest reads the auth-token header, falling back to an Authorization bearer
func tokenFromRequest(c *gin.Context) string {
	if tok := strings.TrimSpace(c.GetHeader(TokenHeader)); tok != "" {
		return tok
	}
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
