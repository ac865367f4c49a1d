package middleware

import (
	"net/http" // HTTP status codes
	"time"     // Preflight cache

	"github.com/gin-contrib/cors" // CORS middleware for Gin
	"github.com/gin-gonic/gin"    // Gin web framework
)

// CORSMiddleware allows the configured frontends to call the API with credentials
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:              allowedOrigins,                                            // Frontend origins
		AllowMethods:              []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"}, // Allowed methods
		AllowHeaders:              []string{"Content-Type", "Authorization", TokenHeader},    // Allowed request headers
		ExposeHeaders:             []string{TokenHeader},                                     // Let browsers read the login token header
		AllowCredentials:          true,                                                      // Cookies and auth headers
		MaxAge:                    12 * time.Hour,                                            // Preflight cache duration
		OptionsResponseStatusCode: http.StatusNoContent,                                      // Preflight status
	})
}
