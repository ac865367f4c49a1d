package api

import (
	"net/http" // HTTP status codes

	"ebank_api/internal/cache"      // Profile cache
	"ebank_api/internal/config"     // Application configuration
	"ebank_api/internal/middleware" // Custom middleware
	"ebank_api/internal/storage"    // Avatar storage
	"ebank_api/internal/store"      // User store

	"github.com/gin-gonic/gin" // Gin web framework
)

// Dependencies are the collaborators shared by every handler
type Dependencies struct {
	Users    store.UserStore     // Credential store
	Avatars  storage.AvatarStore // Avatar file storage
	Profiles *cache.ProfileCache // Optional profile cache
}

// NewRouter wires middleware and routes onto a Gin engine
func NewRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	r := gin.Default()                         // Logger and Recovery middleware
	r.MaxMultipartMemory = cfg.MaxUploadMemory // Uploads are kept in memory up to this size
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return nil, err
	}
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", HealthHandler) // Liveness probe

	// Auth routes
	r.POST("/register", RegisterHandler(deps.Users, cfg.BcryptCost))                        // Registration endpoint
	r.POST("/login", LoginHandler(deps.Users, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)) // Login endpoint

	// Profile routes (protected by JWT)
	authed := r.Group("/")
	authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	authed.GET("/user-details", UserDetailsHandler(deps.Users, deps.Profiles))           // Profile endpoint
	authed.POST("/setAvatar", SetAvatarHandler(deps.Users, deps.Avatars, deps.Profiles)) // Avatar upload endpoint

	return r, nil
}

// HealthHandler reports that the process is serving requests
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
