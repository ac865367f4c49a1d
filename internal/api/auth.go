package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"sync"     // Lazy dummy hash
	"time"     // Token lifetime

	"ebank_api/internal/domain"     // Importing domain models
	"ebank_api/internal/middleware" // Token header name
	"ebank_api/internal/store"      // User store
	"ebank_api/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Request struct for registration
type RegisterRequest struct {
	FirstName     string `json:"firstName" binding:"required"`     // First name must be provided
	LastName      string `json:"lastName" binding:"required"`      // Last name must be provided
	Email         string `json:"email" binding:"required"`         // Email must be provided
	Password      string `json:"password" binding:"required"`      // Password must be provided
	Bank          string `json:"bank" binding:"required"`          // Bank must be provided
	DateOfBirth   string `json:"dateOfBirth" binding:"required"`   // Date of birth must be provided
	AccountNumber string `json:"accountNumber" binding:"required"` // Account number must be provided
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for login
type LoginResponse struct {
	Message string `json:"message"` // Human readable status
	Token   string `json:"token"`   // JWT token
}

const (
	msgInvalidRequest     = "Invalid request"
	msgInvalidCredentials = "Invalid Credentials"
	msgInternal           = "Internal Server Error"
	msgEmailTaken         = "Email already exists"
	msgUserNotFound       = "User not found"
)

// RegisterHandler creates a user with a salted password hash
func RegisterHandler(users store.UserStore, bcryptCost int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
			return
		}
		// Check if the email is already registered
		_, err := users.FindByEmail(ctx, req.Email)
		switch {
		case err == nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": msgEmailTaken})
			return
		case !errors.Is(err, store.ErrUserNotFound):
			logrus.WithFields(logrus.Fields{
				"email": req.Email,   // Email being registered
				"error": err.Error(), // Error message
			}).Error("Email lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}
		// Hash the password before saving it
		hash, err := utils.HashPassword(req.Password, bcryptCost)
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}
		user := domain.NewUser(domain.Profile{
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Email:         req.Email,
			Bank:          req.Bank,
			DateOfBirth:   req.DateOfBirth,
			AccountNumber: req.AccountNumber,
		}, hash)
		// Attempt to create the user; the unique index catches concurrent duplicates
		if err := users.Insert(ctx, user); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				c.JSON(http.StatusBadRequest, gin.H{"error": msgEmailTaken})
				return
			}
			logrus.WithFields(logrus.Fields{
				"email": req.Email,   // Email being registered
				"error": err.Error(), // Error message
			}).Error("Failed to create user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}
		logrus.WithField("user_id", user.ID).Info("User registered")
		c.JSON(http.StatusOK, gin.H{"message": "User registered successfully!"})
	}
}

// LoginHandler authenticates a user and returns a JWT token in the header and body
func LoginHandler(users store.UserStore, jwtSecret string, tokenTTL time.Duration, bcryptCost int) gin.HandlerFunc {
	dummyHash := newDummyHash(bcryptCost) // Unknown emails still pay for a bcrypt comparison
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
			return
		}
		user, err := users.FindByEmail(c.Request.Context(), req.Email) // Fetch user from store
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				utils.CheckPassword(dummyHash(), req.Password)
				c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
				return
			}
			logrus.WithField("error", err.Error()).Error("Login lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}
		// Compare provided password with stored hash
		if !utils.CheckPassword(user.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, jwtSecret, tokenTTL)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to generate token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}
		c.Header(middleware.TokenHeader, token) // Echo the token in the response header
		c.JSON(http.StatusOK, LoginResponse{Message: "Login successful!", Token: token})
	}
}

// newDummyHash lazily hashes a throwaway password at the same cost as real hashes
func newDummyHash(bcryptCost int) func() string {
	return sync.OnceValue(func() string {
		h, _ := utils.HashPassword("not-a-real-password", bcryptCost)
		return h
	})
}
