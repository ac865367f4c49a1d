package api

import (
	"errors"         // Error matching
	"io"             // Reading the uploaded file
	"mime/multipart" // Uploaded file headers
	"net/http"       // HTTP status codes

	"ebank_api/internal/cache"      // Profile cache
	"ebank_api/internal/middleware" // Authenticated identity
	"ebank_api/internal/storage"    // Avatar storage
	"ebank_api/internal/store"      // User store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// AvatarField is the multipart field carrying the avatar image
const AvatarField = "image"

// UserDetailsHandler returns the authenticated user's record without the password hash
func UserDetailsHandler(users store.UserStore, profiles *cache.ProfileCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID, ok := middleware.UserIDFromContext(ctx) // Get userID from request context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Try the cache first
		cached, found, err := profiles.Get(ctx, userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Warn("Profile cache read failed")
		}
		if found {
			c.JSON(http.StatusOK, cached)
			return
		}
		user, err := users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": msgUserNotFound})
				return
			}
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to fetch user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}
		if err := profiles.Fill(ctx, user); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Warn("Profile cache write failed")
		}
		c.JSON(http.StatusOK, user)
	}
}

// SetAvatarHandler stores an uploaded image and records its reference on the user
func SetAvatarHandler(users store.UserStore, avatars storage.AvatarStore, profiles *cache.ProfileCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID, ok := middleware.UserIDFromContext(ctx) // Get userID from request context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		fileHeader, err := c.FormFile(AvatarField) // Single uploaded file
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No image uploaded"})
			return
		}
		avatar, err := readAvatar(fileHeader)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to read uploaded avatar")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgInternal})
			return
		}
		// Resolve the user before writing anything to storage
		if _, err := users.FindByID(ctx, userID); err != nil {
			respondAvatarStoreError(c, userID, err)
			return
		}
		ref, err := avatars.Save(ctx, userID, avatar)
		if err != nil {
			if errors.Is(err, storage.ErrEmptyAvatar) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Uploaded image is empty"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to store avatar")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgInternal})
			return
		}
		updated, err := users.SetAvatar(ctx, userID, ref)
		if err != nil {
			respondAvatarStoreError(c, userID, err)
			return
		}
		// Overwrite the cached profile so an in-flight read cannot restore the old one
		if err := profiles.Set(ctx, updated); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Warn("Profile cache update failed")
			_ = profiles.Invalidate(ctx, userID)
		}
		logrus.WithFields(logrus.Fields{
			"user_id": userID, // User ID
			"avatar":  ref,    // Stored reference
		}).Info("Avatar updated")
		c.JSON(http.StatusOK, gin.H{"success": true, "user": updated})
	}
}

func respondAvatarStoreError(c *gin.Context, userID string, err error) {
	if errors.Is(err, store.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": msgUserNotFound})
		return
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,      // User ID
		"error":   err.Error(), // Error message
	}).Error("Error setting avatar")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgInternal})
}

// readAvatar loads the uploaded file into memory
func readAvatar(fh *multipart.FileHeader) (storage.Avatar, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Avatar{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return storage.Avatar{}, err
	}
	return storage.Avatar{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}
