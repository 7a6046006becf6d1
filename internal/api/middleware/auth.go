package middleware

import (
	"net/http"

	"github.com/Hemanth1845/FullStackProject/internal/db/models"
	"github.com/Hemanth1845/FullStackProject/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthMiddleware struct {
	sessions *services.SessionStore
	db       *gorm.DB
}

func NewAuthMiddleware(sessions *services.SessionStore, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		db:       db,
	}
}

// RequireAuth resolves the session cookie to a user id and puts it on the
// context. Every vault handler reads the caller identity from here and
// nowhere else.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken, err := c.Cookie("session_token")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		userID, valid := am.sessions.UserID(sessionToken)
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var user models.User
		if err := am.db.First(&user, userID).Error; err != nil || !user.ActiveStatus {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set("userID", userID)
		c.Set("username", user.Username)
		c.Next()
	}
}
