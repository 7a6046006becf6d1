package handlers

import (
	"net/http"
	"time"

	"github.com/Hemanth1845/FullStackProject/internal/api/middleware"
	"github.com/Hemanth1845/FullStackProject/internal/crypto"
	"github.com/Hemanth1845/FullStackProject/internal/db/models"
	"github.com/Hemanth1845/FullStackProject/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	sessions *services.SessionStore
	tracker  *middleware.IPAttemptTracker
	db       *gorm.DB
	logger   *zap.Logger
}

func NewAuthHandler(sessions *services.SessionStore, tracker *middleware.IPAttemptTracker, db *gorm.DB, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		tracker:  tracker,
		db:       db,
		logger:   logger.With(zap.String("handler", "auth")),
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	var user models.User
	if res := ah.db.Where("username = ?", req.Username).First(&user); res.Error != nil {
		ah.logger.Warn("Invalid username", zap.String("username", req.Username))
		ah.tracker.RecordFailure(c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if !crypto.VerifyPassword(user.PasswordHash, req.Password) {
		ah.logger.Warn("Invalid password", zap.String("username", req.Username))
		ah.tracker.RecordFailure(c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if !user.ActiveStatus {
		ah.logger.Warn("Inactive account login", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account deactivated"})
		return
	}

	token := ah.sessions.Create(user.ID, c.ClientIP(), c.Request.UserAgent())
	ah.db.Model(&user).Update("last_login", time.Now())
	c.SetCookie("session_token", token, 3600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "login successful"})
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, password and email required"})
		return
	}

	var existing models.User
	if res := ah.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing); res.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
		return
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		ah.logger.Error("Failed to hash password",
			zap.String("username", req.Username),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	newUser := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ActiveStatus: true,
	}
	if res := ah.db.Create(&newUser); res.Error != nil {
		ah.logger.Error("Failed to create user",
			zap.String("username", req.Username),
			zap.Error(res.Error))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating user"})
		return
	}

	ah.logger.Info("User registered",
		zap.String("username", req.Username),
		zap.Uint("user_id", newUser.ID))
	c.JSON(http.StatusCreated, gin.H{"message": "registration successful"})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if sessionToken, err := c.Cookie("session_token"); err == nil {
		if userID, valid := ah.sessions.UserID(sessionToken); valid {
			ah.logger.Info("User logged out",
				zap.Uint("user_id", userID),
				zap.String("ip", c.ClientIP()))
		}
		ah.sessions.Destroy(sessionToken)
	}

	c.SetCookie("session_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
