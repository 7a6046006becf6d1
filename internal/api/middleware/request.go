package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IPAttemptTracker counts recent failed PIN and login attempts per client IP
// so the vault endpoints can slow down guessing.
type IPAttemptTracker struct {
	attempts     map[string]*IPAttemptInfo
	mu           sync.RWMutex
	cleanupEvery time.Duration
	maxAttempts  int
	window       time.Duration
}

type IPAttemptInfo struct {
	Count       int
	LastAttempt time.Time
}

func NewIPAttemptTracker(maxAttempts int, window time.Duration) *IPAttemptTracker {
	tracker := &IPAttemptTracker{
		attempts:     make(map[string]*IPAttemptInfo),
		cleanupEvery: 5 * time.Minute,
		maxAttempts:  maxAttempts,
		window:       window,
	}

	go tracker.startCleanup()

	return tracker
}

func (t *IPAttemptTracker) startCleanup() {
	ticker := time.NewTicker(t.cleanupEvery)
	defer ticker.Stop()

	for range ticker.C {
		t.cleanOldEntries()
	}
}

func (t *IPAttemptTracker) cleanOldEntries() {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry := time.Now().Add(-t.window)
	for ip, info := range t.attempts {
		if info.LastAttempt.Before(expiry) {
			delete(t.attempts, ip)
		}
	}
}

// RecordFailure is called by handlers after a rejected PIN or login.
func (t *IPAttemptTracker) RecordFailure(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, exists := t.attempts[ip]
	if !exists {
		info = &IPAttemptInfo{}
		t.attempts[ip] = info
	}

	info.Count++
	info.LastAttempt = time.Now()
}

func (t *IPAttemptTracker) Blocked(ip string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, exists := t.attempts[ip]
	if !exists {
		return false
	}
	if time.Since(info.LastAttempt) > t.window {
		return false
	}
	return info.Count >= t.maxAttempts
}

type RequestMiddleware struct {
	logger         *zap.Logger
	attemptTracker *IPAttemptTracker
}

func NewRequestMiddleware(logger *zap.Logger, tracker *IPAttemptTracker) *RequestMiddleware {
	return &RequestMiddleware{
		logger:         logger,
		attemptTracker: tracker,
	}
}

// ProcessRequest tags each request with an id and logs start and completion.
func (rm *RequestMiddleware) ProcessRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		start := time.Now()
		rm.logger.Info("Request started",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()))
		c.Next()
		duration := time.Since(start)
		rm.logger.Info("Request completed",
			zap.String("request_id", requestID),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.Int("size", c.Writer.Size()))
	}
}

// ThrottlePinAttempts rejects clients that have recently failed too many PIN
// or login checks. Handlers report failures through the shared tracker.
func (rm *RequestMiddleware) ThrottlePinAttempts() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if rm.attemptTracker.Blocked(clientIP) {
			rm.logger.Warn("Throttling client after repeated failures",
				zap.String("client_ip", clientIP),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, slow down"})
			return
		}
		c.Next()
	}
}

func (rm *RequestMiddleware) RecoverPanic() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := c.GetString("request_id")
				rm.logger.Error("Panic recovered",
					zap.String("request_id", requestID),
					zap.Any("error", err),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
