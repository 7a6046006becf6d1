package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionData struct {
	UserID    uint
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
}

// SessionStore keeps authenticated sessions in memory. It exists so the vault
// handlers can assume a resolved caller identity; everything else in this
// package only ever sees the user id it yields.
type SessionStore struct {
	sessions map[string]SessionData
	mutex    sync.RWMutex
	ttl      time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewSessionStore(ttl time.Duration, logger *zap.Logger) *SessionStore {
	ss := &SessionStore{
		sessions: make(map[string]SessionData),
		ttl:      ttl,
		logger:   logger.With(zap.String("service", "session_store")),
		stopChan: make(chan struct{}),
	}

	go ss.startBackgroundCleanup()

	return ss
}

func (ss *SessionStore) startBackgroundCleanup() {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ss.stopChan:
			return
		case <-ticker.C:
			ss.cleanupExpired()
		}
	}
}

func (ss *SessionStore) cleanupExpired() {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	now := time.Now()
	for token, session := range ss.sessions {
		if now.After(session.ExpiresAt) {
			delete(ss.sessions, token)
		}
	}
}

func (ss *SessionStore) Create(userID uint, ipAddress, userAgent string) string {
	token := uuid.New().String()
	ss.mutex.Lock()
	ss.sessions[token] = SessionData{
		UserID:    userID,
		ExpiresAt: time.Now().Add(ss.ttl),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	ss.mutex.Unlock()

	ss.logger.Info("Created new session",
		zap.Uint("user_id", userID),
		zap.String("token", token[:8]+"..."),
		zap.String("ip_address", ipAddress),
	)
	return token
}

// UserID resolves a session token to the authenticated user.
func (ss *SessionStore) UserID(token string) (uint, bool) {
	ss.mutex.RLock()
	sd, exists := ss.sessions[token]
	ss.mutex.RUnlock()
	if !exists || time.Now().After(sd.ExpiresAt) {
		return 0, false
	}
	return sd.UserID, true
}

func (ss *SessionStore) Destroy(token string) {
	ss.mutex.Lock()
	delete(ss.sessions, token)
	ss.mutex.Unlock()
}

func (ss *SessionStore) Close() {
	close(ss.stopChan)
}
