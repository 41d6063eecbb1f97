package main

import (
	"log"
	"sync"
	"time"
)

const maxSessions = 100

// SessionIdleTimeout is how long a session may go without client requests
// before it is torn down. Empty sessions are removed immediately.
var SessionIdleTimeout = 15 * time.Minute

// Session represents a game session that players can join
type Session struct {
	ID         string
	Name       string
	Game       *Game
	lastActive time.Time
}

// SessionConfig is shared by every game the manager creates
type SessionConfig struct {
	Tuning    Tuning
	DB        *DB
	Analytics *Analytics
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      SessionConfig
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(cfg SessionConfig) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// CreateSession creates a new game session. Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := GenerateUUID()
	game := NewGame(GameOptions{
		SessionID: id,
		Tuning:    sm.cfg.Tuning,
		DB:        sm.cfg.DB,
		Analytics: sm.cfg.Analytics,
	})
	sess := &Session{
		ID:         id,
		Name:       name,
		Game:       game,
		lastActive: time.Now(),
	}
	sm.sessions[id] = sess
	go game.Run()

	sm.cfg.Analytics.Track(EvtSessionStart, 0, id, "")
	log.Printf("session %s (%q) created", id, name)
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive records client activity on a session
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.lastActive = time.Now()
	}
}

// RemovePlayer removes a player from a session
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Game.RemovePlayer(playerID)

	// Clean up empty sessions
	if sess.Game.PlayerCount() == 0 {
		sm.remove(sessionID, "empty")
	}
}

// CleanupIdle removes sessions idle for longer than SessionIdleTimeout
// and returns how many were removed.
func (sm *SessionManager) CleanupIdle(now time.Time) int {
	sm.mu.RLock()
	var stale []string
	for id, sess := range sm.sessions {
		if now.Sub(sess.lastActive) > SessionIdleTimeout {
			stale = append(stale, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range stale {
		sm.remove(id, "idle")
	}
	return len(stale)
}

// RunJanitor sweeps idle sessions and refreshes the live gauges until stop
// is closed.
func (sm *SessionManager) RunJanitor(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			sm.CleanupIdle(now)
			sessions, players := sm.Counts()
			sm.cfg.Analytics.SetLive(sessions, players)
		}
	}
}

func (sm *SessionManager) remove(id, reason string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Game.Stop()
	sm.cfg.Analytics.Track(EvtSessionEnd, 0, id, reason)
	log.Printf("session %s removed (%s)", id, reason)
}

// Counts returns (sessions, players) across all sessions
func (sm *SessionManager) Counts() (int, int) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	players := 0
	for _, sess := range sm.sessions {
		players += sess.Game.PlayerCount()
	}
	return len(sm.sessions), players
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Level:   sess.Game.Level(),
		})
	}
	return list
}
