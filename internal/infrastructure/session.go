package infrastructure

import "sync"

type sessionLock struct {
	mu      sync.Mutex
	waiters int
}

// SessionManager serializes work per chat session so that turns of one
// conversation are stored and answered in order.
type SessionManager struct {
	sessions map[string]*sessionLock
	mu       sync.Mutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*sessionLock),
	}
}

// Lock blocks until the session is free and returns the matching unlock.
func (sm *SessionManager) Lock(sessionID string) (unlock func()) {
	sm.mu.Lock()
	l, ok := sm.sessions[sessionID]
	if !ok {
		l = &sessionLock{}
		sm.sessions[sessionID] = l
	}
	l.waiters++
	sm.mu.Unlock()

	l.mu.Lock()
	return func() {
		sm.mu.Lock()
		l.waiters--
		if l.waiters == 0 {
			delete(sm.sessions, sessionID)
		}
		sm.mu.Unlock()
		l.mu.Unlock()
	}
}

// Active returns how many sessions currently hold or wait for a lock.
func (sm *SessionManager) Active() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}
