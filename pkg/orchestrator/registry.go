package orchestrator

import "sync"

// Registry is the arena of live call sessions, keyed by call id. Sessions
// are added when a media stream starts and removed when the call ends; a
// lookup after removal returns nil.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*CallSession)}
}

// Add registers a session, replacing and ending any stale session under the
// same call id.
func (r *Registry) Add(s *CallSession) {
	r.mu.Lock()
	old := r.sessions[s.CallID()]
	r.sessions[s.CallID()] = s
	r.mu.Unlock()
	if old != nil && old != s {
		old.End(StatusFailed)
	}
}

func (r *Registry) Get(callID string) *CallSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[callID]
}

// Remove evicts the session for callID if it is the given one.
func (r *Registry) Remove(s *CallSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.CallID()] == s {
		delete(r.sessions, s.CallID())
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EndAll ends every live session, for server shutdown.
func (r *Registry) EndAll(status string) {
	r.mu.Lock()
	sessions := make([]*CallSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*CallSession)
	r.mu.Unlock()
	for _, s := range sessions {
		s.End(status)
	}
}
