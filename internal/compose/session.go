package compose

import (
	"fmt"
	"sync"

	"golang.org/x/net/html"
)

// State tracks a compose surface through its lifecycle.
type State int

const (
	// StateDiscovered means a candidate surface was seen but its message
	// body has not been located yet.
	StateDiscovered State = iota
	// StateQualified means the message body resolved inside the surface.
	StateQualified
	// StateListenerBound means the toggle is attached and send clicks on
	// this surface are dispatched to the interceptor.
	StateListenerBound
	// StateSentTracked means a send went out with a beacon injected.
	StateSentTracked
	// StateSentUntracked means a send went out without tracking (toggle
	// off, no recipients, or tracking call failed).
	StateSentUntracked
	// StateAbandoned means the surface left the page without a send.
	StateAbandoned
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateQualified:
		return "qualified"
	case StateListenerBound:
		return "listener_bound"
	case StateSentTracked:
		return "sent_tracked"
	case StateSentUntracked:
		return "sent_untracked"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Session is one compose surface under management.
type Session struct {
	ID              string
	Surface         *html.Node
	Elements        Elements
	TrackingEnabled bool
	State           State

	toggle  *html.Node
	checked bool
}

// SetTrackingEnabled flips the per-session toggle and mirrors the state onto
// the injected control so the host page reflects it.
func (s *Session) SetTrackingEnabled(enabled bool) {
	s.TrackingEnabled = enabled
	if s.toggle == nil {
		return
	}
	val := "off"
	if enabled {
		val = "on"
	}
	for i, attr := range s.toggle.Attr {
		if attr.Key == toggleStateAttr {
			s.toggle.Attr[i].Val = val
			return
		}
	}
	s.toggle.Attr = append(s.toggle.Attr, html.Attribute{Key: toggleStateAttr, Val: val})
}

// Registry holds the sessions keyed by surface node identity. Entries are
// removed explicitly when the monitor sees the surface leave the tree;
// nothing here relies on the node becoming unreachable.
type Registry struct {
	mu      sync.Mutex
	byNode  map[*html.Node]*Session
	counter uint64
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{byNode: make(map[*html.Node]*Session)}
}

// Add registers a surface and assigns it a synthetic session id. If the
// surface is already registered the existing session is returned.
func (r *Registry) Add(surface *html.Node) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byNode[surface]; ok {
		return existing
	}
	r.counter++
	session := &Session{
		ID:              fmt.Sprintf("compose-%d", r.counter),
		Surface:         surface,
		TrackingEnabled: true,
		State:           StateDiscovered,
	}
	r.byNode[surface] = session
	return session
}

// Lookup returns the session for a surface node, if any
func (r *Registry) Lookup(surface *html.Node) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byNode[surface]
	return session, ok
}

// Remove drops the session for a surface and marks it abandoned unless a
// send already concluded it.
func (r *Registry) Remove(surface *html.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byNode[surface]
	if !ok {
		return
	}
	if session.State != StateSentTracked && session.State != StateSentUntracked {
		session.State = StateAbandoned
	}
	delete(r.byNode, surface)
}

// Sessions returns a snapshot of the registered sessions
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.byNode))
	for _, session := range r.byNode {
		sessions = append(sessions, session)
	}
	return sessions
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byNode)
}
