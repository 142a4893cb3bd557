package compose

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	toggleElementAttr = "data-inboxsight-toggle"
	toggleStateAttr   = "data-inboxsight-state"

	// DefaultQualifyDelay gives the host time to finish rendering a
	// freshly inserted dialog before the body lookup runs.
	DefaultQualifyDelay = 300 * time.Millisecond
)

// MonitorConfig configures a Monitor
type MonitorConfig struct {
	Page         Page
	Locator      *Locator
	Registry     *Registry
	Scheduler    Scheduler
	Interceptor  *Interceptor
	Logger       *slog.Logger
	QualifyDelay time.Duration
}

// Monitor watches the host page for compose surfaces. Discovery is
// idempotent by node identity: a surface that fails qualification stays
// registered as Discovered and is re-evaluated on later mutations, but once
// it reaches ListenerBound no mutation processes it again.
//
// Scheduled qualification checks and tracking-call completions run on
// their own goroutines, so every touch of session state or the host tree
// goes through mu. The interceptor shares the same lock when wired in.
type Monitor struct {
	page         Page
	locator      *Locator
	registry     *Registry
	scheduler    Scheduler
	interceptor  *Interceptor
	log          *slog.Logger
	qualifyDelay time.Duration

	mu sync.Mutex
}

// NewMonitor creates a Monitor
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.Locator == nil {
		cfg.Locator = NewLocator(DefaultChains())
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = TimerScheduler{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QualifyDelay == 0 {
		cfg.QualifyDelay = DefaultQualifyDelay
	}
	m := &Monitor{
		page:         cfg.Page,
		locator:      cfg.Locator,
		registry:     cfg.Registry,
		scheduler:    cfg.Scheduler,
		interceptor:  cfg.Interceptor,
		log:          cfg.Logger,
		qualifyDelay: cfg.QualifyDelay,
	}
	if m.interceptor != nil {
		m.interceptor.mu = &m.mu
	}
	return m
}

// Registry exposes the session registry
func (m *Monitor) Registry() *Registry {
	return m.registry
}

// Run scans the page once, then consumes mutations until the page closes
// its mutation channel.
func (m *Monitor) Run() {
	m.Scan()
	for mutation := range m.page.Mutations() {
		m.Apply(mutation)
	}
}

// Scan discovers every compose surface currently in the tree
func (m *Monitor) Scan() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, surface := range m.locator.Surfaces(m.page.Root()) {
		m.discover(surface)
	}
}

// Apply processes one mutation batch: removed surfaces leave the registry,
// surfaces inside added subtrees are discovered, and surfaces still stuck in
// Discovered get another qualification attempt.
func (m *Monitor) Apply(mutation Mutation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, removed := range mutation.Removed {
		m.dropRemoved(removed)
	}
	for _, added := range mutation.Added {
		for _, surface := range m.locator.Surfaces(added) {
			m.discover(surface)
		}
	}
	for _, session := range m.registry.Sessions() {
		// Surfaces still inside their initial qualification delay are
		// left to the scheduled check.
		if session.State == StateDiscovered && session.checked {
			m.qualify(session)
		}
	}
}

// HandleSendClick dispatches a send-control click on a surface to the
// interceptor. Clicks on surfaces that never reached ListenerBound are
// ignored.
func (m *Monitor) HandleSendClick(surface *html.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.registry.Lookup(surface)
	if !ok || session.State != StateListenerBound {
		return
	}
	if m.interceptor != nil {
		m.interceptor.HandleSendClick(session)
	}
}

// SessionState reports the lifecycle state of a surface's session
func (m *Monitor) SessionState(surface *html.Node) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.registry.Lookup(surface)
	if !ok {
		return StateDiscovered, false
	}
	return session.State, true
}

// SetTrackingEnabled flips a session's tracking toggle
func (m *Monitor) SetTrackingEnabled(surface *html.Node, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.registry.Lookup(surface); ok {
		session.SetTrackingEnabled(enabled)
	}
}

func (m *Monitor) discover(surface *html.Node) {
	if _, ok := m.registry.Lookup(surface); ok {
		return
	}
	session := m.registry.Add(surface)
	m.log.Debug("compose surface discovered", slog.String("session_id", session.ID))
	// The callback fires on the scheduler's goroutine, never inline, so
	// taking the lock here cannot deadlock against the caller.
	m.scheduler.After(m.qualifyDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.qualify(session)
	})
}

func (m *Monitor) qualify(session *Session) {
	if session.State != StateDiscovered {
		return
	}
	session.checked = true
	elements := m.locator.Locate(session.Surface)
	if elements.Body == nil {
		// Dialog-shaped but not a compose surface yet; retried on the
		// next mutation.
		return
	}
	session.Elements = elements
	session.State = StateQualified
	m.attachToggle(session)
	session.State = StateListenerBound
	m.log.Info("compose surface qualified",
		slog.String("session_id", session.ID),
		slog.Bool("send_control", elements.SendControl != nil),
	)
}

// attachToggle injects the per-session tracking control. The primary anchor
// is the surface toolbar; the surface root is the fallback.
func (m *Monitor) attachToggle(session *Session) {
	anchor := session.Elements.Toolbar
	if anchor == nil {
		anchor = session.Surface
	}
	toggle := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: toggleElementAttr, Val: session.ID},
			{Key: toggleStateAttr, Val: "on"},
			{Key: "role", Val: "switch"},
			{Key: "aria-label", Val: "Track opens"},
		},
	}
	anchor.AppendChild(toggle)
	session.toggle = toggle
}

// dropRemoved erases sessions whose surface sat inside the removed subtree.
func (m *Monitor) dropRemoved(removed *html.Node) {
	for _, session := range m.registry.Sessions() {
		if containsNode(removed, session.Surface) {
			m.registry.Remove(session.Surface)
			m.log.Debug("compose surface removed", slog.String("session_id", session.ID))
		}
	}
}

func containsNode(root, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
