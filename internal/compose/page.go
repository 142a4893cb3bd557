// Package compose implements the in-page agent: it watches a host page for
// compose surfaces, qualifies them, attaches a tracking toggle, and
// intercepts the send action to register a tracked message and inject the
// beacon image. The host page is abstracted behind the Page interface so the
// agent can be embedded in a WASM or CDP shim and driven directly in tests.
package compose

import (
	"time"

	"golang.org/x/net/html"
)

// Mutation describes one batch of subtree changes observed on the host page.
type Mutation struct {
	Added   []*html.Node
	Removed []*html.Node
}

// Page is the agent's view of the host document: the live element tree plus
// a stream of subtree mutations. The embedder owns the tree and closes the
// mutation channel on page unload.
type Page interface {
	Root() *html.Node
	Mutations() <-chan Mutation
}

// Scheduler defers work. The monitor uses it for the post-discovery
// qualification delay. fn must run after After returns, never inline:
// callbacks take the monitor lock, which the scheduling caller may hold.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler schedules with real timers.
type TimerScheduler struct{}

// After runs fn after d elapses.
func (TimerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
