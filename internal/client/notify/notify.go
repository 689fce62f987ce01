// Package notify delivers outcome messages and navigation requests to the
// person at the terminal.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/cribfeed/internal/session"
	"github.com/fatih/color"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notifier is fire-and-forget: callers never learn whether a message was
// shown.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Console prints notifications as colored, prefixed lines.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(kind Kind, message string) {
	var prefix string
	switch kind {
	case KindSuccess:
		prefix = color.GreenString("[OK] ")
	case KindError:
		prefix = color.RedString("[ERROR] ")
	default:
		prefix = color.CyanString("[INFO] ")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, prefix+message)
}

// RouteRecorder is the Navigator for terminal clients: there is no page to
// switch, so it remembers the current route and announces changes.
type RouteRecorder struct {
	mu       sync.Mutex
	current  session.Route
	notifier Notifier
}

func NewRouteRecorder(n Notifier) *RouteRecorder {
	return &RouteRecorder{current: session.RouteLanding, notifier: n}
}

func (r *RouteRecorder) NavigateTo(route session.Route) {
	r.mu.Lock()
	changed := r.current != route
	r.current = route
	r.mu.Unlock()

	if changed && r.notifier != nil {
		r.notifier.Notify(KindInfo, "now at "+string(route))
	}
}

// Current returns the last requested route.
func (r *RouteRecorder) Current() session.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
