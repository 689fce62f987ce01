package session

import "github.com/dmitrijs2005/cribfeed/internal/models"

// State is the lifecycle position of the Session.
type State int

const (
	StateNone State = iota
	StatePending
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Route is a navigation target requested from the Navigator.
type Route string

const (
	RouteHome    Route = "/dashboard"
	RouteLanding Route = "/"
)

// Navigator performs navigation on behalf of the Session Manager, which
// only ever requests it.
type Navigator interface {
	NavigateTo(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route Route)

func (f NavigatorFunc) NavigateTo(route Route) { f(route) }

// Snapshot is a point-in-time copy of the Session.
type Snapshot struct {
	State       State
	CurrentUser *models.Account
	LastError   string
	Token       string
}

// Pending reports whether an identity operation is in flight.
func (s Snapshot) Pending() bool { return s.State == StatePending }

// Authenticated reports whether an account is signed in.
func (s Snapshot) Authenticated() bool { return s.State == StateAuthenticated && s.CurrentUser != nil }
