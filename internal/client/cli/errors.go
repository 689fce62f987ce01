package cli

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/common"
)

var (
	errNotSignedIn = errors.New("sign in first (login or register)")
	errUnknownPost = errors.New("unknown post")
)

// describe turns an error from the core into a message for the person at
// the terminal.
func (a *App) describe(err error) string {
	var verr *common.ValidationError
	switch {
	case errors.Is(err, errNotSignedIn), errors.Is(err, errUnknownPost):
		return err.Error()
	case errors.As(err, &verr):
		if len(verr.Fields) > 0 {
			return "Please provide: " + strings.Join(verr.Fields, ", ")
		}
		return verr.Reason
	case errors.Is(err, common.ErrInProgress):
		return "Another sign-in is still in progress"
	case errors.Is(err, common.ErrAccountExists):
		return "An account with this email already exists"
	case errors.Is(err, common.ErrRejected):
		return "The change was not accepted and has been undone"
	case errors.Is(err, common.ErrAuthentication):
		if msg := a.client.Session.Snapshot().LastError; msg != "" {
			return msg
		}
		return common.InvalidCredentialsMessage
	case errors.Is(err, common.ErrNotFound):
		return "That post no longer exists"
	case errors.Is(err, common.ErrTimeout):
		return "The request timed out, please try again"
	case errors.Is(err, ack.ErrUnavailable):
		return "The service is unavailable right now"
	}
	return err.Error()
}
