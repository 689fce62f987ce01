package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/cribfeed/internal/client/client"
	"github.com/dmitrijs2005/cribfeed/internal/client/notify"
	"github.com/dmitrijs2005/cribfeed/internal/models"
)

// Uploader stores media bytes and returns the opaque media reference.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type App struct {
	client   *client.App
	uploader Uploader
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *client.App, in io.Reader, out io.Writer) *App {
	return &App{client: c, uploader: c.Presigner, reader: bufio.NewReader(in), out: out}
}

func (a *App) notify(kind notify.Kind, format string, args ...any) {
	a.client.Notifier.Notify(kind, fmt.Sprintf(format, args...))
}

func (a *App) getStatus() string {
	if u := a.client.Session.CurrentUser(); u != nil {
		return fmt.Sprintf("(%s)", u.DisplayName)
	}
	return ""
}

// requireUser returns the signed-in account or errNotSignedIn.
func (a *App) requireUser() (*models.Account, error) {
	u := a.client.Session.CurrentUser()
	if u == nil {
		return nil, errNotSignedIn
	}
	return u, nil
}

// Run greets the user and blocks in the REPL until EOF, exit or ctx is done.
func (a *App) Run(ctx context.Context) {
	printlnFn(a.out, "Welcome to cribfeed (type 'help' for commands)")
	if u := a.client.Session.CurrentUser(); u != nil {
		a.notify(notify.KindInfo, "Signed in as %s", u.DisplayName)
	}
	a.runREPL(ctx)
}

func (a *App) runREPL(ctx context.Context) {
	for ctx.Err() == nil {
		fmt.Fprintf(a.out, "cribfeed %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			printlnFn(a.out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			printlnFn(a.out, "Bye!")
			return
		}

		a.execute(ctx, parts)
	}
}

// execute runs one command line. Errors are reported through the notifier
// and never end the loop.
func (a *App) execute(ctx context.Context, args []string) {
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.SetIn(a.reader)

	if err := root.ExecuteContext(ctx); err != nil {
		a.notify(notify.KindError, "%s", a.describe(err))
	}
}
