package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
)

var errSetUsage = errors.New("usage: set <field> <value>")

// execIface is the command surface the REPL drives. App implements it;
// tests provide a recording stub.
type execIface interface {
	UseForm(ctx context.Context, name string) error
	Set(ctx context.Context, field, value string) error
	Diff(ctx context.Context) error
	Save(ctx context.Context) error
	Reset(ctx context.Context) error
	Status(ctx context.Context) error
	Queue(ctx context.Context) error
	Sync(ctx context.Context) error
	SetOnline(ctx context.Context, online bool) error
	Ledger(ctx context.Context) error
}

const helpText = `Available commands:
  harvest              edit the harvest entry form
  settings             edit the platform settings
  set <field> <value>  change a field of the current form (also field=value)
  diff                 show unsaved changes
  save                 save the current form, or queue it while offline
  reset                discard unsaved changes
  status               connectivity, form states and pending submissions
  queue                list submissions waiting for connectivity
  sync                 flush the offline queue now
  online | offline     switch connectivity by hand
  ledger               list saved records
  exit | quit          leave the program`

// runREPL reads commands from lines and dispatches them to a until lines is
// closed, ctx is done or the user types exit. promptFn is called before
// every line; a nil promptFn prints no prompt. Command errors are reported
// and do not end the session.
func runREPL(ctx context.Context, a execIface, promptFn func() string, lines <-chan string, out *printer) {
	for {
		if promptFn != nil {
			out.Printf("%s", promptFn())
		}

		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}

		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		rest = strings.TrimSpace(rest)
		if cmd == "" {
			continue
		}

		var err error
		switch strings.ToLower(cmd) {
		case "help", "?":
			out.Println(helpText)
		case "harvest", "settings":
			err = a.UseForm(ctx, strings.ToLower(cmd))
		case "set":
			var field, value string
			field, value, err = parseSet(rest)
			if err == nil {
				err = a.Set(ctx, field, value)
			}
		case "diff":
			err = a.Diff(ctx)
		case "save", "submit":
			err = a.Save(ctx)
		case "reset":
			err = a.Reset(ctx)
		case "status":
			err = a.Status(ctx)
		case "queue":
			err = a.Queue(ctx)
		case "sync":
			err = a.Sync(ctx)
		case "online":
			err = a.SetOnline(ctx, true)
		case "offline":
			err = a.SetOnline(ctx, false)
		case "ledger":
			err = a.Ledger(ctx)
		case "exit", "quit":
			out.Println("Bye!")
			return
		default:
			out.Println("Unknown command: " + cmd + " (type 'help')")
		}

		if err != nil {
			out.Error(err)
		}
	}
}

// parseSet accepts "field value..." and "field=value".
func parseSet(args string) (field, value string, err error) {
	if args == "" {
		return "", "", errSetUsage
	}
	field, value, found := strings.Cut(args, " ")
	if strings.Contains(field, "=") {
		return models.ParseAssignment(args)
	}
	if !found {
		return "", "", errSetUsage
	}
	return field, strings.TrimSpace(value), nil
}

func (a *App) repl(ctx context.Context) error {
	a.out.Println("fieldsync client (type 'help' for commands)")

	var promptFn func() string
	if interactive(a.in) {
		promptFn = a.prompt
	}
	runREPL(ctx, a, promptFn, readLines(ctx, a.in), a.out)
	return nil
}
