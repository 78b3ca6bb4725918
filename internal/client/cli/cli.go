package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/dmitrijs2005/fieldsync/internal/client/config"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
)

// CLI is the command line of the client.
type CLI struct {
	config.Config `embed:""`

	Repl   struct{} `cmd:"" default:"1" help:"Start an interactive session (default)."`
	Queue  struct{} `cmd:"" help:"List submissions waiting in the offline queue."`
	Flush  struct{} `cmd:"" help:"Run one flush pass of the offline queue."`
	Ledger struct {
		Kind   string `help:"Only list records of this kind (harvest, settings)." default:""`
		Format string `short:"f" help:"Output format." enum:"text,json,yaml" default:"text"`
	} `cmd:"" help:"List saved records."`
}

// Main parses args, builds the App and runs the selected command.
func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer, opts ...kong.Option) error {
	var cli CLI

	all := append([]kong.Option{
		kong.Name("fieldsync"),
		kong.Description("Offline-first field data client."),
		kong.Writers(out, errOut),
		kong.UsageOnError(),
	}, config.Options()...)
	parser, err := kong.New(&cli, append(all, opts...)...)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	if err := cli.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cli.LogLevel, cli.LogFormat, errOut)
	if err != nil {
		return err
	}

	app, err := NewApp(ctx, &cli.Config, log, WithIO(in, out))
	if err != nil {
		return err
	}
	defer app.Close()

	switch kctx.Command() {
	case "repl":
		return app.Run(ctx)
	case "queue":
		return app.Queue(ctx)
	case "flush":
		return app.flushOnce(ctx)
	case "ledger":
		return app.ledger(ctx, cli.Ledger.Kind, cli.Ledger.Format)
	}
	return fmt.Errorf("unknown command %q", kctx.Command())
}

// flushOnce runs a single flush pass outside the REPL. With a health probe
// configured, connectivity is checked once first.
func (a *App) flushOnce(ctx context.Context) error {
	if a.monitor != nil {
		a.monitor.Check(ctx)
	}
	if a.pending() == 0 {
		a.out.Println("nothing to sync")
		return nil
	}
	if !a.signal.Online() {
		return fmt.Errorf("offline, %d submission(s) left in the queue", a.pending())
	}
	return a.Sync(ctx)
}

func (a *App) ledger(ctx context.Context, kind, format string) error {
	records, err := a.repos.Ledger.List(ctx, kind)
	if err != nil {
		return err
	}
	a.out.mu.Lock()
	defer a.out.mu.Unlock()
	return writeRecords(a.out.w, records, format)
}
