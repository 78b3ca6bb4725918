package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
)

var ErrUnknownForm = errors.New("unknown form")

// UseForm selects the form the editing commands act on.
func (a *App) UseForm(_ context.Context, name string) error {
	switch name {
	case FormHarvest, FormSettings:
		a.form = name
	default:
		return fmt.Errorf("%w: %s", ErrUnknownForm, name)
	}
	a.out.Println("Editing " + name + ". Fields: " + strings.Join(a.fields(), ", "))
	return nil
}

func (a *App) fields() []string {
	if a.form == FormSettings {
		return append(models.SettingsFields.Names(), "features.<name>", "channels.<name>")
	}
	return models.HarvestFields.Names()
}

// Set assigns value to a field of the current form.
func (a *App) Set(_ context.Context, field, value string) error {
	if a.form == FormSettings {
		return a.settings.Set(field, value)
	}
	return a.harvests.Set(field, value)
}

// Diff prints the unsaved changes of the current form.
func (a *App) Diff(_ context.Context) error {
	var diff string
	if a.form == FormSettings {
		diff = a.settings.Diff()
	} else {
		diff = a.harvests.Form().Draft().Diff()
	}
	if diff == "" {
		a.out.Println("no unsaved changes")
		return nil
	}
	a.out.Println(diff)
	return nil
}

// Save submits the current form. Offline, the submission is queued.
func (a *App) Save(ctx context.Context) error {
	if a.signal.Online() && a.canSubmit() {
		a.out.Println(mutedStyle.Render("saving..."))
	}

	var (
		out submission.Outcome
		err error
	)
	if a.form == FormSettings {
		out, err = a.settings.Save(ctx)
	} else {
		out, err = a.harvests.Submit(ctx)
	}

	a.out.Println(outcomeMessage(out))
	if err != nil {
		a.out.Error(err)
	}
	return nil
}

func (a *App) canSubmit() bool {
	if a.form == FormSettings {
		return a.settings.Controller().CanSubmit()
	}
	return a.harvests.Form().CanSubmit()
}

// Reset discards the unsaved changes of the current form.
func (a *App) Reset(_ context.Context) error {
	if a.form == FormSettings {
		a.settings.Reset()
	} else {
		a.harvests.Reset()
	}
	a.out.Println("changes discarded")
	return nil
}

// Status prints connectivity, the state of both forms and the queue depth.
func (a *App) Status(ctx context.Context) error {
	a.out.Println("connectivity: " + connectivityLabel(a.signal.Online()))

	form := a.harvests.Form()
	a.printFormStatus(FormHarvest, form.State(), form.Draft().IsDirty(), form.Err())
	ctrl := a.settings.Controller()
	a.printFormStatus(FormSettings, ctrl.State(), ctrl.Draft().IsDirty(), ctrl.Err())

	for _, kind := range []string{common.KindHarvest, common.KindSettings} {
		last, err := a.repos.Metadata.LastSync(ctx, kind)
		if err != nil {
			return err
		}
		when := "never"
		if !last.IsZero() {
			when = last.Local().Format(time.DateTime)
		}
		a.out.Printf("last %s sync: %s\n", kind, when)
	}
	a.out.Printf("pending: %d\n", a.pending())
	return nil
}

func (a *App) printFormStatus(name string, state submission.State, dirty bool, err error) {
	marker := " "
	if name == a.form {
		marker = "*"
	}
	line := fmt.Sprintf("%s %-9s %s", marker, name, stateLabel(state))
	if dirty {
		line += " (unsaved changes)"
	}
	if err != nil {
		line += " " + errorStyle.Render(err.Error())
	}
	a.out.Println(line)
}

// Queue lists the submissions waiting for connectivity.
func (a *App) Queue(_ context.Context) error {
	harvests := a.harvestSyncer.Queue().Items()
	settings := a.settingsSyncer.Queue().Items()
	if len(harvests)+len(settings) == 0 {
		a.out.Println("queue is empty")
		return nil
	}
	printItems(a, common.KindHarvest, harvests)
	printItems(a, common.KindSettings, settings)
	return nil
}

func printItems[T any](a *App, kind string, items []queue.Item[T]) {
	for _, it := range items {
		a.out.Println(formatItem(kind, it))
	}
}

// Sync flushes both queues now. While offline nothing is sent.
func (a *App) Sync(ctx context.Context) error {
	n := a.pending()
	if n == 0 {
		a.out.Println("nothing to sync")
		return nil
	}
	if !a.signal.Online() {
		a.out.Printf("offline, %d submission(s) wait for connectivity\n", n)
		return nil
	}

	busy, err := flushEach(ctx, a.harvestSyncer.FlushAll, a.settingsSyncer.FlushAll)
	if busy {
		a.out.Println("a sync is already running")
	}
	return err
}

type flushFunc func(context.Context) (queue.FlushReport, error)

// flushEach runs every flush. A queue that is already flushing is reported
// through busy and never hides an error of another queue.
func flushEach(ctx context.Context, flushes ...flushFunc) (busy bool, err error) {
	var errs []error
	for _, flush := range flushes {
		_, ferr := flush(ctx)
		switch {
		case errors.Is(ferr, queue.ErrFlushInProgress):
			busy = true
		case ferr != nil:
			errs = append(errs, ferr)
		}
	}
	return busy, errors.Join(errs...)
}

// SetOnline switches connectivity by hand. It fails when a health probe
// drives connectivity.
func (a *App) SetOnline(_ context.Context, online bool) error {
	if a.manual == nil {
		return ErrProbeDriven
	}
	if !a.manual.Set(online) {
		a.out.Println("already " + connectivityLabel(online))
	}
	return nil
}

// Ledger prints the saved records of the current form.
func (a *App) Ledger(ctx context.Context) error {
	if a.form == FormSettings {
		return a.ledger(ctx, common.KindSettings, FormatText)
	}
	harvests, err := a.harvests.History(ctx)
	if err != nil {
		return err
	}
	if len(harvests) == 0 {
		a.out.Println("no harvests saved")
		return nil
	}
	for i, h := range harvests {
		a.out.Printf("%3d  %s  %s\n", i+1, h.Date.Local().Format(time.DateTime), formatHarvest(h))
	}
	return nil
}

// prompt is shown before every REPL line.
func (a *App) prompt() string {
	s := a.form + " " + connectivityLabel(a.signal.Online())
	if n := a.pending(); n > 0 {
		s += fmt.Sprintf(" %d pending", n)
	}
	return fmt.Sprintf("fieldsync (%s)> ", s)
}
