package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	calls []string
	sets  [][2]string
	err   error
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeExec) UseForm(_ context.Context, name string) error { return f.record("form:" + name) }
func (f *fakeExec) Set(_ context.Context, field, value string) error {
	f.sets = append(f.sets, [2]string{field, value})
	return f.record("set")
}
func (f *fakeExec) Diff(context.Context) error   { return f.record("diff") }
func (f *fakeExec) Save(context.Context) error   { return f.record("save") }
func (f *fakeExec) Reset(context.Context) error  { return f.record("reset") }
func (f *fakeExec) Status(context.Context) error { return f.record("status") }
func (f *fakeExec) Queue(context.Context) error  { return f.record("queue") }
func (f *fakeExec) Sync(context.Context) error   { return f.record("sync") }
func (f *fakeExec) SetOnline(_ context.Context, online bool) error {
	if online {
		return f.record("online")
	}
	return f.record("offline")
}
func (f *fakeExec) Ledger(context.Context) error { return f.record("ledger") }

func feed(lines ...string) <-chan string {
	ch := make(chan string, len(lines))
	for _, l := range lines {
		ch <- l
	}
	close(ch)
	return ch
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	var out bytes.Buffer
	exec := &fakeExec{}

	runREPL(context.Background(), exec, nil, feed(
		"help",
		"harvest",
		"set parcel P-7",
		"set notes   dry soil, low yield  ",
		"set quantity=2,5",
		"",
		"diff",
		"save",
		"status",
		"queue",
		"offline",
		"online",
		"sync",
		"reset",
		"ledger",
		"SETTINGS",
		"frobnicate",
		"exit",
		"status",
	), newPrinter(&out))

	assert.Equal(t, []string{
		"form:harvest", "set", "set", "set", "diff", "save", "status", "queue",
		"offline", "online", "sync", "reset", "ledger", "form:settings",
	}, exec.calls)
	assert.Equal(t, [][2]string{
		{"parcel", "P-7"},
		{"notes", "dry soil, low yield"},
		{"quantity", "2,5"},
	}, exec.sets)
	assert.Contains(t, out.String(), "Available commands")
	assert.Contains(t, out.String(), "Unknown command: frobnicate")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	var out bytes.Buffer
	exec := &fakeExec{err: errors.New("disk full")}

	runREPL(context.Background(), exec, nil, feed("save", "set", "queue"), newPrinter(&out))

	assert.Equal(t, []string{"save", "queue"}, exec.calls)
	assert.Contains(t, out.String(), "error: disk full")
	assert.Contains(t, out.String(), errSetUsage.Error())
}

func TestRunREPL_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, &fakeExec{}, func() string { return "> " }, lines, newPrinter(&bytes.Buffer{}))
	}()
	<-done
}

func TestParseSet(t *testing.T) {
	tests := []struct {
		in    string
		field string
		value string
		err   error
	}{
		{in: "crop wheat", field: "crop", value: "wheat"},
		{in: "notes a = b", field: "notes", value: "a = b"},
		{in: "gps=", field: "gps", value: ""},
		{in: "quality= a+ ", field: "quality", value: "a+"},
		{in: "", err: errSetUsage},
		{in: "crop", err: errSetUsage},
		{in: "=x", err: models.ErrIncorrectAssignment},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			field, value, err := parseSet(tt.in)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.field, field)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestPrinter_FieldErrors(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out)

	p.Error(models.Harvest{Quality: "A"}.Validate())

	assert.Contains(t, out.String(), "invalid fields:")
	assert.Contains(t, out.String(), "parcel: select a parcel")
	assert.Contains(t, out.String(), "quantity: quantity must be at least 0.1 t")
}
