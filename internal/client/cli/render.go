package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/ledger"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
	"gopkg.in/yaml.v3"
)

// Ledger output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	stateStyles = map[submission.State]lipgloss.Style{
		submission.StateIdle:    mutedStyle,
		submission.StatePending: lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		submission.StateSuccess: onlineStyle,
		submission.StateFailure: errorStyle.Bold(true),
		submission.StateQueued:  offlineStyle,
	}
)

// printer serializes writes coming from the REPL and from background
// notifications.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, a...)
}

func (p *printer) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, a...)
}

func (p *printer) Error(err error) {
	fields := models.FieldErrors(err)
	if len(fields) == 0 {
		p.Println(errorStyle.Render("error: " + err.Error()))
		return
	}
	p.Println(errorStyle.Render("invalid fields:"))
	for _, fe := range fields {
		p.Println("  " + fe.Field + ": " + fe.Message)
	}
}

func connectivityLabel(online bool) string {
	if online {
		return onlineStyle.Render("online")
	}
	return offlineStyle.Render("offline")
}

func stateLabel(s submission.State) string {
	style, ok := stateStyles[s]
	if !ok {
		return s.String()
	}
	return style.Render(s.String())
}

func outcomeMessage(out submission.Outcome) string {
	switch out {
	case submission.OutcomeCommitted:
		return "saved"
	case submission.OutcomeStale:
		return "saved, newer edits are still unsaved"
	case submission.OutcomeQueued:
		return "offline, queued for sync"
	case submission.OutcomeSkipped:
		return "nothing to save"
	case submission.OutcomeBusy:
		return "a save is already in progress"
	case submission.OutcomeInvalid:
		return "not saved, fix the errors below"
	case submission.OutcomeFailed:
		return "save failed, try again"
	}
	return string(out)
}

func formatItem[T any](kind string, it queue.Item[T]) string {
	line := fmt.Sprintf("%-9s %-36s queued %s", kind, it.Key, it.QueuedAt.Local().Format(time.DateTime))
	if it.Attempts > 0 {
		line += fmt.Sprintf("  attempts=%d last_error=%q", it.Attempts, it.LastError)
	}
	return line
}

func formatReport(kind string, r queue.FlushReport) string {
	s := fmt.Sprintf("%s: delivered %d, failed %d, remaining %d", kind, r.Delivered, r.Failed, r.Remaining)
	if r.Interrupted {
		s += " (interrupted)"
	}
	return s
}

func formatHarvest(h models.Harvest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "parcel=%s crop=%s quantity=%.2ft quality=%s", h.ParcelID, h.CropType, h.Quantity, h.Quality)
	if h.Latitude != nil && h.Longitude != nil {
		fmt.Fprintf(&b, " gps=%.5f,%.5f", *h.Latitude, *h.Longitude)
	}
	if h.Notes != "" {
		fmt.Fprintf(&b, " notes=%q", h.Notes)
	}
	return b.String()
}

type recordView struct {
	IdempotencyKey string    `json:"idempotency_key" yaml:"idempotency_key"`
	Kind           string    `json:"kind" yaml:"kind"`
	Key            string    `json:"key" yaml:"key"`
	Attempt        int       `json:"attempt" yaml:"attempt"`
	SavedAt        time.Time `json:"saved_at" yaml:"saved_at"`
	Payload        any       `json:"payload" yaml:"payload"`
}

func viewRecords(records []ledger.Record) ([]recordView, error) {
	out := make([]recordView, 0, len(records))
	for _, r := range records {
		var payload any
		if err := json.Unmarshal(r.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", r.Kind, r.Key, err)
		}
		out = append(out, recordView{
			IdempotencyKey: r.IdempotencyKey,
			Kind:           r.Kind,
			Key:            r.Key,
			Attempt:        r.Attempt,
			SavedAt:        r.SavedAt.UTC(),
			Payload:        payload,
		})
	}
	return out, nil
}

// writeRecords renders ledger records in one of the Format constants.
func writeRecords(w io.Writer, records []ledger.Record, format string) error {
	switch format {
	case "", FormatText:
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "no records")
			return err
		}
		for _, r := range records {
			if _, err := fmt.Fprintf(w, "%s  %-9s %-36s attempt=%d %s\n",
				r.SavedAt.Local().Format(time.DateTime), r.Kind, r.Key, r.Attempt, r.Payload); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		views, err := viewRecords(records)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case FormatYAML:
		views, err := viewRecords(records)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}
