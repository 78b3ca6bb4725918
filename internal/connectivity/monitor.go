package connectivity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/go-co-op/gocron/v2"
)

// Prober checks whether the remote side is reachable. A nil error means online.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

var ErrMonitorStarted = errors.New("monitor already started")

// Monitor is a Signal driven by periodic probes.
type Monitor struct {
	*Switch

	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// NewMonitor returns a stopped Monitor in the given initial state.
func NewMonitor(prober Prober, interval, timeout time.Duration, initial bool, log logging.Logger) *Monitor {
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &Monitor{
		Switch:   NewSwitch(initial),
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

// Check runs one probe and updates the state. It returns the new state.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.prober.Probe(ctx)
	online := err == nil
	if m.Set(online) {
		if online {
			m.log.Info(ctx, "connectivity restored")
		} else {
			m.log.Warn(ctx, "connectivity lost", "error", err)
		}
	} else if err != nil {
		m.log.Debug(ctx, "probe failed", "error", err)
	}
	return online
}

// Start schedules probes every interval, the first one immediately. Probes
// never overlap. ctx bounds every probe; Stop ends the schedule.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduler != nil {
		return ErrMonitorStarted
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(m.interval),
		gocron.NewTask(func() { m.Check(ctx) }),
		gocron.WithName("connectivity-probe"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to create probe job: %w", err)
	}

	s.Start()
	m.scheduler = s
	m.log.Info(ctx, "connectivity monitor started", "interval", m.interval)
	return nil
}

// Stop shuts the schedule down and waits for a running probe to finish.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduler == nil {
		return nil
	}
	err := m.scheduler.Shutdown()
	m.scheduler = nil
	return err
}
