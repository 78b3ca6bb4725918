package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/config"
	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/fieldsync/internal/client/services"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/connectivity"
	"github.com/dmitrijs2005/fieldsync/internal/filex"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/metrics"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Form names selectable in the REPL.
const (
	FormHarvest  = "harvest"
	FormSettings = "settings"
)

const shutdownTimeout = 5 * time.Second

var ErrProbeDriven = errors.New("connectivity is driven by the health probe")

// App owns every component of a client session.
type App struct {
	config *config.Config
	log    logging.Logger
	out    *printer
	in     io.Reader

	repos    *store.Repositories
	recorder *metrics.PrometheusRecorder

	signal  connectivity.Signal
	manual  *connectivity.Switch
	monitor *connectivity.Monitor
	prober  *connectivity.HealthProber

	harvestSyncer  *submission.Syncer[models.Harvest]
	settingsSyncer *submission.Syncer[models.Settings]
	harvests       services.HarvestService
	settings       services.SettingsService

	form        string
	unsubscribe []func()
}

// AppOption customizes an App.
type AppOption func(*App)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) AppOption {
	return func(a *App) {
		a.in = in
		a.out = newPrinter(out)
	}
}

// NewApp opens the local database, restores the offline queues and builds
// the services. Nothing runs in the background until Run is called.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...AppOption) (*App, error) {
	a := &App{
		config: cfg,
		log:    log,
		in:     os.Stdin,
		out:    newPrinter(os.Stdout),
		form:   FormHarvest,
	}
	for _, opt := range opts {
		opt(a)
	}

	if _, err := filex.EnsureParentDir(cfg.DBPath); err != nil {
		return nil, err
	}
	repos, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.repos = repos
	a.recorder = metrics.NewPrometheusRecorder(prometheus.NewRegistry())

	if err := a.initSignal(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initServices(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) initSignal() error {
	if a.config.ManualConnectivity() {
		a.manual = connectivity.NewSwitch(!a.config.StartOffline)
		a.signal = a.manual
	} else {
		prober, err := connectivity.NewHealthProber(a.config.ProbeAddr, a.config.ProbeService)
		if err != nil {
			return err
		}
		a.prober = prober
		a.monitor = connectivity.NewMonitor(prober, a.config.OnlineCheckInterval, a.config.ProbeTimeout, false, a.log)
		a.signal = a.monitor
	}

	a.recorder.SetOnline(a.signal.Online())
	a.unsubscribe = append(a.unsubscribe, a.signal.Subscribe(a.onConnectivity))
	return nil
}

func (a *App) initServices(ctx context.Context) error {
	hs, err := openSyncer[models.Harvest](ctx, a, common.KindHarvest)
	if err != nil {
		return err
	}
	a.harvestSyncer = hs

	ss, err := openSyncer[models.Settings](ctx, a, common.KindSettings)
	if err != nil {
		return err
	}
	a.settingsSyncer = ss

	a.harvests = services.NewHarvestService(hs, a.repos.Ledger, controllerOptions[models.Harvest](a, common.KindHarvest)...)
	a.settings, err = services.NewSettingsService(ctx, ss, a.repos.Ledger, controllerOptions[models.Settings](a, common.KindSettings)...)
	return err
}

func openSyncer[T any](ctx context.Context, a *App, kind string) (*submission.Syncer[T], error) {
	q, err := queue.Open[T](ctx, outbox.NewSQLiteStore[T](a.repos.DB, kind))
	if err != nil {
		return nil, fmt.Errorf("restore %s queue: %w", kind, err)
	}
	saver := services.NewSimulatedSaver[T](a.repos.Ledger, services.SaverConfig{
		Delay:       a.config.SaveDelay,
		FailureRate: a.config.SaveFailureRate,
		Logger:      a.log.With("component", "saver"),
	})
	return submission.NewSyncer(kind, q, submission.Saver[T](saver), a.signal,
		submission.WithSyncLogger[T](a.log.With("component", "syncer")),
		submission.WithSyncRecorder[T](a.recorder),
		submission.WithSendTimeout[T](a.config.SubmitTimeout),
		submission.OnFlush[T](services.RecordSyncs(a.repos.Metadata, kind, nil, a.log)),
		submission.OnFlush[T](func(r queue.FlushReport, err error) {
			if r.Attempted > 0 || err != nil {
				a.out.Println(mutedStyle.Render("sync " + formatReport(kind, r)))
			}
		}),
	), nil
}

func controllerOptions[T any](a *App, kind string) []submission.ControllerOption[T] {
	return []submission.ControllerOption[T]{
		submission.WithLogger[T](a.log.With("component", "controller")),
		submission.WithRecorder[T](a.recorder),
		submission.WithTimeout[T](a.config.SubmitTimeout),
		submission.OnStateChange[T](func(from, to submission.State) {
			if to == submission.StateSuccess && from == submission.StateQueued {
				a.out.Println(mutedStyle.Render(kind + " submission synced"))
			}
		}),
	}
}

func (a *App) onConnectivity(online bool) {
	a.recorder.SetOnline(online)
	if !online {
		a.out.Println("Switched to " + connectivityLabel(false) + " mode")
		return
	}
	a.out.Println("Switched to " + connectivityLabel(true) + " mode")
	if n := a.pending(); n > 0 {
		a.out.Printf("%d submission(s) pending sync\n", n)
	}
}

func (a *App) pending() int {
	return a.harvestSyncer.Pending() + a.settingsSyncer.Pending()
}

// Run starts the background components and the interactive session. It
// returns when the session ends or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.start(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.config.MetricsAddr != "" {
		if err := a.serveMetrics(ctx, g); err != nil {
			return err
		}
	}

	g.Go(func() error {
		defer cancel()
		return a.repl(ctx)
	})

	return g.Wait()
}

// start begins probing and lets the syncers react to connectivity.
func (a *App) start(ctx context.Context) error {
	if a.monitor != nil {
		if err := a.monitor.Start(ctx); err != nil {
			return err
		}
	}
	if err := a.harvestSyncer.Start(ctx); err != nil {
		return err
	}
	return a.settingsSyncer.Start(ctx)
}

func (a *App) serveMetrics(ctx context.Context, g *errgroup.Group) error {
	ln, err := net.Listen("tcp", a.config.MetricsAddr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.recorder.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	a.log.Info(ctx, "serving metrics", "addr", ln.Addr().String())

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return nil
}

// Close stops background work and releases the database.
func (a *App) Close() {
	for _, fn := range a.unsubscribe {
		fn()
	}
	if a.monitor != nil {
		if err := a.monitor.Stop(); err != nil {
			a.log.Warn(context.Background(), "stop connectivity monitor", "error", err)
		}
	}
	if a.harvests != nil {
		a.harvests.Close()
	}
	if a.settings != nil {
		a.settings.Close()
	}
	if a.harvestSyncer != nil {
		a.harvestSyncer.Close()
	}
	if a.settingsSyncer != nil {
		a.settingsSyncer.Close()
	}
	if a.prober != nil {
		_ = a.prober.Close()
	}
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			a.log.Warn(context.Background(), "close database", "error", err)
		}
	}
}
