package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/connectivity"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
	"github.com/stretchr/testify/require"
)

type env struct {
	repos *store.Repositories
	sw    *connectivity.Switch
}

func newEnv(t *testing.T, online bool) *env {
	t.Helper()
	repos, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "fieldsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return &env{repos: repos, sw: connectivity.NewSwitch(online)}
}

func openSyncer[T any](t *testing.T, e *env, kind string) *submission.Syncer[T] {
	t.Helper()
	q, err := queue.Open[T](context.Background(), outbox.NewSQLiteStore[T](e.repos.DB, kind))
	require.NoError(t, err)
	saver := NewSimulatedSaver[T](e.repos.Ledger, SaverConfig{})
	s := submission.NewSyncer(kind, q, submission.Saver[T](saver), connectivity.Signal(e.sw))
	t.Cleanup(s.Close)
	return s
}

func (e *env) harvests(t *testing.T) HarvestService {
	t.Helper()
	svc := NewHarvestService(openSyncer[models.Harvest](t, e, common.KindHarvest), e.repos.Ledger)
	t.Cleanup(svc.Close)
	return svc
}

func (e *env) settings(t *testing.T) SettingsService {
	t.Helper()
	svc, _ := e.settingsWithSyncer(t)
	return svc
}

func (e *env) settingsWithSyncer(t *testing.T) (SettingsService, *submission.Syncer[models.Settings]) {
	t.Helper()
	syncer := openSyncer[models.Settings](t, e, common.KindSettings)
	svc, err := NewSettingsService(context.Background(), syncer, e.repos.Ledger)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, syncer
}
