package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/ledger"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/draft"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
)

type SettingsService interface {
	Controller() *submission.Controller[models.Settings]
	Set(path, value string) error
	Save(ctx context.Context) (submission.Outcome, error)
	Reset()
	Diff() string
	Close()
}

type settingsService struct {
	ctrl *submission.Controller[models.Settings]
}

// NewSettingsService loads the last saved settings (or the defaults) as the
// baseline. A settings change still waiting in the offline queue is restored
// as an unsaved edit and becomes the baseline once a flush delivers it.
func NewSettingsService(ctx context.Context, syncer *submission.Syncer[models.Settings], repo ledger.Repository, opts ...submission.ControllerOption[models.Settings]) (SettingsService, error) {
	baseline, err := loadSettings(ctx, repo)
	if err != nil {
		return nil, err
	}

	d := draft.New(baseline)

	opts = append([]submission.ControllerOption[models.Settings]{
		submission.WithSyncer(syncer),
		submission.WithValidator(models.Settings.Validate),
	}, opts...)

	return &settingsService{
		ctrl: submission.NewController(common.KindSettings, common.SettingsKey, d, nil, opts...),
	}, nil
}

func loadSettings(ctx context.Context, repo ledger.Repository) (models.Settings, error) {
	rec, err := repo.Latest(ctx, common.KindSettings, common.SettingsKey)
	if errors.Is(err, common.ErrorNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	var s models.Settings
	if err := json.Unmarshal(rec.Payload, &s); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (s *settingsService) Controller() *submission.Controller[models.Settings] { return s.ctrl }

func (s *settingsService) Set(path, value string) error {
	next := s.ctrl.Draft().Value()
	if err := models.SetSettingsField(&next, path, value); err != nil {
		return err
	}
	s.ctrl.Set(next)
	return nil
}

func (s *settingsService) Save(ctx context.Context) (submission.Outcome, error) {
	return s.ctrl.Submit(ctx)
}

func (s *settingsService) Reset() { s.ctrl.Reset() }

func (s *settingsService) Diff() string { return s.ctrl.Draft().Diff() }

func (s *settingsService) Close() { s.ctrl.Close() }
