package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/ledger"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/draft"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
	"github.com/google/uuid"
)

type HarvestService interface {
	// Form returns the controller of the form being filled in.
	Form() *submission.Controller[models.Harvest]
	Set(field, value string) error
	// Submit validates and saves the form, or queues it while offline. The
	// form starts over with a fresh record once the entry is saved or queued.
	Submit(ctx context.Context) (submission.Outcome, error)
	Reset()
	Pending() []queue.Item[models.Harvest]
	Sync(ctx context.Context) (queue.FlushReport, error)
	History(ctx context.Context) ([]models.Harvest, error)
	Close()
}

type harvestService struct {
	mu     sync.Mutex
	form   *submission.Controller[models.Harvest]
	syncer *submission.Syncer[models.Harvest]
	ledger ledger.Repository
	opts   []submission.ControllerOption[models.Harvest]
	newID  func() string
	now    func() time.Time
}

func NewHarvestService(syncer *submission.Syncer[models.Harvest], repo ledger.Repository, opts ...submission.ControllerOption[models.Harvest]) HarvestService {
	s := &harvestService{
		syncer: syncer,
		ledger: repo,
		opts:   opts,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	s.newForm()
	return s
}

func (s *harvestService) newForm() {
	if s.form != nil {
		s.form.Close()
	}
	id := s.newID()
	initial := models.NewHarvest()
	initial.ID = id

	opts := append([]submission.ControllerOption[models.Harvest]{
		submission.WithSyncer(s.syncer),
		submission.WithValidator(models.Harvest.Validate),
		submission.WithStamp(func(h *models.Harvest) { h.Date = s.now().UTC() }),
	}, s.opts...)
	s.form = submission.NewController(common.KindHarvest, id, draft.New(initial), nil, opts...)
}

func (s *harvestService) Form() *submission.Controller[models.Harvest] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *harvestService) Set(field, value string) error {
	form := s.Form()
	next := form.Draft().Value()
	if err := models.HarvestFields.Set(&next, field, value); err != nil {
		return err
	}
	form.Set(next)
	return nil
}

func (s *harvestService) Submit(ctx context.Context) (submission.Outcome, error) {
	form := s.Form()
	out, err := form.Submit(ctx)
	switch out {
	case submission.OutcomeCommitted, submission.OutcomeQueued:
		s.mu.Lock()
		if s.form == form {
			s.newForm()
		}
		s.mu.Unlock()
	}
	return out, err
}

func (s *harvestService) Reset() {
	s.Form().Reset()
}

func (s *harvestService) Pending() []queue.Item[models.Harvest] {
	return s.syncer.Queue().Items()
}

func (s *harvestService) Sync(ctx context.Context) (queue.FlushReport, error) {
	return s.syncer.FlushAll(ctx)
}

// History returns the harvests accepted so far, oldest first.
func (s *harvestService) History(ctx context.Context) ([]models.Harvest, error) {
	records, err := s.ledger.List(ctx, common.KindHarvest)
	if err != nil {
		return nil, err
	}
	out := make([]models.Harvest, 0, len(records))
	for _, r := range records {
		var h models.Harvest
		if err := json.Unmarshal(r.Payload, &h); err != nil {
			return nil, fmt.Errorf("decode harvest %s: %w", r.Key, err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *harvestService) Close() {
	s.Form().Close()
}
