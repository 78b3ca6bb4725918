package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/ledger"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
)

const DefaultSaveDelay = 2 * time.Second

var ErrSimulatedFailure = errors.New("simulated save failure")

// SaverConfig tunes a SimulatedSaver.
type SaverConfig struct {
	// Delay is how long every save takes.
	Delay time.Duration
	// FailureRate in [0,1] is the probability that a save fails.
	FailureRate float64

	Logger logging.Logger
	Rand   func() float64
	Now    func() time.Time
}

// SimulatedSaver stands in for the remote API. It waits Delay, fails with
// probability FailureRate and records accepted submissions in the ledger.
// Submissions are deduplicated by idempotency key.
type SimulatedSaver[T any] struct {
	ledger ledger.Repository
	cfg    SaverConfig
}

var _ submission.Saver[struct{}] = (*SimulatedSaver[struct{}])(nil)

func NewSimulatedSaver[T any](repo ledger.Repository, cfg SaverConfig) *SimulatedSaver[T] {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SimulatedSaver[T]{ledger: repo, cfg: cfg}
}

func (s *SimulatedSaver[T]) Save(ctx context.Context, sub submission.Submission[T]) error {
	if s.cfg.Delay > 0 {
		timer := time.NewTimer(s.cfg.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if s.cfg.FailureRate > 0 && s.cfg.Rand() < s.cfg.FailureRate {
		return fmt.Errorf("%w: %w", ErrSimulatedFailure, common.ErrUnavailable)
	}

	payload, err := json.Marshal(sub.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", sub.Kind, err)
	}

	inserted, err := s.ledger.Append(ctx, ledger.Record{
		IdempotencyKey: sub.IdempotencyKey,
		Kind:           sub.Kind,
		Key:            sub.Key,
		Payload:        payload,
		Attempt:        sub.Attempt,
		SavedAt:        s.cfg.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		s.cfg.Logger.Info(ctx, "duplicate submission ignored",
			"kind", sub.Kind, "key", sub.Key, "idempotency_key", sub.IdempotencyKey)
		return nil
	}

	s.cfg.Logger.Debug(ctx, "submission recorded",
		"kind", sub.Kind, "key", sub.Key, "attempt", sub.Attempt)
	return nil
}
