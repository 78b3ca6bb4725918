package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
)

// RecordSyncs returns a flush listener that stores the time of every flush
// that delivered at least one item of kind.
func RecordSyncs(repo metadata.Repository, kind string, now func() time.Time, log logging.Logger) submission.FlushListener {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.Discard()
	}
	return func(report queue.FlushReport, _ error) {
		if report.Delivered == 0 {
			return
		}
		ctx := context.Background()
		if err := repo.MarkSynced(ctx, kind, now()); err != nil {
			log.Warn(ctx, "failed to record sync time", "kind", kind, "error", err)
		}
	}
}
