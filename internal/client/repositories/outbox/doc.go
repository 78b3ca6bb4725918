// Package outbox persists offline-queue items in the local SQLite database.
//
// Items of every record kind share the queued_items table; a SQLiteStore is
// bound to one kind and only sees its rows. Payloads are stored as JSON.
//
//	store := outbox.NewSQLiteStore[models.Harvest](db, common.KindHarvest)
//	q, err := queue.Open[models.Harvest](ctx, store)
package outbox
