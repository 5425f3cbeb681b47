package store

import (
	"context"
	"fmt"

	"github.com/jstittsworth/prop-projections/pkg/database"
)

// PgNotifier publishes Postgres NOTIFY messages. Other dialects have no
// channel to publish on, so Notify is a no-op there.
type PgNotifier struct {
	db *database.DB
}

func NewPgNotifier(db *database.DB) *PgNotifier {
	return &PgNotifier{db: db}
}

func (n *PgNotifier) Notify(ctx context.Context, channel, payload string) error {
	if n.db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := n.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", channel, payload).Error; err != nil {
		return fmt.Errorf("failed to notify %s: %w", channel, err)
	}
	return nil
}
