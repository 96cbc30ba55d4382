package ledgerauth

import (
	"context"

	"github.com/uptrace/bun"
)

// CreateSchema creates the users table when it does not exist yet.
// Production deployments run DDL out of band; this covers dev and the
// in-memory test database.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
