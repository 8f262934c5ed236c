package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0002, Down0002)
}

func Up0002(ctx context.Context, tx *sql.Tx) error {
	query := `
	ALTER TABLE books
	ADD COLUMN is_ai_enriched INTEGER DEFAULT 0;
`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func Down0002(ctx context.Context, tx *sql.Tx) error {
	query := `
	ALTER TABLE books
	DROP COLUMN is_ai_enriched;
`

	_, err := tx.ExecContext(ctx, query)
	return err
}
