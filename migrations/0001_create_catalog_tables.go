package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0001, Down0001)
}

func Up0001(ctx context.Context, tx *sql.Tx) error {
	query := `
CREATE TABLE books (
	isbn TEXT PRIMARY KEY,
	title TEXT,
	description TEXT,
	publisher TEXT,
	published_date TEXT,
	pages INTEGER,
	language TEXT,
	cover_url TEXT,
	extra BLOB,
	added_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE authors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT,
	isbn TEXT,
	UNIQUE(name, isbn),
	FOREIGN KEY(isbn) REFERENCES books(isbn) ON DELETE CASCADE
);

CREATE TABLE categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT,
	isbn TEXT,
	UNIQUE(name, isbn),
	FOREIGN KEY(isbn) REFERENCES books(isbn) ON DELETE CASCADE
);
`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func Down0001(ctx context.Context, tx *sql.Tx) error {
	query := `
DROP TABLE IF EXISTS categories;
DROP TABLE IF EXISTS authors;
DROP TABLE IF EXISTS books;
`

	_, err := tx.ExecContext(ctx, query)
	return err
}
