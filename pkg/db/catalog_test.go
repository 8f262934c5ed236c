package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/gouthamve/bookfetch/migrations"
	"github.com/gouthamve/bookfetch/pkg/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	database.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})

	ctx := t.Context()
	tx, err := database.Begin()
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	if err := migrations.Up0001(ctx, tx); err != nil {
		t.Fatalf("failed to run migration 0001: %v", err)
	}
	if err := migrations.Up0002(ctx, tx); err != nil {
		t.Fatalf("failed to run migration 0002: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return database
}

func TestStoreAndGetBook(t *testing.T) {
	database := setupTestDB(t)
	ctx := t.Context()

	book := models.Book{
		ISBN:          "9780131103627",
		Title:         "The C Programming Language",
		Authors:       []string{"Brian W. Kernighan", "Dennis M. Ritchie"},
		Publisher:     "Prentice Hall",
		PublishedDate: "1988",
		Categories:    []string{"Computers"},
		Pages:         272,
		Extra:         map[string]json.RawMessage{"edition": json.RawMessage(`"2nd"`)},
	}
	if err := StoreBook(ctx, database, book); err != nil {
		t.Fatalf("StoreBook() error = %v", err)
	}

	got, err := GetBook(ctx, New(database), book.ISBN)
	if err != nil {
		t.Fatalf("GetBook() error = %v", err)
	}
	if diff := cmp.Diff(book, got); diff != "" {
		t.Errorf("GetBook() mismatch (-want +got):\n%s", diff)
	}

	// Storing again replaces the lists instead of appending to them.
	book.Authors = []string{"Dennis M. Ritchie"}
	if err := StoreBook(ctx, database, book); err != nil {
		t.Fatalf("StoreBook() error = %v", err)
	}
	got, err = GetBook(ctx, New(database), book.ISBN)
	if err != nil {
		t.Fatalf("GetBook() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Dennis M. Ritchie"}, got.Authors); diff != "" {
		t.Errorf("authors mismatch (-want +got):\n%s", diff)
	}
}

func TestGetBookMissing(t *testing.T) {
	database := setupTestDB(t)

	_, err := GetBook(t.Context(), New(database), "9780000000000")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetBook() error = %v, want sql.ErrNoRows", err)
	}
}

func TestListAndDeleteBooks(t *testing.T) {
	database := setupTestDB(t)
	ctx := t.Context()

	for _, isbn := range []string{"9780131103627", "9780262033848"} {
		if err := StoreBook(ctx, database, models.Book{ISBN: isbn, Title: "Book " + isbn, Authors: []string{"Someone"}}); err != nil {
			t.Fatalf("StoreBook(%s) error = %v", isbn, err)
		}
	}

	books, err := ListBooks(ctx, New(database))
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("ListBooks() returned %d books, want 2", len(books))
	}

	n, err := DeleteBook(ctx, database, "9780131103627")
	if err != nil {
		t.Fatalf("DeleteBook() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteBook() removed %d rows, want 1", n)
	}

	var authors int
	if err := database.QueryRow("SELECT COUNT(*) FROM authors WHERE isbn = ?", "9780131103627").Scan(&authors); err != nil {
		t.Fatalf("count authors: %v", err)
	}
	if authors != 0 {
		t.Errorf("expected authors to be removed with the book, got %d", authors)
	}

	n, err = DeleteBook(ctx, database, "9780131103627")
	if err != nil {
		t.Fatalf("DeleteBook() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second DeleteBook() removed %d rows, want 0", n)
	}
}
