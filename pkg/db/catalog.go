package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gouthamve/bookfetch/pkg/models"
)

// GetBook loads a book with its authors and categories. It returns
// sql.ErrNoRows when the ISBN is not in the catalog.
func GetBook(ctx context.Context, q *Queries, isbn string) (models.Book, error) {
	row, err := q.GetBook(ctx, isbn)
	if err != nil {
		return models.Book{}, err
	}

	authors, categories, err := q.bookLists(ctx, isbn)
	if err != nil {
		return models.Book{}, err
	}

	return ConvertDBBookToModel(row, authors, categories), nil
}

// ListBooks returns the whole catalog in insertion order.
func ListBooks(ctx context.Context, q *Queries) ([]models.Book, error) {
	rows, err := q.GetAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	books := make([]models.Book, 0, len(rows))
	for _, row := range rows {
		authors, categories, err := q.bookLists(ctx, row.Isbn)
		if err != nil {
			return nil, err
		}
		books = append(books, ConvertDBBookRowToModel(row, authors, categories))
	}

	return books, nil
}

// StoreBook inserts or replaces a book and its lists in one transaction.
func StoreBook(ctx context.Context, database *sql.DB, book models.Book) error {
	params, err := ConvertModelToUpsertParams(book)
	if err != nil {
		return fmt.Errorf("encode extra fields: %w", err)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	q := New(database).WithTx(tx)
	if err := q.UpsertBook(ctx, params); err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}

	isbn := StringToNullString(book.ISBN)
	if err := q.DeleteBookAuthors(ctx, isbn); err != nil {
		return err
	}
	if err := q.DeleteBookCategories(ctx, isbn); err != nil {
		return err
	}
	for _, author := range book.Authors {
		if err := q.InsertAuthor(ctx, InsertAuthorParams{Isbn: isbn, Name: StringToNullString(author)}); err != nil {
			return fmt.Errorf("insert author: %w", err)
		}
	}
	for _, category := range book.Categories {
		if err := q.InsertCategory(ctx, InsertCategoryParams{Isbn: isbn, Name: StringToNullString(category)}); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteBook removes a book and its lists, returning the number of books
// removed.
func DeleteBook(ctx context.Context, database *sql.DB, isbn string) (int64, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	q := New(database).WithTx(tx)
	if err := q.DeleteBookAuthors(ctx, StringToNullString(isbn)); err != nil {
		return 0, err
	}
	if err := q.DeleteBookCategories(ctx, StringToNullString(isbn)); err != nil {
		return 0, err
	}
	n, err := q.DeleteBook(ctx, isbn)
	if err != nil {
		return 0, err
	}

	return n, tx.Commit()
}

func (q *Queries) bookLists(ctx context.Context, isbn string) ([]string, []string, error) {
	authors, err := q.GetAuthorsByISBN(ctx, StringToNullString(isbn))
	if err != nil {
		return nil, nil, fmt.Errorf("get authors error: %w", err)
	}

	categories, err := q.GetCategoriesByISBN(ctx, StringToNullString(isbn))
	if err != nil {
		return nil, nil, fmt.Errorf("get categories error: %w", err)
	}

	return ConvertNullStringSliceToStringSlice(authors), ConvertNullStringSliceToStringSlice(categories), nil
}
