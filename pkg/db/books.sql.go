package db

import (
	"context"
	"database/sql"
)

const deleteBook = `-- name: DeleteBook :execrows
DELETE FROM books WHERE isbn = ?
`

func (q *Queries) DeleteBook(ctx context.Context, isbn string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBook, isbn)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteBookAuthors = `-- name: DeleteBookAuthors :exec
DELETE FROM authors WHERE isbn = ?
`

func (q *Queries) DeleteBookAuthors(ctx context.Context, isbn sql.NullString) error {
	_, err := q.db.ExecContext(ctx, deleteBookAuthors, isbn)
	return err
}

const deleteBookCategories = `-- name: DeleteBookCategories :exec
DELETE FROM categories WHERE isbn = ?
`

func (q *Queries) DeleteBookCategories(ctx context.Context, isbn sql.NullString) error {
	_, err := q.db.ExecContext(ctx, deleteBookCategories, isbn)
	return err
}

const getAllBooks = `-- name: GetAllBooks :many
SELECT isbn, title, description, publisher, published_date, pages, language, cover_url, extra
FROM books
ORDER BY added_at, isbn
`

type GetAllBooksRow struct {
	Isbn          string
	Title         sql.NullString
	Description   sql.NullString
	Publisher     sql.NullString
	PublishedDate sql.NullString
	Pages         sql.NullInt64
	Language      sql.NullString
	CoverUrl      sql.NullString
	Extra         []byte
}

func (q *Queries) GetAllBooks(ctx context.Context) ([]GetAllBooksRow, error) {
	rows, err := q.db.QueryContext(ctx, getAllBooks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetAllBooksRow
	for rows.Next() {
		var i GetAllBooksRow
		if err := rows.Scan(
			&i.Isbn,
			&i.Title,
			&i.Description,
			&i.Publisher,
			&i.PublishedDate,
			&i.Pages,
			&i.Language,
			&i.CoverUrl,
			&i.Extra,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAuthorsByISBN = `-- name: GetAuthorsByISBN :many
SELECT name FROM authors WHERE isbn = ? ORDER BY id
`

func (q *Queries) GetAuthorsByISBN(ctx context.Context, isbn sql.NullString) ([]sql.NullString, error) {
	return q.names(ctx, getAuthorsByISBN, isbn)
}

const getBook = `-- name: GetBook :one
SELECT isbn, title, description, publisher, published_date, pages, language, cover_url, extra
FROM books
WHERE isbn = ?
`

type GetBookRow struct {
	Isbn          string
	Title         sql.NullString
	Description   sql.NullString
	Publisher     sql.NullString
	PublishedDate sql.NullString
	Pages         sql.NullInt64
	Language      sql.NullString
	CoverUrl      sql.NullString
	Extra         []byte
}

func (q *Queries) GetBook(ctx context.Context, isbn string) (GetBookRow, error) {
	row := q.db.QueryRowContext(ctx, getBook, isbn)
	var i GetBookRow
	err := row.Scan(
		&i.Isbn,
		&i.Title,
		&i.Description,
		&i.Publisher,
		&i.PublishedDate,
		&i.Pages,
		&i.Language,
		&i.CoverUrl,
		&i.Extra,
	)
	return i, err
}

const getCategoriesByISBN = `-- name: GetCategoriesByISBN :many
SELECT name FROM categories WHERE isbn = ? ORDER BY id
`

func (q *Queries) GetCategoriesByISBN(ctx context.Context, isbn sql.NullString) ([]sql.NullString, error) {
	return q.names(ctx, getCategoriesByISBN, isbn)
}

const getUnenrichedBooks = `-- name: GetUnenrichedBooks :many
SELECT isbn FROM books WHERE is_ai_enriched = 0 OR is_ai_enriched IS NULL
`

func (q *Queries) GetUnenrichedBooks(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getUnenrichedBooks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var isbn string
		if err := rows.Scan(&isbn); err != nil {
			return nil, err
		}
		items = append(items, isbn)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertAuthor = `-- name: InsertAuthor :exec
INSERT OR IGNORE INTO authors (isbn, name) VALUES (?, ?)
`

type InsertAuthorParams struct {
	Isbn sql.NullString
	Name sql.NullString
}

func (q *Queries) InsertAuthor(ctx context.Context, arg InsertAuthorParams) error {
	_, err := q.db.ExecContext(ctx, insertAuthor, arg.Isbn, arg.Name)
	return err
}

const insertCategory = `-- name: InsertCategory :exec
INSERT OR IGNORE INTO categories (isbn, name) VALUES (?, ?)
`

type InsertCategoryParams struct {
	Isbn sql.NullString
	Name sql.NullString
}

func (q *Queries) InsertCategory(ctx context.Context, arg InsertCategoryParams) error {
	_, err := q.db.ExecContext(ctx, insertCategory, arg.Isbn, arg.Name)
	return err
}

const markBookAsEnriched = `-- name: MarkBookAsEnriched :exec
UPDATE books SET is_ai_enriched = 1 WHERE isbn = ?
`

func (q *Queries) MarkBookAsEnriched(ctx context.Context, isbn string) error {
	_, err := q.db.ExecContext(ctx, markBookAsEnriched, isbn)
	return err
}

const updateBookDescription = `-- name: UpdateBookDescription :exec
UPDATE books SET description = ?
WHERE isbn = ? AND (description IS NULL OR description = '')
`

type UpdateBookDescriptionParams struct {
	Description sql.NullString
	Isbn        string
}

func (q *Queries) UpdateBookDescription(ctx context.Context, arg UpdateBookDescriptionParams) error {
	_, err := q.db.ExecContext(ctx, updateBookDescription, arg.Description, arg.Isbn)
	return err
}

const updateBookPublishedDate = `-- name: UpdateBookPublishedDate :exec
UPDATE books SET published_date = ?
WHERE isbn = ? AND (published_date IS NULL OR published_date = '')
`

type UpdateBookPublishedDateParams struct {
	PublishedDate sql.NullString
	Isbn          string
}

func (q *Queries) UpdateBookPublishedDate(ctx context.Context, arg UpdateBookPublishedDateParams) error {
	_, err := q.db.ExecContext(ctx, updateBookPublishedDate, arg.PublishedDate, arg.Isbn)
	return err
}

const updateBookTitle = `-- name: UpdateBookTitle :exec
UPDATE books SET title = ?
WHERE isbn = ? AND (title IS NULL OR title = '')
`

type UpdateBookTitleParams struct {
	Title sql.NullString
	Isbn  string
}

func (q *Queries) UpdateBookTitle(ctx context.Context, arg UpdateBookTitleParams) error {
	_, err := q.db.ExecContext(ctx, updateBookTitle, arg.Title, arg.Isbn)
	return err
}

const upsertBook = `-- name: UpsertBook :exec
INSERT INTO books
(isbn, title, description, publisher, published_date, pages, language, cover_url, extra)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(isbn) DO UPDATE SET
	title = excluded.title,
	description = excluded.description,
	publisher = excluded.publisher,
	published_date = excluded.published_date,
	pages = excluded.pages,
	language = excluded.language,
	cover_url = excluded.cover_url,
	extra = excluded.extra
`

type UpsertBookParams struct {
	Isbn          string
	Title         sql.NullString
	Description   sql.NullString
	Publisher     sql.NullString
	PublishedDate sql.NullString
	Pages         sql.NullInt64
	Language      sql.NullString
	CoverUrl      sql.NullString
	Extra         []byte
}

func (q *Queries) UpsertBook(ctx context.Context, arg UpsertBookParams) error {
	_, err := q.db.ExecContext(ctx, upsertBook,
		arg.Isbn,
		arg.Title,
		arg.Description,
		arg.Publisher,
		arg.PublishedDate,
		arg.Pages,
		arg.Language,
		arg.CoverUrl,
		arg.Extra,
	)
	return err
}

func (q *Queries) names(ctx context.Context, query string, isbn sql.NullString) ([]sql.NullString, error) {
	rows, err := q.db.QueryContext(ctx, query, isbn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []sql.NullString
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
