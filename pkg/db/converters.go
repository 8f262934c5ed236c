package db

import (
	"database/sql"
	"encoding/json"

	"github.com/gouthamve/bookfetch/pkg/models"
)

// NullStringToString converts sql.NullString to string
func NullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// StringToNullString converts string to sql.NullString
func StringToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// NullInt64ToInt converts sql.NullInt64 to int
func NullInt64ToInt(ni sql.NullInt64) int {
	if ni.Valid {
		return int(ni.Int64)
	}
	return 0
}

// IntToNullInt64 converts int to sql.NullInt64
func IntToNullInt64(i int) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(i), Valid: true}
}

// ConvertDBBookToModel converts a GetBook row to models.Book
func ConvertDBBookToModel(dbBook GetBookRow, authors []string, categories []string) models.Book {
	return models.Book{
		ISBN:          dbBook.Isbn,
		Title:         NullStringToString(dbBook.Title),
		Description:   NullStringToString(dbBook.Description),
		Publisher:     NullStringToString(dbBook.Publisher),
		PublishedDate: NullStringToString(dbBook.PublishedDate),
		Pages:         NullInt64ToInt(dbBook.Pages),
		Language:      NullStringToString(dbBook.Language),
		CoverURL:      NullStringToString(dbBook.CoverUrl),
		Authors:       authors,
		Categories:    categories,
		Extra:         decodeExtra(dbBook.Extra),
	}
}

// ConvertDBBookRowToModel converts GetAllBooksRow to models.Book
func ConvertDBBookRowToModel(dbBook GetAllBooksRow, authors []string, categories []string) models.Book {
	return ConvertDBBookToModel(GetBookRow(dbBook), authors, categories)
}

// ConvertModelToUpsertParams converts models.Book to the UpsertBook arguments.
func ConvertModelToUpsertParams(book models.Book) (UpsertBookParams, error) {
	var extra []byte
	if len(book.Extra) > 0 {
		var err error
		extra, err = json.Marshal(book.Extra)
		if err != nil {
			return UpsertBookParams{}, err
		}
	}

	return UpsertBookParams{
		Isbn:          book.ISBN,
		Title:         StringToNullString(book.Title),
		Description:   StringToNullString(book.Description),
		Publisher:     StringToNullString(book.Publisher),
		PublishedDate: StringToNullString(book.PublishedDate),
		Pages:         IntToNullInt64(book.Pages),
		Language:      StringToNullString(book.Language),
		CoverUrl:      StringToNullString(book.CoverURL),
		Extra:         extra,
	}, nil
}

// ConvertNullStringSliceToStringSlice converts []sql.NullString to []string
func ConvertNullStringSliceToStringSlice(nullStrings []sql.NullString) []string {
	result := make([]string, 0, len(nullStrings))
	for _, ns := range nullStrings {
		if ns.Valid {
			result = append(result, ns.String)
		}
	}
	return result
}

// Rows written before the column existed, or books without unknown fields,
// have no extra payload.
func decodeExtra(raw []byte) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(raw, &extra); err != nil || len(extra) == 0 {
		return nil
	}
	return extra
}
