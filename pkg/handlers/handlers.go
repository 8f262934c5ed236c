package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/ean"
	"github.com/labstack/echo/v4"

	"github.com/gouthamve/bookfetch/pkg/db"
	"github.com/gouthamve/bookfetch/pkg/lookup"
	"github.com/gouthamve/bookfetch/pkg/models"
	"github.com/gouthamve/bookfetch/pkg/penguin"
	"github.com/gouthamve/bookfetch/pkg/search"
)

// BookLookup finds metadata for books missing from the catalog.
type BookLookup interface {
	Lookup(ctx context.Context, isbn string) (models.DebugResponse, error)
}

// Suggester answers theme and title questions from the publisher catalog.
type Suggester interface {
	Suggest(ctx context.Context, theme string) (models.Suggestion, error)
	BookThemes(ctx context.Context, isbn string) (*penguin.Themes, error)
	TitleSearch(ctx context.Context, name string) (string, error)
}

type Catalog struct {
	db        *sql.DB
	queries   *db.Queries
	lookup    BookLookup
	index     *search.Index
	suggester Suggester
}

func NewCatalog(database *sql.DB, lookup BookLookup, index *search.Index, suggester Suggester) *Catalog {
	return &Catalog{
		db:        database,
		queries:   db.New(database),
		lookup:    lookup,
		index:     index,
		suggester: suggester,
	}
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// isbnParam reads and canonicalizes an ISBN to its 13 digit form.
func isbnParam(raw string) (string, string) {
	if models.NormalizeISBN(raw) == "" {
		return "", "ISBN is required"
	}
	isbn, err := models.ISBN13(raw)
	if err != nil {
		return "", "Invalid ISBN"
	}
	return isbn, ""
}

// GetBook answers POST /getbook. The catalog is consulted first; unknown
// books are looked up upstream and added to it.
func (ct *Catalog) GetBook(c echo.Context) error {
	var req models.GetBookRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	isbn, msg := isbnParam(req.ISBN)
	if msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}

	ctx := c.Request().Context()
	book, err := db.GetBook(ctx, ct.queries, isbn)
	if err == nil {
		return c.JSON(http.StatusOK, models.GetBookResponse{Book: &book})
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return jsonError(c, http.StatusInternalServerError, "query error: "+err.Error())
	}

	resp, err := ct.lookup.Lookup(ctx, isbn)
	if errors.Is(err, lookup.ErrNotFound) {
		return c.JSON(http.StatusOK, models.GetBookResponse{})
	}
	if err != nil {
		slog.Error("upstream lookup failed", "error", err, "isbn", isbn)
		return jsonError(c, http.StatusBadGateway, "upstream lookup failed")
	}

	book = resp.Book
	if err := ct.storeBook(ctx, book); err != nil {
		slog.Error("failed to store book", "error", err, "isbn", isbn)
	}

	return c.JSON(http.StatusOK, models.GetBookResponse{Book: &book})
}

func (ct *Catalog) storeBook(ctx context.Context, book models.Book) error {
	if err := db.StoreBook(ctx, ct.db, book); err != nil {
		return err
	}
	return ct.index.Add(book)
}

// LookupBookHandler shows what the upstreams say about an ISBN without
// touching the catalog.
func (ct *Catalog) LookupBookHandler(c echo.Context) error {
	isbn, msg := isbnParam(c.Param("isbn"))
	if msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}

	resp, err := ct.lookup.Lookup(c.Request().Context(), isbn)
	if err != nil && !errors.Is(err, lookup.ErrNotFound) {
		slog.Error("upstream lookup failed", "error", err, "isbn", isbn)
	}

	return c.JSONPretty(http.StatusOK, resp, "  ")
}

// GetBookByISBN handles fetching a book from the catalog by ISBN.
func (ct *Catalog) GetBookByISBN(c echo.Context) error {
	isbn, msg := isbnParam(c.Param("isbn"))
	if msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}

	book, err := db.GetBook(c.Request().Context(), ct.queries, isbn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jsonError(c, http.StatusNotFound, "Book not found")
		}
		return jsonError(c, http.StatusInternalServerError, "Query error: "+err.Error())
	}

	return c.JSON(http.StatusOK, book)
}

func (ct *Catalog) GetAllBooks(c echo.Context) error {
	books, err := db.ListBooks(c.Request().Context(), ct.queries)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, books)
}

// DeleteBookByISBN handles deletion of a book from the catalog by ISBN.
func (ct *Catalog) DeleteBookByISBN(c echo.Context) error {
	isbn, msg := isbnParam(c.Param("isbn"))
	if msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}

	rows, err := db.DeleteBook(c.Request().Context(), ct.db, isbn)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}
	if rows == 0 {
		return jsonError(c, http.StatusNotFound, "Book not found")
	}

	if err := ct.index.Remove(isbn); err != nil {
		slog.Error("failed to remove book from search index", "error", err, "isbn", isbn)
	}

	return c.NoContent(http.StatusNoContent)
}

// Barcode renders the EAN-13 barcode of an ISBN as a PNG.
func (ct *Catalog) Barcode(c echo.Context) error {
	isbn, msg := isbnParam(c.Param("isbn"))
	if msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}

	code, err := ean.Encode(isbn)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid ISBN")
	}
	scaled, err := barcode.Scale(code, 380, 120)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}

	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// Search answers GET /search?q=&limit=.
func (ct *Catalog) Search(c echo.Context) error {
	limit := 20
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return jsonError(c, http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	books, err := ct.index.Search(c.QueryParam("q"), limit)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, books)
}

// Suggestions answers GET /suggestions?theme=. A sample title is returned
// when the catalog service cannot help.
func (ct *Catalog) Suggestions(c echo.Context) error {
	theme := c.QueryParam("theme")
	if theme == "" {
		return jsonError(c, http.StatusBadRequest, "theme is required")
	}

	suggestion, err := ct.suggester.Suggest(c.Request().Context(), theme)
	if err != nil {
		slog.Warn("theme suggestion failed, using sample title", "error", err, "theme", theme)
		suggestion = penguin.SampleSuggestion
		suggestion.Theme = theme
	}

	return c.JSON(http.StatusOK, suggestion)
}

// Themes answers GET /books/:isbn/themes with the publisher's themes for
// the book.
func (ct *Catalog) Themes(c echo.Context) error {
	isbn, msg := isbnParam(c.Param("isbn"))
	if msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}

	themes, err := ct.suggester.BookThemes(c.Request().Context(), isbn)
	if err != nil {
		slog.Warn("theme lookup failed", "error", err, "isbn", isbn)
		return jsonError(c, http.StatusBadGateway, err.Error())
	}

	resp := models.ThemesResponse{
		ISBN:    isbn,
		Summary: penguin.FormatThemes(themes),
	}
	if themes != nil {
		resp.Themes = themes.Theme
	}
	return c.JSON(http.StatusOK, resp)
}

// Titles answers GET /titles?name= with the ISBN of the best matching title.
func (ct *Catalog) Titles(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return jsonError(c, http.StatusBadRequest, "name is required")
	}

	isbn, err := ct.suggester.TitleSearch(c.Request().Context(), name)
	if errors.Is(err, penguin.ErrNoTitles) {
		return jsonError(c, http.StatusNotFound, "no title matches "+strconv.Quote(name))
	}
	if err != nil {
		slog.Warn("title search failed", "error", err, "name", name)
		return jsonError(c, http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, models.TitleMatch{Name: name, ISBN: isbn})
}

// Reindex rebuilds the search index from the catalog.
func (ct *Catalog) Reindex(ctx context.Context) error {
	return ct.index.Rebuild(func() ([]models.Book, error) {
		return db.ListBooks(ctx, ct.queries)
	})
}
