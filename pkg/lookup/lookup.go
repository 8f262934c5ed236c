// Package lookup fetches book metadata from Google Books and Open Library
// and merges it into a single models.Book.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/gouthamve/bookfetch/pkg/models"
)

// Overridable in tests.
var (
	GoogleBooksAPIURL = "https://www.googleapis.com/books/v1/volumes"
	OpenLibraryAPIURL = "https://openlibrary.org/api/books"
)

var (
	ErrNotFound = errors.New("book not found")
	// ErrUnavailable means at least one upstream could not answer, so a
	// miss elsewhere does not prove the book is unknown.
	ErrUnavailable = errors.New("upstream lookup unavailable")
)

type Service struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// NewService returns a Service making at most rps upstream requests per
// second. rps <= 0 disables the limit.
func NewService(rps int) *Service {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Every(time.Second / time.Duration(rps))
	}

	return &Service{
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: "bookfetch (+https://github.com/gouthamve/bookfetch)",
	}
}

// Lookup queries both upstreams for isbn. It returns ErrNotFound only when
// both answered that they do not know the book, and ErrUnavailable when an
// upstream failed and the other had no book to offer.
func (s *Service) Lookup(ctx context.Context, isbn string) (models.DebugResponse, error) {
	gb := models.GoogleBook{}
	ol := models.OpenLibraryBook{}

	googleBookResp, googleErr := s.GoogleBooks(ctx, isbn)
	if googleErr == nil {
		gb = googleBookResp.Items[0]
	}

	openLibraryBookResp, openLibraryErr := s.OpenLibrary(ctx, isbn)
	if openLibraryErr == nil {
		ol = (*openLibraryBookResp)["ISBN:"+isbn]
	}

	resp := models.DebugResponse{
		GoogleBooksResponse: googleBookResp,
		OpenLibraryResponse: openLibraryBookResp,
	}

	if googleErr != nil && openLibraryErr != nil {
		if errors.Is(googleErr, ErrNotFound) && errors.Is(openLibraryErr, ErrNotFound) {
			return resp, ErrNotFound
		}
		return resp, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(googleErr, openLibraryErr))
	}

	resp.Book = createBookFromAPIData(gb, ol)
	resp.Book.ISBN = isbn
	if resp.Book.Title == "" {
		return resp, ErrNotFound
	}

	return resp, nil
}

func (s *Service) GoogleBooks(ctx context.Context, isbn string) (*models.GoogleBooksResponse, error) {
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)

	var response models.GoogleBooksResponse
	if err := s.get(ctx, GoogleBooksAPIURL+"?"+q.Encode(), &response); err != nil {
		return nil, fmt.Errorf("google books: %w", err)
	}

	if response.TotalItems == 0 || len(response.Items) == 0 {
		return nil, fmt.Errorf("google books: %w", ErrNotFound)
	}

	return &response, nil
}

func (s *Service) OpenLibrary(ctx context.Context, isbn string) (*models.OpenLibraryResponse, error) {
	q := url.Values{}
	q.Set("bibkeys", "ISBN:"+isbn)
	q.Set("format", "json")
	q.Set("jscmd", "data")

	var response models.OpenLibraryResponse
	if err := s.get(ctx, OpenLibraryAPIURL+"?"+q.Encode(), &response); err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}

	if _, ok := response["ISBN:"+isbn]; !ok {
		return nil, fmt.Errorf("open library: %w", ErrNotFound)
	}

	return &response, nil
}

func (s *Service) get(ctx context.Context, rawURL string, target any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// createBookFromAPIData prefers Google Books and fills gaps from Open
// Library. Open Library's large cover always wins.
func createBookFromAPIData(gb models.GoogleBook, ol models.OpenLibraryBook) models.Book {
	book := models.Book{}

	if gb.ID != "" {
		book.Title = gb.VolumeInfo.Title
		book.Description = gb.VolumeInfo.Description
		book.Authors = gb.VolumeInfo.Authors
		book.Categories = gb.VolumeInfo.Categories
		book.Publisher = gb.VolumeInfo.Publisher
		book.PublishedDate = gb.VolumeInfo.PublishedDate
		book.Pages = gb.VolumeInfo.PageCount
		book.Language = gb.VolumeInfo.Language
		book.CoverURL = gb.VolumeInfo.ImageLinks.Thumbnail
	}

	if ol.Key == "" {
		return book
	}

	if ol.Cover.Large != "" {
		book.CoverURL = ol.Cover.Large
	}
	if book.Pages == 0 {
		book.Pages = ol.NumberOfPages
	}
	if len(book.Categories) == 0 {
		for _, subject := range ol.Subjects {
			book.Categories = append(book.Categories, subject.Name)
		}
	}

	if book.Title != "" {
		return book
	}

	book.Title = ol.Title
	book.Authors = nil
	for _, author := range ol.Authors {
		book.Authors = append(book.Authors, author.Name)
	}
	if len(ol.Publishers) > 0 {
		book.Publisher = ol.Publishers[0].Name
	}
	book.PublishedDate = ol.PublishDate

	return book
}
