package cron

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gouthamve/bookfetch/migrations"
)

const testISBN = "9783836526722"

// MockHTTPClient is a mock implementation of HTTPClient for testing
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.DoFunc(req)
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})

	ctx := t.Context()
	tx, err := db.Begin()
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

	return db
}

func insertTestBook(t *testing.T, db *sql.DB) {
	_, err := db.Exec(`INSERT INTO books (isbn, title, is_ai_enriched) VALUES (?, ?, ?)`,
		testISBN, "Test Book", 0)
	if err != nil {
		t.Fatalf("failed to insert test book: %v", err)
	}
}

func respondWith(status int, body []byte) *MockHTTPClient {
	return &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewReader(body)),
			}, nil
		},
	}
}

func TestPerplexityJob_Run_Success(t *testing.T) {
	db := setupTestDB(t)
	insertTestBook(t, db)

	mockResponse := PPLXResponse{
		ID:    "test-id",
		Model: "sonar",
		Choices: []PPLXChoice{
			{
				Message: PPLXMessage{
					Role: "assistant",
					Content: `{
						"title": "The Fairy Tales of the Brothers Grimm",
						"description": "A collection of classic fairy tales",
						"authors": ["Wilhelm Grimm", "Jacob Grimm"],
						"publish_date": "2011",
						"genres": ["Fairy Tales", "Classics"]
					}`,
				},
			},
		},
	}

	responseBody, _ := json.Marshal(mockResponse)

	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if req.Method != "POST" {
				t.Errorf("expected POST method, got %s", req.Method)
			}
			if req.URL.String() != "https://api.perplexity.ai/chat/completions" {
				t.Errorf("unexpected URL: %s", req.URL.String())
			}
			if req.Header.Get("Authorization") != "Bearer test-api-key" {
				t.Errorf("unexpected Authorization header: %s", req.Header.Get("Authorization"))
			}

			var payload struct {
				Messages []PPLXMessage `json:"messages"`
			}
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Errorf("failed to decode request payload: %v", err)
			}
			if payload.ResponseFormat.JSONSchema.Schema == nil {
				t.Errorf("expected a JSON schema in the request")
			}

			return &http.Response{
				StatusCode: 200,
				Body:       io.NopCloser(bytes.NewReader(responseBody)),
			}, nil
		},
	}

	job := NewPerplexityJob(db, "test-api-key", mockClient)

	if err := job.Run(t.Context()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	var isEnriched int
	var title, description, publishedDate string
	err := db.QueryRow("SELECT is_ai_enriched, title, description, published_date FROM books WHERE isbn = ?", testISBN).
		Scan(&isEnriched, &title, &description, &publishedDate)
	if err != nil {
		t.Fatalf("failed to query book: %v", err)
	}

	if isEnriched != 1 {
		t.Errorf("expected is_ai_enriched to be 1, got %d", isEnriched)
	}
	if title != "Test Book" {
		t.Errorf("expected existing title to be kept, got %s", title)
	}
	if description != "A collection of classic fairy tales" {
		t.Errorf("expected description to be updated, got %s", description)
	}
	if publishedDate != "2011" {
		t.Errorf("expected published_date to be updated, got %s", publishedDate)
	}

	var authorCount int
	err = db.QueryRow("SELECT COUNT(*) FROM authors WHERE isbn = ?", testISBN).Scan(&authorCount)
	if err != nil {
		t.Fatalf("failed to count authors: %v", err)
	}
	if authorCount != 2 {
		t.Errorf("expected 2 authors, got %d", authorCount)
	}

	var categoryCount int
	err = db.QueryRow("SELECT COUNT(*) FROM categories WHERE isbn = ?", testISBN).Scan(&categoryCount)
	if err != nil {
		t.Fatalf("failed to count categories: %v", err)
	}
	if categoryCount != 2 {
		t.Errorf("expected 2 categories, got %d", categoryCount)
	}

	// Enriched books are not sent again.
	job.httpClient = &MockHTTPClient{}
	if err := job.Run(t.Context()); err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}
}

func TestPerplexityJob_Run_APIError(t *testing.T) {
	db := setupTestDB(t)
	insertTestBook(t, db)

	job := NewPerplexityJob(db, "test-api-key", respondWith(500, []byte("Internal Server Error")))

	if err := job.Run(t.Context()); err == nil {
		t.Error("expected Run() to fail with API error")
	}

	var isEnriched int
	err := db.QueryRow("SELECT is_ai_enriched FROM books WHERE isbn = ?", testISBN).
		Scan(&isEnriched)
	if err != nil {
		t.Fatalf("failed to query book: %v", err)
	}

	if isEnriched != 0 {
		t.Errorf("expected is_ai_enriched to remain 0, got %d", isEnriched)
	}
}

func TestPerplexityJob_Name(t *testing.T) {
	job := &PerplexityJob{}
	if job.Name() != "perplexity_enricher" {
		t.Errorf("expected name 'perplexity_enricher', got %s", job.Name())
	}
}

func TestPerplexityJob_Period(t *testing.T) {
	job := &PerplexityJob{}
	expected := 10 * time.Minute
	if job.Period() != expected {
		t.Errorf("expected period %v, got %v", expected, job.Period())
	}
}

func TestPerplexityJob_Run_NoBooks(t *testing.T) {
	db := setupTestDB(t)

	job := NewPerplexityJob(db, "test-api-key", &MockHTTPClient{})

	if err := job.Run(t.Context()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
}

func TestPerplexityJob_Run_InvalidJSON(t *testing.T) {
	db := setupTestDB(t)
	insertTestBook(t, db)

	job := NewPerplexityJob(db, "test-api-key", respondWith(200, []byte("invalid json")))

	if err := job.Run(t.Context()); err == nil {
		t.Error("expected Run() to fail with invalid JSON")
	}
}

func TestPerplexityJob_Run_NoChoices(t *testing.T) {
	db := setupTestDB(t)
	insertTestBook(t, db)

	job := NewPerplexityJob(db, "test-api-key", respondWith(200, []byte(`{"id": "x", "choices": []}`)))

	if err := job.Run(t.Context()); err == nil {
		t.Error("expected Run() to fail without choices")
	}
}

func TestPerplexityJob_Run_FailureDoesNotBlockOthers(t *testing.T) {
	db := setupTestDB(t)

	const failingISBN, okISBN = "9780000000002", "9780000000019"
	for _, isbn := range []string{failingISBN, okISBN} {
		if _, err := db.Exec(`INSERT INTO books (isbn, title, is_ai_enriched) VALUES (?, ?, 0)`, isbn, "Book "+isbn); err != nil {
			t.Fatalf("failed to insert test book: %v", err)
		}
	}

	okBody, _ := json.Marshal(PPLXResponse{
		Choices: []PPLXChoice{{Message: PPLXMessage{Role: "assistant", Content: `{"description": "Enriched"}`}}},
	})

	job := NewPerplexityJob(db, "test-api-key", &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			var payload struct {
				Messages []PPLXMessage `json:"messages"`
			}
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Errorf("failed to decode request payload: %v", err)
			}
			if strings.Contains(payload.Messages[1].Content, failingISBN) {
				return &http.Response{StatusCode: 500, Body: io.NopCloser(bytes.NewReader([]byte("oops")))}, nil
			}
			return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(okBody))}, nil
		},
	})

	err := job.Run(t.Context())
	if err == nil {
		t.Fatal("expected Run() to report the failed book")
	}
	if !strings.Contains(err.Error(), failingISBN) {
		t.Errorf("expected the error to name %s, got %v", failingISBN, err)
	}

	for isbn, want := range map[string]int{failingISBN: 0, okISBN: 1} {
		var got int
		if err := db.QueryRow("SELECT is_ai_enriched FROM books WHERE isbn = ?", isbn).Scan(&got); err != nil {
			t.Fatalf("failed to query book %s: %v", isbn, err)
		}
		if got != want {
			t.Errorf("book %s: expected is_ai_enriched %d, got %d", isbn, want, got)
		}
	}
}
