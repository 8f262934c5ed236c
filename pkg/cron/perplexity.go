package cron

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/gouthamve/bookfetch/pkg/db"
)

const perplexityURL = "https://api.perplexity.ai/chat/completions"

// HTTPClient interface for making HTTP requests (allows mocking in tests)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// PerplexityJob fills in catalog books that the upstream lookups left thin.
type PerplexityJob struct {
	queries    *db.Queries
	apiKey     string
	httpClient HTTPClient
}

func NewPerplexityJob(database *sql.DB, apiKey string, httpClient HTTPClient) *PerplexityJob {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}

	return &PerplexityJob{
		queries:    db.New(database),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (p *PerplexityJob) Name() string {
	return "perplexity_enricher"
}

func (p *PerplexityJob) Period() time.Duration {
	return 10 * time.Minute
}

func (p *PerplexityJob) Run(ctx context.Context) error {
	unenrichedISBNs, err := p.queries.GetUnenrichedBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to query unenriched books: %w", err)
	}

	// One failing book must not hold back the rest.
	var errs []error
	for _, isbn := range unenrichedISBNs {
		if err := p.enrichBook(ctx, isbn); err != nil {
			slog.Error("enrichment failed", "error", err, "isbn", isbn)
			errs = append(errs, fmt.Errorf("enrichment error for %s: %w", isbn, err))
			continue
		}
		slog.Info("enriched book", "isbn", isbn)
	}

	return errors.Join(errs...)
}

func (p *PerplexityJob) enrichBook(ctx context.Context, isbn string) error {
	promptTmpl := `Tell me about the book with ISBN %s. 
	Please output a JSON object containing the following fields: 
	title, description, authors, publish_date, and genres.`

	payload := PPLXRequestPayload{
		Model: "sonar",
		Messages: []PPLXMessage{
			{
				Role:    "system",
				Content: "Be precise and concise.",
			},
			{
				Role:    "user",
				Content: fmt.Sprintf(promptTmpl, isbn),
			},
		},
		ResponseFormat: PPLXResponseFormat{
			Type: "json_schema",
			JSONSchema: PPLXJSONSchema{
				Schema: toJSONSchema(Book{}),
			},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("JSON marshal error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, perplexityURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("request creation error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d; isbn: %s", resp.StatusCode, isbn)
	}

	var result PPLXResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("response JSON decode error: %w; isbn: %s", err, isbn)
	}
	if len(result.Choices) == 0 {
		return errors.New("response has no choices")
	}

	var book Book
	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), &book); err != nil {
		return fmt.Errorf("book JSON unmarshal error: %w", err)
	}

	return p.store(ctx, isbn, book)
}

// store only fills fields that are empty in the catalog.
func (p *PerplexityJob) store(ctx context.Context, isbn string, book Book) error {
	err := p.queries.UpdateBookTitle(ctx, db.UpdateBookTitleParams{
		Title: db.StringToNullString(book.Title),
		Isbn:  isbn,
	})
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}

	err = p.queries.UpdateBookDescription(ctx, db.UpdateBookDescriptionParams{
		Description: db.StringToNullString(book.Description),
		Isbn:        isbn,
	})
	if err != nil {
		return fmt.Errorf("failed to update description: %w", err)
	}

	err = p.queries.UpdateBookPublishedDate(ctx, db.UpdateBookPublishedDateParams{
		PublishedDate: db.StringToNullString(book.PublishDate),
		Isbn:          isbn,
	})
	if err != nil {
		return fmt.Errorf("failed to update published_date: %w", err)
	}

	for _, author := range book.Authors {
		err = p.queries.InsertAuthor(ctx, db.InsertAuthorParams{
			Name: db.StringToNullString(author),
			Isbn: db.StringToNullString(isbn),
		})
		if err != nil {
			return fmt.Errorf("failed to insert author: %w", err)
		}
	}

	for _, genre := range book.Genres {
		err = p.queries.InsertCategory(ctx, db.InsertCategoryParams{
			Name: db.StringToNullString(genre),
			Isbn: db.StringToNullString(isbn),
		})
		if err != nil {
			return fmt.Errorf("failed to insert genre: %w", err)
		}
	}

	if err := p.queries.MarkBookAsEnriched(ctx, isbn); err != nil {
		return fmt.Errorf("failed to update is_ai_enriched: %w", err)
	}

	return nil
}

// Book is the structured answer requested from Perplexity.
type Book struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Authors     []string `json:"authors"`
	PublishDate string   `json:"publish_date"`
	Genres      []string `json:"genres"`
}

type PPLXMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PPLXJSONSchema struct {
	Schema *jsonschema.Schema `json:"schema"`
}

type PPLXResponseFormat struct {
	Type       string         `json:"type"`
	JSONSchema PPLXJSONSchema `json:"json_schema"`
}

type PPLXChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      PPLXMessage `json:"message"`
}

type PPLXResponse struct {
	ID        string       `json:"id"`
	Model     string       `json:"model"`
	Object    string       `json:"object"`
	Created   int          `json:"created"`
	Citations []string     `json:"citations"`
	Choices   []PPLXChoice `json:"choices"`
	Usage     struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type PPLXRequestPayload struct {
	Model          string             `json:"model"`
	Messages       []PPLXMessage      `json:"messages"`
	ResponseFormat PPLXResponseFormat `json:"response_format"`
}

func toJSONSchema(v any) *jsonschema.Schema {
	schema := jsonschema.Reflect(v)

	return schema.Definitions[reflect.TypeOf(v).Name()]
}
