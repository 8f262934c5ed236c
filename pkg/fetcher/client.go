package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gouthamve/bookfetch/pkg/models"
)

const requestIDHeader = "X-Request-Id"

// HTTPClient interface for making HTTP requests (allows mocking in tests)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the /getbook endpoint of a bookfetch server.
type Client struct {
	serverURL  string
	httpClient HTTPClient
}

// NewClient returns a Client for serverURL. A nil httpClient means
// NewInstrumentedHTTPClient(10 * time.Second).
func NewClient(serverURL string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = NewInstrumentedHTTPClient(10 * time.Second)
	}

	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: httpClient,
	}
}

// NewInstrumentedHTTPClient returns an http.Client that records request
// durations in Prometheus and propagates trace context.
func NewInstrumentedHTTPClient(timeout time.Duration) *http.Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)

	return &http.Client{
		Timeout:   timeout,
		Transport: promhttp.InstrumentRoundTripperDuration(getbookRequests, transport),
	}
}

// GetBook posts isbn to /getbook. Every returned error is a *FetchError.
func (c *Client) GetBook(ctx context.Context, isbn string) (models.Book, error) {
	payload, err := json.Marshal(models.GetBookRequest{ISBN: isbn})
	if err != nil {
		return models.Book{}, networkError(fmt.Errorf("cannot encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/getbook", bytes.NewReader(payload))
	if err != nil {
		return models.Book{}, networkError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Book{}, networkError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("cannot close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Book{}, networkError(fmt.Errorf("cannot read response body: %w", err))
	}

	if resp.StatusCode/100 != 2 {
		return models.Book{}, serverError(resp.StatusCode, serverMessage(body))
	}

	return decodeGetBookResponse(body)
}

func decodeGetBookResponse(body []byte) (models.Book, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return models.Book{}, parseError(err)
	}

	raw, ok := envelope["book"]
	if !ok {
		return models.Book{}, parseError(errors.New(`response has no "book" field`))
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return models.Book{}, &FetchError{Kind: ErrNotFound}
	}

	var book models.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		return models.Book{}, parseError(err)
	}

	return book, nil
}

// serverMessage extracts {"error": "..."} from an error body, if present.
func serverMessage(body []byte) error {
	var msg struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err != nil || msg.Error == "" {
		return nil
	}
	return errors.New(msg.Error)
}

// Suggest asks the server for a book matching theme. The returned ISBN can
// seed a BookFetcher.
func (c *Client) Suggest(ctx context.Context, theme string) (models.Suggestion, error) {
	var s models.Suggestion
	if err := c.getJSON(ctx, "/suggestions?"+url.Values{"theme": {theme}}.Encode(), &s); err != nil {
		return models.Suggestion{}, err
	}
	return s, nil
}

// ResolveTitle asks the server for the ISBN of the title best matching name.
func (c *Client) ResolveTitle(ctx context.Context, name string) (string, error) {
	var m models.TitleMatch
	if err := c.getJSON(ctx, "/titles?"+url.Values{"name": {name}}.Encode(), &m); err != nil {
		return "", err
	}
	if m.ISBN == "" {
		return "", parseError(errors.New("title match has no isbn"))
	}
	return m.ISBN, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+path, nil)
	if err != nil {
		return networkError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(fmt.Errorf("cannot read response body: %w", err))
	}
	if resp.StatusCode/100 != 2 {
		return serverError(resp.StatusCode, serverMessage(body))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return parseError(err)
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID attaches the id sent as X-Request-Id by Client.GetBook.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
