// Package penguin is a small client for Penguin Random House's reststop
// catalog API, used to suggest books by theme.
package penguin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gouthamve/bookfetch/pkg/models"
)

const DefaultBaseURL = "https://reststop.randomhouse.com/resources"

var ErrNoTitles = errors.New("no titles found")

// SampleSuggestion is offered when the catalog cannot be reached.
var SampleSuggestion = models.Suggestion{
	Title:    "Sample Title",
	ISBN:     "9781400079148",
	CoverURL: DefaultBaseURL + "/titles/9781400079148",
}

// HTTPClient interface for making HTTP requests (allows mocking in tests)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	httpClient HTTPClient
	intN       func(n int) int
}

func NewClient(baseURL string, httpClient HTTPClient) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		intN:       rand.IntN,
	}
}

type Themes struct {
	Theme []string `json:"theme"`
}

type Title struct {
	ISBN     flexString `json:"isbn"`
	TitleWeb string     `json:"titleweb"`
	Themes   *Themes    `json:"themes"`
}

type titlesResponse struct {
	Title []Title `json:"title"`
}

// flexString accepts both JSON strings and numbers; the API sends ISBNs as
// either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("isbn is neither a string nor a number: %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// Suggest picks a random title for theme.
func (c *Client) Suggest(ctx context.Context, theme string) (models.Suggestion, error) {
	q := url.Values{}
	q.Set("start", "0")
	q.Set("max", "100")
	q.Set("expandlevel", "1")
	q.Set("theme", theme)

	var resp titlesResponse
	if err := c.get(ctx, "/titles?"+q.Encode(), &resp); err != nil {
		return models.Suggestion{}, err
	}
	if len(resp.Title) == 0 {
		return models.Suggestion{}, ErrNoTitles
	}

	title := resp.Title[c.intN(len(resp.Title))]
	isbn := string(title.ISBN)

	return models.Suggestion{
		Theme:    theme,
		Title:    TagRemove(title.TitleWeb),
		ISBN:     isbn,
		CoverURL: c.baseURL + "/titles/" + isbn,
	}, nil
}

// BookThemes returns the themes the catalog lists for isbn. A book without
// themes yields nil.
func (c *Client) BookThemes(ctx context.Context, isbn string) (*Themes, error) {
	var title Title
	if err := c.get(ctx, "/titles/"+url.PathEscape(isbn), &title); err != nil {
		return nil, err
	}
	if title.Themes == nil || len(title.Themes.Theme) == 0 {
		return nil, nil
	}

	return title.Themes, nil
}

// TitleSearch returns the ISBN of the first title matching name.
func (c *Client) TitleSearch(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("start", "0")
	q.Set("max", "1")
	q.Set("expandlevel", "1")
	q.Set("search", name)

	var resp titlesResponse
	if err := c.get(ctx, "/titles?"+q.Encode(), &resp); err != nil {
		return "", err
	}
	if len(resp.Title) == 0 {
		return "", ErrNoTitles
	}

	return string(resp.Title[0].ISBN), nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation error: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("response JSON decode error: %w", err)
	}

	return nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// TagRemove strips HTML tags; the catalog marks up some titles.
func TagRemove(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// FormatThemes renders themes as one sentence, or "None".
func FormatThemes(t *Themes) string {
	if t == nil || len(t.Theme) == 0 {
		return "None"
	}
	return "Themes: " + strings.Join(t.Theme, ", ")
}
