package models

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Book is the record the /getbook endpoint returns. Fields the server sends
// that Book does not know about are kept in Extra and survive a round trip.
type Book struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Pages         int      `json:"pages,omitempty"`
	Language      string   `json:"language,omitempty"`
	CoverURL      string   `json:"cover,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var bookFields = jsonFieldNames(reflect.TypeOf(Book{}))

func jsonFieldNames(t reflect.Type) map[string]struct{} {
	names := map[string]struct{}{}
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		names[name] = struct{}{}
	}
	return names
}

func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for name := range fields {
		if _, ok := bookFields[name]; ok {
			delete(fields, name)
		}
	}

	p.Extra = nil
	if len(fields) > 0 {
		p.Extra = fields
	}

	*b = Book(p)
	return nil
}

func (b Book) MarshalJSON() ([]byte, error) {
	type plain Book
	data, err := json.Marshal(plain(b))
	if err != nil || len(b.Extra) == 0 {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for name, value := range b.Extra {
		if _, ok := fields[name]; ok {
			continue
		}
		fields[name] = value
	}

	return json.Marshal(fields)
}

// GetBookRequest is the body of POST /getbook.
type GetBookRequest struct {
	ISBN string `json:"isbn"`
}

// GetBookResponse is the body answered by POST /getbook. Book is nil when
// the server knows no book for the requested ISBN.
type GetBookResponse struct {
	Book *Book `json:"book"`
}

// Suggestion is a single book picked for a theme.
type Suggestion struct {
	Theme    string `json:"theme"`
	Title    string `json:"title"`
	ISBN     string `json:"isbn"`
	CoverURL string `json:"cover"`
}

// ThemesResponse lists the publisher's themes for one book.
type ThemesResponse struct {
	ISBN    string   `json:"isbn"`
	Themes  []string `json:"themes"`
	Summary string   `json:"summary"`
}

// TitleMatch is the book found for a title search.
type TitleMatch struct {
	Name string `json:"name"`
	ISBN string `json:"isbn"`
}
