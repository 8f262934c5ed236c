package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestISBNValidation(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		isbn  string
	}{
		{in: "0131103628", valid: true, isbn: "9780131103627"},
		{in: "0-13-110362-8", valid: true, isbn: "9780131103627"},
		{in: "978-0-13-110362-7", valid: true, isbn: "9780131103627"},
		{in: "080442957x", valid: true, isbn: "9780804429573"},
		{in: "0131103627", valid: false},
		{in: "9780131103628", valid: false},
		{in: "97801311036", valid: false},
		{in: "", valid: false},
		{in: "abcdefghij", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ValidISBN(tt.in); got != tt.valid {
				t.Fatalf("ValidISBN(%q) = %v, want %v", tt.in, got, tt.valid)
			}

			isbn, err := ISBN13(tt.in)
			if !tt.valid {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ISBN13(%q): %v", tt.in, err)
			}
			if isbn != tt.isbn {
				t.Errorf("ISBN13(%q) = %s, want %s", tt.in, isbn, tt.isbn)
			}
		})
	}
}

func TestBookKeepsUnknownFields(t *testing.T) {
	data := []byte(`{"isbn":"0131103628","title":"The C Programming Language","edition":2,"series":{"name":"Prentice Hall"}}`)

	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		t.Fatalf("failed to unmarshal book: %v", err)
	}

	want := Book{
		ISBN:  "0131103628",
		Title: "The C Programming Language",
		Extra: map[string]json.RawMessage{
			"edition": json.RawMessage(`2`),
			"series":  json.RawMessage(`{"name":"Prentice Hall"}`),
		},
	}
	if diff := cmp.Diff(want, book); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(book)
	if err != nil {
		t.Fatalf("failed to marshal book: %v", err)
	}

	var got, expected map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if err := json.Unmarshal(data, &expected); err != nil {
		t.Fatalf("failed to unmarshal input: %v", err)
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBookWithoutExtraFields(t *testing.T) {
	var book Book
	if err := json.Unmarshal([]byte(`{"isbn":"0131103628","title":"K&R"}`), &book); err != nil {
		t.Fatalf("failed to unmarshal book: %v", err)
	}
	if book.Extra != nil {
		t.Errorf("expected no extra fields, got %v", book.Extra)
	}
}
