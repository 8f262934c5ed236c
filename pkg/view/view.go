// Package view turns a BookFetcher state into a view tree. Render is pure:
// the same state and assets always give an identical tree.
package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gouthamve/bookfetch/pkg/fetcher"
	"github.com/gouthamve/bookfetch/pkg/models"
)

type Kind string

const (
	Container Kind = "container"
	Image     Kind = "image"
	Heading   Kind = "heading"
	Paragraph Kind = "paragraph"
	Link      Kind = "link"
	Alert     Kind = "alert"
)

// Node is one element of the view tree. Text is the alt text for images.
type Node struct {
	Kind     Kind
	Class    string
	Text     string
	Src      string
	Href     string
	Children []Node
}

func Render(s fetcher.State, a Assets) Node {
	header := Node{
		Kind:     Container,
		Class:    "App-header",
		Children: []Node{logo(a)},
	}

	switch {
	case s.Phase == fetcher.Loaded && s.Book != nil:
		header.Children = append(header.Children, bookNodes(*s.Book)...)
	case s.Phase == fetcher.Failed:
		header.Children = append(header.Children, Node{
			Kind:  Alert,
			Class: "App-error",
			Text:  ErrorMessage(s.Err),
		})
	default:
		header.Children = append(header.Children, placeholder(s.Phase, a)...)
	}

	return Node{Kind: Container, Class: "App", Children: []Node{header}}
}

func logo(a Assets) Node {
	return Node{Kind: Image, Class: "App-logo", Src: a.LogoPath, Text: "logo"}
}

func placeholder(phase fetcher.Phase, a Assets) []Node {
	nodes := []Node{{Kind: Paragraph, Text: a.Tagline}}
	if phase == fetcher.Loading {
		nodes = append(nodes, Node{Kind: Paragraph, Class: "App-status", Text: "Looking up book..."})
	}
	if a.LinkHref != "" {
		nodes = append(nodes, Node{Kind: Link, Class: "App-link", Text: a.LinkText, Href: a.LinkHref})
	}
	return nodes
}

func bookNodes(b models.Book) []Node {
	title := b.Title
	if title == "" {
		title = "Untitled"
	}

	nodes := []Node{
		{Kind: Heading, Class: "Book-title", Text: title},
		{Kind: Paragraph, Class: "Book-isbn", Text: "ISBN " + b.ISBN},
	}
	if len(b.Authors) > 0 {
		nodes = append(nodes, Node{Kind: Paragraph, Class: "Book-authors", Text: "by " + strings.Join(b.Authors, ", ")})
	}
	if published := publishedLine(b); published != "" {
		nodes = append(nodes, Node{Kind: Paragraph, Class: "Book-published", Text: published})
	}
	if b.CoverURL != "" {
		nodes = append(nodes, Node{Kind: Image, Class: "Book-cover", Src: b.CoverURL, Text: "cover of " + title})
	}
	if b.Description != "" {
		nodes = append(nodes, Node{Kind: Paragraph, Class: "Book-description", Text: b.Description})
	}

	return nodes
}

func publishedLine(b models.Book) string {
	switch {
	case b.Publisher != "" && b.PublishedDate != "":
		return fmt.Sprintf("%s, %s", b.Publisher, b.PublishedDate)
	case b.Publisher != "":
		return b.Publisher
	default:
		return b.PublishedDate
	}
}

// ErrorMessage is the user facing text for a failed fetch.
func ErrorMessage(err *fetcher.FetchError) string {
	switch {
	case err == nil:
		return "Something went wrong."
	case errors.Is(err, fetcher.ErrNotFound):
		return "No book matches this ISBN."
	case errors.Is(err, fetcher.ErrServer):
		return fmt.Sprintf("The book server returned an error (HTTP %d).", err.StatusCode)
	case errors.Is(err, fetcher.ErrParse):
		return "The book server sent a response that could not be read."
	default:
		return "Could not reach the book server."
	}
}
