package tui

import (
	"strings"
	"testing"

	"github.com/gouthamve/bookfetch/pkg/fetcher"
	"github.com/gouthamve/bookfetch/pkg/models"
	"github.com/gouthamve/bookfetch/pkg/view"
)

func TestMarkupLoaded(t *testing.T) {
	state := fetcher.LoadedState(models.Book{
		ISBN:    "0131103628",
		Title:   "The C Programming Language [2nd]",
		Authors: []string{"Brian W. Kernighan"},
	})

	got := Markup(view.Render(state, view.DefaultAssets()))

	for _, want := range []string{
		"[white::b]The C Programming Language [2nd[][-:-:-]",
		"ISBN 0131103628",
		"by Brian W. Kernighan",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in markup:\n%s", want, got)
		}
	}
}

func TestMarkupFailed(t *testing.T) {
	state := fetcher.FailedState(&fetcher.FetchError{Kind: fetcher.ErrServer, StatusCode: 500})

	got := Markup(view.Render(state, view.DefaultAssets()))
	if !strings.Contains(got, "[red::b]The book server returned an error (HTTP 500).[-:-:-]") {
		t.Errorf("expected error line in markup:\n%s", got)
	}
	if strings.Contains(got, "Scan or type an ISBN") {
		t.Errorf("failed view must not show the placeholder:\n%s", got)
	}
}
