package fetcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gouthamve/bookfetch/pkg/models"
)

// gatedClient blocks every GetBook call until release is closed.
type gatedClient struct {
	calls   atomic.Int32
	release chan struct{}
	book    models.Book
	err     error
}

func newGatedClient(book models.Book, err error) *gatedClient {
	return &gatedClient{release: make(chan struct{}), book: book, err: err}
}

func (c *gatedClient) GetBook(ctx context.Context, isbn string) (models.Book, error) {
	c.calls.Add(1)
	<-c.release
	return c.book, c.err
}

func runNext(t *testing.T, loop *Loop) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	if err := loop.RunNext(ctx); err != nil {
		t.Fatalf("no completion was scheduled: %v", err)
	}
}

func TestNewRequiresISBN(t *testing.T) {
	_, err := New(" - ", newGatedClient(models.Book{}, nil), NewLoop())
	if !errors.Is(err, ErrEmptyISBN) {
		t.Fatalf("expected ErrEmptyISBN, got %v", err)
	}
}

func TestMountLoadsBook(t *testing.T) {
	book := models.Book{ISBN: "0131103628", Title: "The C Programming Language"}
	client := newGatedClient(book, nil)
	loop := NewLoop()

	var seen []Phase
	f, err := New("0-13-110362-8", client, loop, WithOnChange(func(s State) {
		seen = append(seen, s.Phase)
	}))
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	if f.State().Phase != Idle {
		t.Fatalf("expected initial phase idle, got %s", f.State().Phase)
	}

	f.Mount(t.Context())
	if f.State().Phase != Loading {
		t.Fatalf("expected loading before response, got %s", f.State().Phase)
	}

	close(client.release)
	runNext(t, loop)

	got := f.State()
	if got.Phase != Loaded {
		t.Fatalf("expected loaded, got %s (err: %v)", got.Phase, got.Err)
	}
	if diff := cmp.Diff(book, *got.Book); diff != "" {
		t.Errorf("book mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Phase{Loading, Loaded}, seen); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestMountRunsOnce(t *testing.T) {
	client := newGatedClient(models.Book{Title: "Once"}, nil)
	loop := NewLoop()

	f, err := New("0131103628", client, loop)
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	f.Mount(t.Context())
	f.Mount(t.Context())
	close(client.release)
	runNext(t, loop)
	f.Mount(t.Context())

	if n := client.calls.Load(); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
	if got := f.State(); got.Phase != Loaded || got.Book.ISBN != "0131103628" {
		t.Errorf("unexpected state %+v", got)
	}
}

func TestMountCapturesFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "server", err: serverError(500, nil), kind: ErrServer},
		{name: "parse", err: parseError(errors.New("bad json")), kind: ErrParse},
		{name: "not found", err: &FetchError{Kind: ErrNotFound}, kind: ErrNotFound},
		{name: "plain error", err: errors.New("connection reset"), kind: ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newGatedClient(models.Book{}, tt.err)
			loop := NewLoop()

			f, err := New("0131103628", client, loop)
			if err != nil {
				t.Fatalf("failed to create fetcher: %v", err)
			}

			f.Mount(t.Context())
			close(client.release)
			runNext(t, loop)

			got := f.State()
			if got.Phase != Failed {
				t.Fatalf("expected failed, got %s", got.Phase)
			}
			if got.Book != nil {
				t.Errorf("failed state must not carry a book")
			}
			if !errors.Is(got.Err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, got.Err)
			}
		})
	}
}

func TestUnmountDropsLateResult(t *testing.T) {
	client := newGatedClient(models.Book{Title: "Too late"}, nil)
	loop := NewLoop()

	changes := 0
	f, err := New("0131103628", client, loop, WithOnChange(func(State) {
		changes++
	}))
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	f.Mount(t.Context())
	f.Unmount()
	close(client.release)
	runNext(t, loop)

	if got := f.State(); got.Phase != Loading {
		t.Errorf("expected state to stay loading after unmount, got %s", got.Phase)
	}
	if changes != 1 {
		t.Errorf("expected only the loading notification, got %d", changes)
	}
}

func TestTransitionsOnlyMoveForward(t *testing.T) {
	f, err := New("0131103628", newGatedClient(models.Book{}, nil), NewLoop())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	f.transition(LoadedState(models.Book{Title: "skipped loading"}))
	if got := f.State(); got.Phase != Idle {
		t.Fatalf("idle must not jump to loaded, got %s", got.Phase)
	}

	f.transition(LoadingState())
	f.transition(FailedState(networkError(errors.New("boom"))))
	f.transition(LoadedState(models.Book{Title: "after failure"}))
	if got := f.State(); got.Phase != Failed {
		t.Fatalf("failed must be terminal, got %s", got.Phase)
	}
}

func TestOnce(t *testing.T) {
	client := newGatedClient(models.Book{Title: "Once upon a time"}, nil)
	close(client.release)

	var seen []Phase
	state, err := Once(t.Context(), "0131103628", client, func(s State) {
		seen = append(seen, s.Phase)
	})
	if err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	if state.Phase != Loaded || state.Book.Title != "Once upon a time" {
		t.Errorf("unexpected state %+v", state)
	}
	if diff := cmp.Diff([]Phase{Loading, Loaded}, seen); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestOnceGivesUpWithContext(t *testing.T) {
	client := newGatedClient(models.Book{}, nil)
	defer close(client.release)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	state, err := Once(ctx, "0131103628", client, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if state.Phase != Loading {
		t.Errorf("expected loading, got %s", state.Phase)
	}
}
