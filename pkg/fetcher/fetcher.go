// Package fetcher implements BookFetcher, a component that looks up one book
// by ISBN when it is mounted and keeps the outcome as local state.
//
// Mount, Unmount and the change callback run on the host's thread. The
// request itself runs on its own goroutine and its result comes back as a
// task on the host's Scheduler, so state only ever changes on the host thread.
package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gouthamve/bookfetch/pkg/models"
)

// BookClient looks up a book by ISBN. *Client is the HTTP implementation.
type BookClient interface {
	GetBook(ctx context.Context, isbn string) (models.Book, error)
}

type Option func(*BookFetcher)

// WithOnChange registers fn to be called on the host thread after every
// state transition.
func WithOnChange(fn func(State)) Option {
	return func(f *BookFetcher) {
		f.onChange = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *BookFetcher) {
		f.logger = logger
	}
}

type BookFetcher struct {
	id       string
	isbn     string
	client   BookClient
	sched    Scheduler
	onChange func(State)
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	started bool
	mounted bool
}

// New returns an Idle BookFetcher for isbn.
func New(isbn string, client BookClient, sched Scheduler, opts ...Option) (*BookFetcher, error) {
	isbn = models.NormalizeISBN(isbn)
	if isbn == "" {
		return nil, ErrEmptyISBN
	}

	f := &BookFetcher{
		id:     uuid.NewString(),
		isbn:   isbn,
		client: client,
		sched:  sched,
		logger: slog.Default(),
		state:  IdleState(),
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// ID identifies this fetcher's request; it is sent as X-Request-Id.
func (f *BookFetcher) ID() string { return f.id }

func (f *BookFetcher) ISBN() string { return f.isbn }

func (f *BookFetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Mount moves the fetcher to Loading and issues the request. Only the first
// call has any effect.
func (f *BookFetcher) Mount(ctx context.Context) {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.mounted = true
	f.mu.Unlock()

	f.transition(LoadingState())

	reqCtx := WithRequestID(ctx, f.id)
	go func() {
		start := time.Now()
		book, err := f.client.GetBook(reqCtx, f.isbn)
		took := time.Since(start)

		f.sched.Schedule(func() {
			f.complete(book, err, took)
		})
	}()
}

// Unmount detaches the fetcher from its view. A response that arrives
// afterwards is dropped.
func (f *BookFetcher) Unmount() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mounted = false
}

func (f *BookFetcher) complete(book models.Book, err error, took time.Duration) {
	f.mu.Lock()
	mounted := f.mounted
	f.mu.Unlock()

	if !mounted {
		fetchesDiscarded.Inc()
		f.logger.Debug("dropping book fetch result after unmount", "isbn", f.isbn, "fetch_id", f.id)
		return
	}

	if err != nil {
		fe := asFetchError(err)
		fetchesTotal.WithLabelValues(outcomeLabel(fe)).Inc()
		f.logger.Error("book fetch failed", "error", fe, "isbn", f.isbn, "fetch_id", f.id, "took", took)
		f.transition(FailedState(fe))
		return
	}

	if book.ISBN == "" {
		book.ISBN = f.isbn
	}
	fetchesTotal.WithLabelValues(outcomeLabel(nil)).Inc()
	f.logger.Info("book fetched", "isbn", f.isbn, "title", book.Title, "fetch_id", f.id, "took", took)
	f.transition(LoadedState(book))
}

func (f *BookFetcher) transition(next State) {
	f.mu.Lock()
	if !f.state.Phase.canMoveTo(next.Phase) {
		prev := f.state.Phase
		f.mu.Unlock()
		f.logger.Warn("ignoring invalid state transition", "from", prev, "to", next.Phase, "fetch_id", f.id)
		return
	}
	f.state = next
	onChange := f.onChange
	f.mu.Unlock()

	if onChange != nil {
		onChange(next)
	}
}
