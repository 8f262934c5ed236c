package readIsbn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gouthamve/bookfetch/pkg/fetcher"
	"github.com/gouthamve/bookfetch/pkg/models"
	"github.com/gouthamve/bookfetch/pkg/view"
)

var (
	codesReadCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookfetch_codes_read_total",
		Help: "The total number of codes read from the input",
	})

	codesRejectedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookfetch_codes_rejected_total",
		Help: "The total number of codes that were not a valid ISBN",
	})
)

// FromReader returns the non-empty lines of r.
func FromReader(ctx context.Context, r io.Reader) <-chan string {
	codes := make(chan string)

	go func() {
		defer close(codes)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case codes <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("cannot read input", "error", err)
		}
	}()

	return codes
}

// ISBNs passes on the valid ISBNs of codes, normalized, and drops the rest.
func ISBNs(ctx context.Context, codes <-chan string) <-chan string {
	isbns := make(chan string)

	go func() {
		defer close(isbns)

		for {
			var code string
			var ok bool
			select {
			case code, ok = <-codes:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}

			if code == "" {
				continue
			}
			codesReadCounter.Inc()

			if !models.ValidISBN(code) {
				codesRejectedCounter.Inc()
				slog.Warn("ignoring code that is not an ISBN", "code", code)
				continue
			}

			select {
			case isbns <- models.NormalizeISBN(code):
			case <-ctx.Done():
				return
			}
		}
	}()

	return isbns
}

type CLIConfig struct {
	Client  fetcher.BookClient
	Assets  view.Assets
	Codes   <-chan string
	Out     io.Writer
	Prompt  bool
	Metrics string
}

// StartCLI looks up every ISBN read from cfg.Codes and prints the rendered
// view once the lookup settles. If cfg.Metrics is set, Prometheus metrics are
// served on that address until StartCLI returns.
func StartCLI(ctx context.Context, cfg CLIConfig) error {
	if cfg.Metrics != "" {
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Use(echoprometheus.NewMiddleware("bookfetch_cli"))
		e.GET("/metrics", echoprometheus.NewHandler())

		go func() {
			if err := e.Start(cfg.Metrics); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				slog.Warn("cannot stop metrics server", "error", err)
			}
		}()
	}

	isbns := ISBNs(ctx, cfg.Codes)
	for {
		if cfg.Prompt {
			fmt.Fprint(cfg.Out, "Enter ISBN: ")
		}

		var isbn string
		var ok bool
		select {
		case isbn, ok = <-isbns:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		state, err := fetcher.Once(ctx, isbn, cfg.Client, nil)
		if err != nil {
			return err
		}

		fmt.Fprint(cfg.Out, view.Text(view.Render(state, cfg.Assets)))
	}
}
