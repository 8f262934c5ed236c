package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gouthamve/bookfetch/pkg/cron"
	"github.com/gouthamve/bookfetch/pkg/handlers"
	"github.com/gouthamve/bookfetch/pkg/lookup"
	"github.com/gouthamve/bookfetch/pkg/penguin"
	"github.com/gouthamve/bookfetch/pkg/search"
)

type serverConfig struct {
	addr          string
	database      string
	perplexityKey string
	lookupRPS     int
	otel          bool
}

// serve runs migrations, starts the HTTP server and routes, and blocks until
// ctx is done.
func serve(ctx context.Context, cfg serverConfig) {
	if cfg.otel {
		shutdown, err := setupTelemetry(ctx, "bookfetch-server")
		if err != nil {
			log.Fatalf("failed to set up telemetry: %v", err)
		}
		defer shutdownWithTimeout(shutdown)
	}

	db, err := openDatabase(cfg.database)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	index, err := search.NewIndex()
	if err != nil {
		log.Fatalf("failed to create search index: %v", err)
	}

	catalog := handlers.NewCatalog(
		db,
		lookup.NewService(cfg.lookupRPS),
		index,
		penguin.NewClient(penguin.DefaultBaseURL, &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	)

	e := newEcho()
	SetupRoutes(e, catalog)

	cr := setupCronJobs(ctx, db, catalog, cfg.perplexityKey)

	go func() {
		log.Printf("Starting server on %s", cfg.addr)
		if err := e.Start(cfg.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("failed to shut down server: %v", err)
	}
	cr.Wait()
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(otelecho.Middleware("bookfetch"))
	e.Use(echoprometheus.NewMiddleware("bookfetch"))
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

// openDatabase migrates the catalog at path and returns a traced handle to it.
func openDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Run the migrations
	db, err := goose.OpenDBWithDriver("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database: %w", err)
	}

	db, err = otelsql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

func setupCronJobs(ctx context.Context, db *sql.DB, catalog *handlers.Catalog, pplxAPIKey string) *cron.CronRunner {
	jobs := []cron.Job{
		cron.NewFuncJob("search_reindex", 5*time.Minute, catalog.Reindex),
	}

	if pplxAPIKey == "" {
		log.Println("Perplexity API key not set, skipping perplexity enrichment")
	} else {
		jobs = append(jobs, cron.NewPerplexityJob(db, pplxAPIKey, nil))
	}

	cr := cron.NewCronRunner(jobs)
	cr.Run(ctx)

	return cr
}

func shutdownWithTimeout(shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Printf("failed to shut down telemetry: %v", err)
	}
}
