package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/gouthamve/bookfetch/migrations"
	_ "modernc.org/sqlite"

	"github.com/gouthamve/bookfetch/pkg/fetcher"
	"github.com/gouthamve/bookfetch/pkg/readIsbn"
	"github.com/gouthamve/bookfetch/pkg/tui"
	"github.com/gouthamve/bookfetch/pkg/view"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultDatabase  = "./.db/bookfetch.db"
)

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func loadAssets(cmd *cobra.Command) view.Assets {
	logo, err := cmd.Flags().GetString("logo")
	if err != nil {
		log.Fatalln("cannot get logo flag:", err)
	}
	assets, err := view.LoadAssets(logo)
	if err != nil {
		log.Fatalln("cannot load assets:", err)
	}
	return assets
}

// withTelemetry starts OpenTelemetry when --otel is set and returns the
// function that stops it.
func withTelemetry(ctx context.Context, cmd *cobra.Command, service string) func() {
	enabled, err := cmd.Flags().GetBool("otel")
	if err != nil {
		log.Fatalln("cannot get otel flag:", err)
	}
	if !enabled {
		return func() {}
	}

	shutdown, err := setupTelemetry(ctx, service)
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}
	return func() { shutdownWithTimeout(shutdown) }
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("cannot load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "bookfetch",
		Short: "Look up books by ISBN",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// The TUI owns the terminal.
			if cmd.Name() == "tui" {
				setupLogging(io.Discard, verbose)
				return
			}
			setupLogging(os.Stderr, verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
	rootCmd.PersistentFlags().Bool("otel", false, "Export traces and metrics with OpenTelemetry (configured by OTEL_* variables).")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := serverConfig{}
			var err error
			if cfg.addr, err = cmd.Flags().GetString("addr"); err != nil {
				log.Fatalln("cannot get addr flag:", err)
			}
			if cfg.database, err = cmd.Flags().GetString("db"); err != nil {
				log.Fatalln("cannot get db flag:", err)
			}
			if cfg.perplexityKey, err = cmd.Flags().GetString("perplexity-key"); err != nil {
				log.Fatalln("cannot get perplexity-key flag:", err)
			}
			if cfg.lookupRPS, err = cmd.Flags().GetInt("lookup-rps"); err != nil {
				log.Fatalln("cannot get lookup-rps flag:", err)
			}
			if cfg.otel, err = cmd.Flags().GetBool("otel"); err != nil {
				log.Fatalln("cannot get otel flag:", err)
			}
			serve(ctx, cfg)
		},
	}
	serveCmd.Flags().String("addr", envOr("BOOKFETCH_ADDR", ":8080"), "Address to listen on.")
	serveCmd.Flags().String("db", envOr("BOOKFETCH_DB", defaultDatabase), "Path to the SQLite catalog.")
	serveCmd.Flags().String("perplexity-key", os.Getenv("PERPLEXITY_API_KEY"), "The perplexity API key.")
	serveCmd.Flags().Int("lookup-rps", envIntOr("BOOKFETCH_LOOKUP_RPS", 5), "Upstream lookups per second, 0 for no limit.")

	fetchCmd := &cobra.Command{
		Use:   "fetch [isbn]",
		Short: "Look up one book and print it",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			defer withTelemetry(ctx, cmd, "bookfetch-cli")()
			if err := runFetch(ctx, cmd, args, os.Stdout); err != nil {
				log.Fatalln(err)
			}
		},
	}
	fetchCmd.Flags().String("theme", "", "Look up a book suggested for this theme instead of an ISBN.")
	fetchCmd.Flags().String("title", "", "Look up the book best matching this title instead of an ISBN.")
	fetchCmd.Flags().String("card", "", "Also write the result as a PNG card to this path.")

	readCmd := &cobra.Command{
		Use:   "read-isbn",
		Short: "Start ISBN input loop",
		Run: func(cmd *cobra.Command, args []string) {
			defer withTelemetry(ctx, cmd, "bookfetch-cli")()

			inputDevicePath, err := cmd.Flags().GetString("input-device-path")
			if err != nil {
				log.Fatalln("cannot get inputPath flag:", err)
			}
			metricsAddr, err := cmd.Flags().GetString("metrics-addr")
			if err != nil {
				log.Fatalln("cannot get metrics-addr flag:", err)
			}

			cfg := readIsbn.CLIConfig{
				Client:  newClient(cmd),
				Assets:  loadAssets(cmd),
				Out:     os.Stdout,
				Metrics: metricsAddr,
			}
			if inputDevicePath != "" {
				codes, err := readIsbn.FromDevice(ctx, inputDevicePath)
				if err != nil {
					log.Fatalln("cannot open input device:", err)
				}
				cfg.Codes = codes
			} else {
				cfg.Codes = readIsbn.FromReader(ctx, os.Stdin)
				cfg.Prompt = true
			}

			if err := readIsbn.StartCLI(ctx, cfg); err != nil && ctx.Err() == nil {
				log.Fatalln(err)
			}
		},
	}
	readCmd.Flags().String("input-device-path", "", "Path to the scanners udev device.")
	readCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address.")

	tuiCmd := &cobra.Command{
		Use:   "tui [isbn]",
		Short: "Launch the TUI interface",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			defer withTelemetry(ctx, cmd, "bookfetch-tui")()

			inputDevicePath, err := cmd.Flags().GetString("input-device-path")
			if err != nil {
				log.Fatalln("cannot get inputPath flag:", err)
			}

			cfg := tui.Config{
				Client: newClient(cmd),
				Assets: loadAssets(cmd),
				Logger: slog.Default(),
			}
			if len(args) == 1 {
				cfg.ISBN = args[0]
			}
			if inputDevicePath != "" {
				codes, err := readIsbn.FromDevice(ctx, inputDevicePath)
				if err != nil {
					log.Fatalln("cannot open input device:", err)
				}
				cfg.ISBNs = readIsbn.ISBNs(ctx, codes)
			}

			if err := tui.Start(ctx, cfg); err != nil {
				log.Fatalln(err)
			}
		},
	}
	tuiCmd.Flags().String("input-device-path", "", "Path to the scanners udev device.")

	for _, cmd := range []*cobra.Command{fetchCmd, readCmd, tuiCmd} {
		cmd.Flags().String("server-url", envOr("BOOKFETCH_SERVER_URL", defaultServerURL), "Server URL for posting ISBNs.")
		cmd.Flags().String("logo", os.Getenv("BOOKFETCH_LOGO"), "Logo image shown above the book.")
	}

	rootCmd.AddCommand(serveCmd, fetchCmd, readCmd, tuiCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newClient(cmd *cobra.Command) *fetcher.Client {
	serverURL, err := cmd.Flags().GetString("server-url")
	if err != nil {
		log.Fatalln("cannot get server URL:", err)
	}
	return fetcher.NewClient(serverURL, nil)
}

// runFetch mounts one BookFetcher and prints every state it passes through.
func runFetch(ctx context.Context, cmd *cobra.Command, args []string, out io.Writer) error {
	theme, err := cmd.Flags().GetString("theme")
	if err != nil {
		return fmt.Errorf("cannot get theme flag: %w", err)
	}
	title, err := cmd.Flags().GetString("title")
	if err != nil {
		return fmt.Errorf("cannot get title flag: %w", err)
	}
	cardPath, err := cmd.Flags().GetString("card")
	if err != nil {
		return fmt.Errorf("cannot get card flag: %w", err)
	}

	client := newClient(cmd)
	assets := loadAssets(cmd)

	var isbn string
	switch {
	case len(args) == 1:
		isbn = args[0]
	case theme != "":
		s, err := client.Suggest(ctx, theme)
		if err != nil {
			return fmt.Errorf("cannot get a suggestion for %q: %w", theme, err)
		}
		fmt.Fprintf(out, "Suggested for %s: %s\n\n", theme, s.Title)
		isbn = s.ISBN
	case title != "":
		isbn, err = client.ResolveTitle(ctx, title)
		if err != nil {
			return fmt.Errorf("cannot find a book titled %q: %w", title, err)
		}
	default:
		return fmt.Errorf("an ISBN, --theme or --title is required")
	}

	state, err := fetcher.Once(ctx, isbn, client, func(s fetcher.State) {
		if !s.Settled() {
			fmt.Fprintln(out, view.Text(view.Render(s, assets)))
		}
	})
	if err != nil {
		return err
	}

	node := view.Render(state, assets)
	fmt.Fprint(out, view.Text(node))

	if cardPath != "" {
		if err := writeCard(cardPath, node, assets); err != nil {
			return err
		}
	}

	if state.Phase == fetcher.Failed {
		return state.Err
	}
	return nil
}

// writeCard draws node to a PNG file at path.
func writeCard(path string, node view.Node, assets view.Assets) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create card: %w", err)
	}
	if err := view.WritePNG(f, node, assets); err != nil {
		return errors.Join(fmt.Errorf("cannot draw card: %w", err), f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot write card: %w", err)
	}
	return nil
}
