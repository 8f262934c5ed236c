package tui

import (
	"context"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/gouthamve/bookfetch/pkg/fetcher"
	"github.com/gouthamve/bookfetch/pkg/view"
)

type Config struct {
	Client fetcher.BookClient
	Assets view.Assets

	// ISBN is looked up as soon as the UI starts, if set.
	ISBN string
	// ISBNs feeds scanned codes into the view, e.g. from a barcode scanner.
	ISBNs <-chan string
	// Logger receives fetch logs. The terminal belongs to the UI, so they
	// are discarded when it is nil.
	Logger *slog.Logger
}

// Start runs the TUI until the user quits or ctx is done.
func Start(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := tview.NewApplication()
	sched := fetcher.SchedulerFunc(func(task func()) {
		app.QueueUpdateDraw(task)
	})
	bv := newBookView(ctx, sched, cfg.Client, cfg.Assets, logger)

	flex := tview.NewFlex().SetDirection(tview.FlexRow)
	flex.SetBorder(true).SetTitle("Bookfetch").SetTitleAlign(tview.AlignCenter)
	flex.
		AddItem(bv.text, 0, 1, false).
		AddItem(bv.input, 1, 0, true)

	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || event.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}

		return event
	})

	if cfg.ISBN != "" {
		bv.show(cfg.ISBN)
	}

	if cfg.ISBNs != nil {
		go func() {
			for {
				select {
				case isbn, ok := <-cfg.ISBNs:
					if !ok {
						return
					}
					sched.Schedule(func() {
						bv.show(isbn)
					})
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	defer bv.unmount()
	return app.SetRoot(flex, true).SetFocus(bv.input).EnableMouse(true).Run()
}

// bookView hosts one BookFetcher at a time. All methods run on the thread
// behind sched, the tview event loop in Start.
type bookView struct {
	ctx    context.Context
	sched  fetcher.Scheduler
	client fetcher.BookClient
	assets view.Assets
	logger *slog.Logger

	text    *tview.TextView
	input   *tview.InputField
	current *fetcher.BookFetcher
}

func newBookView(ctx context.Context, sched fetcher.Scheduler, client fetcher.BookClient, assets view.Assets, logger *slog.Logger) *bookView {
	bv := &bookView{
		ctx:    ctx,
		sched:  sched,
		client: client,
		assets: assets,
		logger: logger,
	}

	bv.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetTextAlign(tview.AlignCenter)

	bv.input = tview.NewInputField().SetLabel("ISBN ").SetFieldWidth(20)
	bv.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}

		isbn := bv.input.GetText()
		bv.input.SetText("")
		bv.show(isbn)
	})

	bv.render(fetcher.IdleState())
	return bv
}

// show replaces the current fetcher with one for isbn and mounts it.
func (bv *bookView) show(isbn string) {
	bv.unmount()

	f, err := fetcher.New(isbn, bv.client, bv.sched,
		fetcher.WithOnChange(bv.render),
		fetcher.WithLogger(bv.logger),
	)
	if err != nil {
		bv.render(fetcher.IdleState())
		return
	}

	bv.logger.Debug("showing book", "isbn", f.ISBN(), "fetch_id", f.ID())
	bv.current = f
	f.Mount(bv.ctx)
}

func (bv *bookView) unmount() {
	if bv.current != nil {
		bv.current.Unmount()
		bv.current = nil
	}
}

func (bv *bookView) render(s fetcher.State) {
	bv.text.SetText(Markup(view.Render(s, bv.assets)))
	bv.text.ScrollToBeginning()
}
