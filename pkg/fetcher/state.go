package fetcher

import "github.com/gouthamve/bookfetch/pkg/models"

// Phase is the active variant of a State.
type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the local state of a BookFetcher. Book is set only when Loaded,
// Err only when Failed.
type State struct {
	Phase Phase
	Book  *models.Book
	Err   *FetchError
}

func IdleState() State { return State{Phase: Idle} }

func LoadingState() State { return State{Phase: Loading} }

func LoadedState(book models.Book) State {
	return State{Phase: Loaded, Book: &book}
}

func FailedState(err *FetchError) State {
	return State{Phase: Failed, Err: err}
}

// Settled reports whether the state is terminal.
func (s State) Settled() bool {
	return s.Phase == Loaded || s.Phase == Failed
}

// canMoveTo enforces Idle -> Loading -> {Loaded | Failed}.
func (p Phase) canMoveTo(next Phase) bool {
	switch p {
	case Idle:
		return next == Loading
	case Loading:
		return next == Loaded || next == Failed
	default:
		return false
	}
}
