package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork means the request could not be sent or no response arrived.
	ErrNetwork = errors.New("network error")
	// ErrServer means the server answered with a non-2xx status.
	ErrServer = errors.New("server error")
	// ErrParse means the body was not JSON or had no "book" field.
	ErrParse = errors.New("parse error")
	// ErrNotFound means the server answered but knows no book for the ISBN.
	ErrNotFound = errors.New("book not found")

	ErrEmptyISBN = errors.New("ISBN is required")
)

// FetchError is the reason stored in a Failed state. errors.Is matches it
// against its kind (ErrNetwork, ErrServer, ErrParse or ErrNotFound) as well
// as the underlying cause.
type FetchError struct {
	Kind       error
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%v: status %d: %v", e.Kind, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func networkError(err error) *FetchError {
	return &FetchError{Kind: ErrNetwork, Err: err}
}

func serverError(status int, err error) *FetchError {
	return &FetchError{Kind: ErrServer, StatusCode: status, Err: err}
}

func parseError(err error) *FetchError {
	return &FetchError{Kind: ErrParse, Err: err}
}

// asFetchError classifies any error returned by a BookClient. Errors that
// are not already a *FetchError count as network errors.
func asFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, ErrNotFound) {
		return &FetchError{Kind: ErrNotFound}
	}
	return networkError(err)
}
