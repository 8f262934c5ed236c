package fetcher

import "context"

// Once mounts a fetcher for isbn on its own Loop and runs the loop until the
// state settles or ctx is done. onChange, if not nil, sees every transition.
func Once(ctx context.Context, isbn string, client BookClient, onChange func(State), opts ...Option) (State, error) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append(opts, WithOnChange(func(s State) {
		if onChange != nil {
			onChange(s)
		}
		if s.Settled() {
			cancel()
		}
	}))

	f, err := New(isbn, client, loop, opts...)
	if err != nil {
		return State{}, err
	}

	// The loop stops once the state settles, since onChange cancels ctx.
	f.Mount(ctx)
	if err := loop.Run(ctx); err != nil && !f.State().Settled() {
		f.Unmount()
		return f.State(), err
	}

	return f.State(), nil
}
