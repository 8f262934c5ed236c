package fetcher

import "context"

// Scheduler is the host's single-threaded task queue. Completions of a
// fetch are handed to Schedule and must run on the same thread that renders.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function, e.g. tview's Application.QueueUpdateDraw.
type SchedulerFunc func(task func())

func (f SchedulerFunc) Schedule(task func()) { f(task) }

// Loop is a Scheduler whose tasks run one at a time on the goroutine that
// calls Run or RunNext.
type Loop struct {
	tasks chan func()
}

func NewLoop() *Loop {
	return &Loop{tasks: make(chan func(), 64)}
}

func (l *Loop) Schedule(task func()) {
	l.tasks <- task
}

// RunNext blocks until one task is available and runs it.
func (l *Loop) RunNext(ctx context.Context) error {
	select {
	case task := <-l.tasks:
		task()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := l.RunNext(ctx); err != nil {
			return err
		}
	}
}
