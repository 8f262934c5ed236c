package cron

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cronDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "cron_duration_seconds",
	Help: "Duration of cron jobs",
}, []string{"job", "status"})

type Job interface {
	Name() string
	Period() time.Duration
	Run(ctx context.Context) error
}

type CronRunner struct {
	Jobs []Job

	wg sync.WaitGroup
}

func NewCronRunner(jobs []Job) *CronRunner {
	return &CronRunner{Jobs: jobs}
}

// Run starts every job on its own goroutine. Each job runs immediately and
// then once per period until ctx is done.
func (c *CronRunner) Run(ctx context.Context) {
	for _, job := range c.Jobs {
		c.wg.Add(1)
		go func(j Job) {
			defer c.wg.Done()

			ticker := time.NewTicker(j.Period())
			defer ticker.Stop()

			for {
				runOnce(ctx, j)

				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}(job)
	}
}

// Wait blocks until every job goroutine has returned.
func (c *CronRunner) Wait() {
	c.wg.Wait()
}

func runOnce(ctx context.Context, j Job) {
	start := time.Now()
	err := j.Run(ctx)
	status := "success"
	if err != nil {
		status = "failure"
		log.Errorf("Job %s failed: %v", j.Name(), err)
	}
	cronDuration.WithLabelValues(j.Name(), status).Observe(time.Since(start).Seconds())
}

// FuncJob adapts a function to a Job.
type FuncJob struct {
	name   string
	period time.Duration
	fn     func(ctx context.Context) error
}

func NewFuncJob(name string, period time.Duration, fn func(ctx context.Context) error) *FuncJob {
	return &FuncJob{name: name, period: period, fn: fn}
}

func (f *FuncJob) Name() string                  { return f.name }
func (f *FuncJob) Period() time.Duration         { return f.period }
func (f *FuncJob) Run(ctx context.Context) error { return f.fn(ctx) }
