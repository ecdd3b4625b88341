// Package health reports liveness and dependency readiness over HTTP and the
// standard gRPC health protocol.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"internship-service/internal/metrics"

	"golang.org/x/sync/errgroup"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency. Ping must honour ctx.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Result struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

type Report struct {
	Ready  bool              `json:"ready"`
	Checks map[string]Result `json:"checks"`
}

type Checker struct {
	checks  []Check
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewChecker(m *metrics.Metrics, logger *slog.Logger, checks ...Check) *Checker {
	return &Checker{
		checks:  checks,
		metrics: m,
		logger:  logger,
	}
}

// Run probes every dependency concurrently and records the outcome.
func (c *Checker) Run(ctx context.Context) Report {
	report := Report{Ready: true, Checks: make(map[string]Result, len(c.checks))}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, check := range c.checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			start := time.Now()
			err := check.Ping(checkCtx)
			elapsed := time.Since(start)
			c.metrics.Health.RecordDependencyCheck(ctx, check.Name, elapsed, err)

			result := Result{Status: "up", Latency: elapsed.Round(time.Millisecond).String()}
			if err != nil {
				result.Status = "down"
				result.Error = err.Error()
				c.logger.WarnContext(ctx, "dependency check failed", "dependency", check.Name, "error", err)
			}

			mu.Lock()
			report.Checks[check.Name] = result
			if err != nil {
				report.Ready = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return report
}

// Watch runs the checks every interval until ctx is done, calling onChange
// whenever readiness flips. The first run always calls onChange.
func (c *Checker) Watch(ctx context.Context, interval time.Duration, onChange func(ready bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	first := true
	ready := false
	for {
		report := c.Run(ctx)
		if first || report.Ready != ready {
			if !first {
				c.logger.InfoContext(ctx, "readiness changed", "ready", report.Ready)
			}
			ready = report.Ready
			first = false
			if onChange != nil {
				onChange(ready)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
