package health

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusWarning   Status = "warning"
	StatusUnhealthy Status = "unhealthy"
)

const reportKey = "health:report"

// Check probes one dependency. A failing Critical check makes the whole
// service unhealthy; a failing optional one only degrades it to warning.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

type CheckResult struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

type Summary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Warning   int `json:"warning"`
	Unhealthy int `json:"unhealthy"`
}

type Report struct {
	Status    Status        `json:"status"`
	Checks    []CheckResult `json:"checks"`
	Summary   Summary       `json:"summary"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// Checker runs all checks in parallel and keeps the last report in cache for ttl.
type Checker struct {
	checks  []Check
	cache   *ResultCache
	ttl     time.Duration
	timeout time.Duration
	log     *zerolog.Logger
}

func NewChecker(cache *ResultCache, ttl, timeout time.Duration, logger *zerolog.Logger, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	l := logger.With().Str("component", "HealthChecker").Logger()
	return &Checker{checks: checks, cache: cache, ttl: ttl, timeout: timeout, log: &l}
}

// Report returns the cached report when it is still fresh, otherwise runs the checks.
func (c *Checker) Report(ctx context.Context) *Report {
	if v, ok := c.cache.Get(reportKey); ok {
		if r, ok := v.(*Report); ok {
			return r
		}
	}
	return c.Refresh(ctx)
}

// Refresh runs every check now and replaces the cached report.
func (c *Checker) Refresh(ctx context.Context) *Report {
	results := make([]CheckResult, len(c.checks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chk := range c.checks {
		g.Go(func() error {
			results[i] = c.run(gctx, chk)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Status: StatusHealthy, Checks: results, CheckedAt: time.Now().UTC()}
	report.Summary.Total = len(results)
	for _, r := range results {
		switch r.Status {
		case StatusHealthy:
			report.Summary.Healthy++
			metrics.SetHealthCheck(r.Name, 1)
		case StatusWarning:
			report.Summary.Warning++
			metrics.SetHealthCheck(r.Name, 0.5)
			if report.Status == StatusHealthy {
				report.Status = StatusWarning
			}
		default:
			report.Summary.Unhealthy++
			metrics.SetHealthCheck(r.Name, 0)
			report.Status = StatusUnhealthy
		}
	}

	if report.Status != StatusHealthy {
		c.log.Warn().Str("status", string(report.Status)).Int("failing", report.Summary.Warning+report.Summary.Unhealthy).Msg("health degraded")
	}
	c.cache.Set(reportKey, report, c.ttl)
	return report
}

func (c *Checker) run(ctx context.Context, chk Check) (res CheckResult) {
	res = CheckResult{Name: chk.Name, Status: StatusHealthy}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Status = failedStatus(chk)
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.LatencyMs = time.Since(start).Milliseconds()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := chk.Probe(ctx); err != nil {
		res.Status = failedStatus(chk)
		res.Error = err.Error()
	}
	return res
}

func failedStatus(chk Check) Status {
	if chk.Critical {
		return StatusUnhealthy
	}
	return StatusWarning
}
