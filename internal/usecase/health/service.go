package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is down; search cannot work at all.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentJudge     = "judge"
)

// checkTimeout bounds each component check so a hung provider cannot stall /health.
const checkTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding ProviderChecker
	judge     ProviderChecker
}

// New creates a Service. embedding and judge can be nil.
func New(db DBPinger, embedding, judge ProviderChecker) *Service {
	return &Service{db: db, embedding: embedding, judge: judge}
}

// Check runs health checks against all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checkers := map[string]func(context.Context) error{
		ComponentDatabase: s.db.Ping,
	}
	if s.embedding != nil {
		checkers[ComponentEmbedding] = s.embedding.HealthCheck
	}
	if s.judge != nil {
		checkers[ComponentJudge] = s.judge.HealthCheck
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(checkers))
	)
	for name, check := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			res := CheckOK
			if err := check(pctx); err != nil {
				logger.FromContext(ctx).Warn("health check failed",
					zap.String("component", name), zap.Error(err))
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentDatabase] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
