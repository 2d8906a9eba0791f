// Package scheduler runs the ledger's background loops:
//  1. automationLoop – resolves pending bets against the oracle every interval.
//  2. catalogLoop    – keeps the odds catalog cache warm.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/betledger/ledger/internal/domain"
)

// AutomationRunner is the batch resolution entry point.
type AutomationRunner interface {
	RunAutomation(ctx context.Context) (domain.AutomationReport, error)
}

// CatalogWarmer reloads the odds catalog into the cache.
type CatalogWarmer interface {
	Upcoming(ctx context.Context, house string) ([]domain.Event, error)
}

// Scheduler runs the background loops. Call Run(ctx) once from main();
// cancel the context to shut it down.
type Scheduler struct {
	automation      AutomationRunner
	automationEvery time.Duration
	catalog         CatalogWarmer
	catalogEvery    time.Duration
	logger          *slog.Logger
}

// New creates a Scheduler. A zero interval disables the matching loop.
func New(
	automation AutomationRunner,
	automationEvery time.Duration,
	catalog CatalogWarmer,
	catalogEvery time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		automation:      automation,
		automationEvery: automationEvery,
		catalog:         catalog,
		catalogEvery:    catalogEvery,
		logger:          logger,
	}
}

// Run starts the enabled loops and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	done := make(chan struct{}, 2)
	loops := 0

	if s.automation != nil && s.automationEvery > 0 {
		loops++
		go func() {
			s.loop(ctx, "automationLoop", s.automationEvery, s.runAutomation)
			done <- struct{}{}
		}()
	}
	if s.catalog != nil && s.catalogEvery > 0 {
		loops++
		go func() {
			s.loop(ctx, "catalogLoop", s.catalogEvery, s.warmCatalog)
			done <- struct{}{}
		}()
	}

	s.logger.Info("scheduler started",
		"automation_interval", s.automationEvery,
		"catalog_interval", s.catalogEvery,
	)
	for i := 0; i < loops; i++ {
		<-done
	}
	<-ctx.Done()
	return nil
}

// loop calls tick every interval until ctx is cancelled.
func (s *Scheduler) loop(ctx context.Context, name string, every time.Duration, tick func(context.Context)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(name + ": shutting down")
			return
		case <-ticker.C:
			s.safely(ctx, name, tick)
		}
	}
}

// safely runs one tick so a panic is logged and the loop keeps going.
func (s *Scheduler) safely(ctx context.Context, name string, tick func(context.Context)) {
	defer s.recoverAndLog(name)
	tick(ctx)
}

func (s *Scheduler) runAutomation(ctx context.Context) {
	if _, err := s.automation.RunAutomation(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("automationLoop: RunAutomation", "err", err)
	}
}

func (s *Scheduler) warmCatalog(ctx context.Context) {
	if _, err := s.catalog.Upcoming(ctx, ""); err != nil && ctx.Err() == nil {
		s.logger.Warn("catalogLoop: refresh failed", "err", err)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred around each tick to catch unexpected panics,
// log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
