package services

import (
	"context"
	"log"
	"time"

	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/config"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

// OverdueReport is published on the circulation topic by the daily scan
type OverdueReport struct {
	Count      int       `json:"count"`
	TotalFines int64     `json:"total_fines"`
	LoanIDs    []uint    `json:"loan_ids"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// CronService runs the scheduled jobs: the overdue scan and refresh token
// cleanup
type CronService struct {
	cron   *cron.Cron
	loans  *LoanService
	tokens repositories.RefreshTokenRepository
	hub    *EventHub
	cfg    config.CronConfig
}

// NewCronService creates the scheduler. Nothing runs before Start.
func NewCronService(loans *LoanService, tokens repositories.RefreshTokenRepository, hub *EventHub, cfg config.CronConfig) *CronService {
	return &CronService{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		loans:  loans,
		tokens: tokens,
		hub:    hub,
		cfg:    cfg,
	}
}

// Start registers the jobs and starts the scheduler. An empty schedule
// disables its job.
func (s *CronService) Start() error {
	if s.cfg.OverdueSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.OverdueSpec, s.runJob("overdue-scan", s.ScanOverdue)); err != nil {
			return err
		}
	}
	if s.cfg.TokenCleanupSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.TokenCleanupSpec, s.runJob("token-cleanup", s.CleanupTokens)); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Printf("🚀 Cron started: overdue=%q tokens=%q", s.cfg.OverdueSpec, s.cfg.TokenCleanupSpec)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Cron stopped")
}

func (s *CronService) runJob(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			log.Printf("❌ Cron %s failed: %v", name, err)
		}
	}
}

// ScanOverdue publishes the current overdue loans
func (s *CronService) ScanOverdue(ctx context.Context) error {
	rows, err := s.loans.ListOverdue(ctx)
	if err != nil {
		return err
	}

	report := OverdueReport{
		Count:     len(rows),
		LoanIDs:   make([]uint, 0, len(rows)),
		ScannedAt: s.loans.now(),
	}
	for _, row := range rows {
		report.LoanIDs = append(report.LoanIDs, row.ID)
		report.TotalFines += row.FineAmount
	}

	log.Printf("⏰ Overdue scan: %d loan(s), fines=%d", report.Count, report.TotalFines)
	if s.hub != nil {
		s.hub.Publish(HubEvent{Topic: TopicCirculation, Event: EventOverdueReport, Data: report})
	}
	return nil
}

// CleanupTokens deletes expired and revoked refresh tokens
func (s *CronService) CleanupTokens(ctx context.Context) error {
	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("🧹 Removed %d expired refresh token(s)", n)
	}
	return nil
}
