package jobs

import (
	"context"
	"log"
	"time"

	"github.com/jordanlanch/dealboard/pkg/analytics"
	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/robfig/cron/v3"
)

// DealLoader is the slice of the store the refresh job writes to. Wholesale
// reloads bypass the pipeline on purpose: they sync from the backend rather
// than mutate individual deals.
type DealLoader interface {
	Load(deals []*models.Deal)
}

// CronManager manages scheduled jobs: periodic deal-set refresh from the
// backend and analytics snapshot cache warming.
type CronManager struct {
	cron      *cron.Cron
	backend   domain.DealBackend
	loader    DealLoader
	analytics *analytics.Service
	logger    *log.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(backend domain.DealBackend, loader DealLoader, analyticsService *analytics.Service, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}
	return &CronManager{
		cron:      cron.New(),
		backend:   backend,
		loader:    loader,
		analytics: analyticsService,
		logger:    logger,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs(refreshSpec, warmSpec string) error {
	cm.logger.Println("Setting up cron jobs...")

	_, err := cm.cron.AddFunc(refreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		deals, err := cm.backend.ListDeals(ctx)
		if err != nil {
			cm.logger.Printf("❌ Deal refresh failed: %v", err)
			return
		}
		cm.loader.Load(deals)
		cm.logger.Printf("✅ Deal refresh completed (%d deals)", len(deals))
	})
	if err != nil {
		return err
	}

	_, err = cm.cron.AddFunc(warmSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		cm.analytics.Warm(ctx)
		cm.logger.Println("✅ Analytics cache warm completed")
	})
	if err != nil {
		return err
	}

	return nil
}

// Start begins running scheduled jobs
func (cm *CronManager) Start() {
	cm.cron.Start()
	cm.logger.Println("Cron jobs started")
}

// Stop halts scheduled jobs, waiting for running ones to finish
func (cm *CronManager) Stop() {
	ctx := cm.cron.Stop()
	<-ctx.Done()
	cm.logger.Println("Cron jobs stopped")
}
