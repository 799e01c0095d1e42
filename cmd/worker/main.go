package main

import (
	"log"
	"time"

	"opsdesk/internal/engine/invoices"
	"opsdesk/internal/engine/payments"
	"opsdesk/internal/platform/config"
	"opsdesk/internal/platform/database"
	"opsdesk/internal/platform/repositories"
	"opsdesk/internal/pkg/logger"
	"opsdesk/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	invoiceRepo := invoices.NewRepository(db)
	paymentRepo := payments.NewRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)

	sweepInterval := cfg.Worker.OverdueSweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	resetInterval := cfg.Worker.UsageResetInterval
	if resetInterval <= 0 {
		resetInterval = 6 * time.Hour
	}

	go runOverdueSweep(sweepInterval, invoiceRepo, paymentRepo)
	go runUsageReset(resetInterval, orgRepo)

	log.Println("Background workers started")

	// Keep process alive
	select {}
}

func runOverdueSweep(interval time.Duration, invoiceRepo *invoices.Repository, paymentRepo *payments.Repository) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	workers.SweepOverdue(invoiceRepo, paymentRepo)
	for range ticker.C {
		workers.SweepOverdue(invoiceRepo, paymentRepo)
	}
}

func runUsageReset(interval time.Duration, orgRepo *repositories.OrganizationRepository) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	workers.ResetMonthlyUsage(orgRepo)
	for range ticker.C {
		workers.ResetMonthlyUsage(orgRepo)
	}
}
