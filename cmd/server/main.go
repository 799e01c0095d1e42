package main

import (
	"fmt"
	"log"
	"net/http"

	"opsdesk/internal/api"
	"opsdesk/internal/api/handlers"
	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/clients"
	"opsdesk/internal/engine/emails"
	"opsdesk/internal/engine/identity"
	"opsdesk/internal/engine/invoices"
	"opsdesk/internal/engine/notifications"
	"opsdesk/internal/engine/payments"
	"opsdesk/internal/engine/projects"
	"opsdesk/internal/engine/quotes"
	"opsdesk/internal/engine/stats"
	"opsdesk/internal/engine/tasks"
	"opsdesk/internal/pkg/logger"
	"opsdesk/internal/platform/audit"
	"opsdesk/internal/platform/auth"
	"opsdesk/internal/platform/config"
	"opsdesk/internal/platform/database"
	"opsdesk/internal/platform/repositories"
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

	// Platform
	orgRepo := repositories.NewOrganizationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	auditLogger := audit.NewLogger(db)
	tokenSvc := auth.NewTokenService(cfg.JWT)

	// Engine repositories
	clientRepo := clients.NewRepository(db)
	projectRepo := projects.NewRepository(db)
	quoteRepo := quotes.NewRepository(db)
	invoiceRepo := invoices.NewRepository(db)
	paymentRepo := payments.NewRepository(db)
	taskRepo := tasks.NewRepository(db)
	notificationRepo := notifications.NewRepository(db)
	emailRepo := emails.NewRepository(db)
	statsRepo := stats.NewRepository(db)

	// Engine services
	clientSvc := clients.NewService(clientRepo, orgRepo)
	projectSvc := projects.NewService(projectRepo, clientRepo)
	quoteSvc := quotes.NewService(quoteRepo, clientRepo, orgRepo)
	invoiceSvc := invoices.NewService(invoiceRepo, clientRepo)
	paymentSvc := payments.NewService(paymentRepo, invoiceRepo)
	taskSvc := tasks.NewService(taskRepo, clientRepo)
	notificationSvc := notifications.NewService(notificationRepo)
	emailSvc := emails.NewService(emailRepo, clientRepo)
	statsSvc := stats.NewService(statsRepo, orgRepo)
	identitySvc := identity.NewService(orgRepo, userRepo, membershipRepo)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	scopeMiddleware := middleware.NewScopeMiddleware(orgRepo, membershipRepo)

	// Router
	deps := &api.Dependencies{
		HealthHandler:       handlers.NewHealthHandler(db),
		OrgHandler:          handlers.NewOrgHandler(orgRepo, membershipRepo, auditLogger),
		ClientHandler:       handlers.NewClientHandler(clientSvc, auditLogger),
		ProjectHandler:      handlers.NewProjectHandler(projectSvc, auditLogger),
		QuoteHandler:        handlers.NewQuoteHandler(quoteSvc, auditLogger),
		InvoiceHandler:      handlers.NewInvoiceHandler(invoiceSvc, auditLogger),
		PaymentHandler:      handlers.NewPaymentHandler(paymentSvc, auditLogger, cfg.Domains.PayDomain),
		TaskHandler:         handlers.NewTaskHandler(taskSvc, auditLogger),
		NotificationHandler: handlers.NewNotificationHandler(notificationSvc),
		EmailHandler:        handlers.NewEmailHandler(emailSvc, auditLogger),
		StatsHandler:        handlers.NewStatsHandler(statsSvc),
		WebhookHandler:      handlers.NewWebhookHandler(identitySvc, cfg.Webhooks.IdentitySecret),
		AuditHandler:        handlers.NewAuditHandler(auditLogger),
		AuthMiddleware:      authMiddleware,
		ScopeMiddleware:     scopeMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
