package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "opsdesk/internal/api/context"
	"opsdesk/internal/api/handlers"
	"opsdesk/internal/api/middleware"
	"opsdesk/internal/pkg/errors"
)

type Dependencies struct {
	HealthHandler       *handlers.HealthHandler
	OrgHandler          *handlers.OrgHandler
	ClientHandler       *handlers.ClientHandler
	ProjectHandler      *handlers.ProjectHandler
	QuoteHandler        *handlers.QuoteHandler
	InvoiceHandler      *handlers.InvoiceHandler
	PaymentHandler      *handlers.PaymentHandler
	TaskHandler         *handlers.TaskHandler
	NotificationHandler *handlers.NotificationHandler
	EmailHandler        *handlers.EmailHandler
	StatsHandler        *handlers.StatsHandler
	WebhookHandler      *handlers.WebhookHandler
	AuditHandler        *handlers.AuditHandler
	AuthMiddleware      *middleware.AuthMiddleware
	ScopeMiddleware     *middleware.ScopeMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	scopeMid := deps.ScopeMiddleware
	readLimit := middleware.RateLimit("api_read")
	writeLimit := middleware.RateLimit("api_write")
	publicLimit := middleware.RateLimit("public")

	// Health
	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Public payment surface: the token is the credential
	router.GET("/pay/:token", chain(deps.PaymentHandler.PublicGet, publicLimit))
	router.POST("/pay/:token/complete", chain(deps.PaymentHandler.PublicComplete, publicLimit))
	router.GET("/pay/:token/qr", chain(deps.PaymentHandler.PublicQRCode, publicLimit))

	// Identity provider webhooks, HMAC-verified in the handler
	router.POST("/api/v1/webhooks/identity", chain(deps.WebhookHandler.HandleIdentityEvent, publicLimit))

	// Organization
	router.GET("/api/v1/organizations/current",
		chain(deps.OrgHandler.GetCurrent, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/organizations/current",
		chain(deps.OrgHandler.Update, authMid.Handle, scopeMid.Handle, requireRole("admin"), writeLimit))
	router.DELETE("/api/v1/organizations/current",
		chain(deps.OrgHandler.Delete, authMid.Handle, scopeMid.Handle, requireRole("admin"), writeLimit))
	router.GET("/api/v1/organizations/current/members",
		chain(deps.OrgHandler.ListMembers, authMid.Handle, scopeMid.Handle, readLimit))

	// Clients
	router.POST("/api/v1/clients",
		chain(deps.ClientHandler.Create, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/clients",
		chain(deps.ClientHandler.List, authMid.Handle, scopeMid.Handle, readLimit))
	router.GET("/api/v1/clients/:client_id",
		chain(deps.ClientHandler.Get, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/clients/:client_id",
		chain(deps.ClientHandler.Update, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/clients/:client_id",
		chain(deps.ClientHandler.Delete, authMid.Handle, scopeMid.Handle, writeLimit))

	// Contacts
	router.POST("/api/v1/clients/:client_id/contacts",
		chain(deps.ClientHandler.CreateContact, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/clients/:client_id/contacts/bulk",
		chain(deps.ClientHandler.BulkCreateContacts, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/clients/:client_id/contacts",
		chain(deps.ClientHandler.ListContacts, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/contacts/:contact_id",
		chain(deps.ClientHandler.UpdateContact, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/contacts/:contact_id",
		chain(deps.ClientHandler.DeleteContact, authMid.Handle, scopeMid.Handle, writeLimit))

	// Properties
	router.POST("/api/v1/clients/:client_id/properties",
		chain(deps.ClientHandler.CreateProperty, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/clients/:client_id/properties/bulk",
		chain(deps.ClientHandler.BulkCreateProperties, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/clients/:client_id/properties",
		chain(deps.ClientHandler.ListProperties, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/properties/:property_id",
		chain(deps.ClientHandler.UpdateProperty, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/properties/:property_id",
		chain(deps.ClientHandler.DeleteProperty, authMid.Handle, scopeMid.Handle, writeLimit))

	// Projects
	router.POST("/api/v1/projects",
		chain(deps.ProjectHandler.Create, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/projects",
		chain(deps.ProjectHandler.List, authMid.Handle, scopeMid.Handle, readLimit))
	router.GET("/api/v1/projects/:project_id",
		chain(deps.ProjectHandler.Get, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/projects/:project_id",
		chain(deps.ProjectHandler.Update, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/projects/:project_id/complete",
		chain(deps.ProjectHandler.Complete, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/projects/:project_id",
		chain(deps.ProjectHandler.Delete, authMid.Handle, scopeMid.Handle, writeLimit))

	// Quotes
	router.POST("/api/v1/quotes",
		chain(deps.QuoteHandler.Create, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/quotes",
		chain(deps.QuoteHandler.List, authMid.Handle, scopeMid.Handle, readLimit))
	router.GET("/api/v1/quotes/:quote_id",
		chain(deps.QuoteHandler.Get, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/quotes/:quote_id",
		chain(deps.QuoteHandler.Update, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/quotes/:quote_id/send",
		chain(deps.QuoteHandler.Send, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/quotes/:quote_id/approve",
		chain(deps.QuoteHandler.Approve, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/quotes/:quote_id/decline",
		chain(deps.QuoteHandler.Decline, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/quotes/:quote_id/expire",
		chain(deps.QuoteHandler.Expire, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/quotes/:quote_id",
		chain(deps.QuoteHandler.Delete, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/quotes/:quote_id/items",
		chain(deps.QuoteHandler.AddLineItem, authMid.Handle, scopeMid.Handle, writeLimit))
	router.PATCH("/api/v1/quotes/:quote_id/items/:item_id",
		chain(deps.QuoteHandler.UpdateLineItem, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/quotes/:quote_id/items/:item_id",
		chain(deps.QuoteHandler.RemoveLineItem, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/quotes/:quote_id/items/:item_id/duplicate",
		chain(deps.QuoteHandler.DuplicateLineItem, authMid.Handle, scopeMid.Handle, writeLimit))
	// PUT to dodge the httprouter wildcard conflict with :item_id routes
	router.PUT("/api/v1/quotes/:quote_id/items/reorder",
		chain(deps.QuoteHandler.ReorderLineItems, authMid.Handle, scopeMid.Handle, writeLimit))

	// Invoices
	router.POST("/api/v1/invoices",
		chain(deps.InvoiceHandler.Create, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/invoices",
		chain(deps.InvoiceHandler.List, authMid.Handle, scopeMid.Handle, readLimit))
	router.GET("/api/v1/invoices/:invoice_id",
		chain(deps.InvoiceHandler.Get, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/invoices/:invoice_id",
		chain(deps.InvoiceHandler.Update, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/invoices/:invoice_id/send",
		chain(deps.InvoiceHandler.Send, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/invoices/:invoice_id/cancel",
		chain(deps.InvoiceHandler.Cancel, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/invoices/:invoice_id",
		chain(deps.InvoiceHandler.Delete, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/invoices/:invoice_id/items",
		chain(deps.InvoiceHandler.AddLineItem, authMid.Handle, scopeMid.Handle, writeLimit))
	router.PATCH("/api/v1/invoices/:invoice_id/items/:item_id",
		chain(deps.InvoiceHandler.UpdateLineItem, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/invoices/:invoice_id/items/:item_id",
		chain(deps.InvoiceHandler.RemoveLineItem, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/invoices/:invoice_id/items/:item_id/duplicate",
		chain(deps.InvoiceHandler.DuplicateLineItem, authMid.Handle, scopeMid.Handle, writeLimit))
	router.PUT("/api/v1/invoices/:invoice_id/items/reorder",
		chain(deps.InvoiceHandler.ReorderLineItems, authMid.Handle, scopeMid.Handle, writeLimit))

	// Payments
	router.PUT("/api/v1/invoices/:invoice_id/payments",
		chain(deps.PaymentHandler.Configure, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/invoices/:invoice_id/payments",
		chain(deps.PaymentHandler.ListByInvoice, authMid.Handle, scopeMid.Handle, readLimit))
	router.GET("/api/v1/payments/:payment_id",
		chain(deps.PaymentHandler.Get, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/payments/:payment_id",
		chain(deps.PaymentHandler.Update, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/payments/:payment_id/send",
		chain(deps.PaymentHandler.MarkAsSent, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/payments/:payment_id/overdue",
		chain(deps.PaymentHandler.MarkAsOverdue, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/payments/:payment_id/cancel",
		chain(deps.PaymentHandler.Cancel, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/payments/:payment_id",
		chain(deps.PaymentHandler.Remove, authMid.Handle, scopeMid.Handle, writeLimit))

	// Tasks
	router.POST("/api/v1/tasks",
		chain(deps.TaskHandler.Create, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/tasks",
		chain(deps.TaskHandler.List, authMid.Handle, scopeMid.Handle, readLimit))
	router.GET("/api/v1/tasks/:task_id",
		chain(deps.TaskHandler.Get, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/tasks/:task_id",
		chain(deps.TaskHandler.Update, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/tasks/:task_id/complete",
		chain(deps.TaskHandler.Complete, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/tasks/:task_id",
		chain(deps.TaskHandler.Delete, authMid.Handle, scopeMid.Handle, writeLimit))

	// Notifications
	router.POST("/api/v1/notifications",
		chain(deps.NotificationHandler.Create, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/notifications",
		chain(deps.NotificationHandler.List, authMid.Handle, scopeMid.Handle, readLimit))
	router.POST("/api/v1/notifications/:notification_id/read",
		chain(deps.NotificationHandler.MarkRead, authMid.Handle, scopeMid.Handle, writeLimit))
	router.POST("/api/v1/notifications/:notification_id/unread",
		chain(deps.NotificationHandler.MarkUnread, authMid.Handle, scopeMid.Handle, writeLimit))
	router.PUT("/api/v1/notifications/read-all",
		chain(deps.NotificationHandler.MarkAllRead, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/notifications/:notification_id",
		chain(deps.NotificationHandler.Delete, authMid.Handle, scopeMid.Handle, writeLimit))

	// Email messages
	router.POST("/api/v1/emails",
		chain(deps.EmailHandler.Create, authMid.Handle, scopeMid.Handle, writeLimit))
	router.GET("/api/v1/emails",
		chain(deps.EmailHandler.List, authMid.Handle, scopeMid.Handle, readLimit))
	router.GET("/api/v1/threads",
		chain(deps.EmailHandler.ListThreads, authMid.Handle, scopeMid.Handle, readLimit))
	router.GET("/api/v1/emails/:message_id",
		chain(deps.EmailHandler.Get, authMid.Handle, scopeMid.Handle, readLimit))
	router.PATCH("/api/v1/emails/:message_id/status",
		chain(deps.EmailHandler.UpdateStatus, authMid.Handle, scopeMid.Handle, writeLimit))
	router.DELETE("/api/v1/emails/:message_id",
		chain(deps.EmailHandler.Delete, authMid.Handle, scopeMid.Handle, writeLimit))

	// Stats run in optional-scope mode: no scope means zeroed results
	router.GET("/api/v1/stats/home",
		chain(deps.StatsHandler.Home, authMid.HandleOptional, scopeMid.HandleOptional, readLimit))
	router.GET("/api/v1/stats/usage",
		chain(deps.StatsHandler.Usage, authMid.HandleOptional, scopeMid.HandleOptional, readLimit))
	router.GET("/api/v1/stats/journey",
		chain(deps.StatsHandler.Journey, authMid.HandleOptional, scopeMid.HandleOptional, readLimit))
	router.GET("/api/v1/stats/clients",
		chain(deps.StatsHandler.ClientsByDateRange, authMid.HandleOptional, scopeMid.HandleOptional, readLimit))
	router.GET("/api/v1/stats/projects",
		chain(deps.StatsHandler.ProjectsByDateRange, authMid.HandleOptional, scopeMid.HandleOptional, readLimit))
	router.GET("/api/v1/stats/invoices",
		chain(deps.StatsHandler.InvoicesByDateRange, authMid.HandleOptional, scopeMid.HandleOptional, readLimit))
	router.GET("/api/v1/stats/revenue",
		chain(deps.StatsHandler.RevenueByDateRange, authMid.HandleOptional, scopeMid.HandleOptional, readLimit))

	// Audit trail, admin only
	router.GET("/api/v1/audit",
		chain(deps.AuditHandler.List, authMid.Handle, scopeMid.Handle, requireRole("admin"), readLimit))

	return router
}

// chain applies middlewares right to left so the first listed runs first.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap converts http.HandlerFunc to httprouter.Handle, carrying the route
// params in the request context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			scope := middleware.ScopeFrom(r)
			if scope == nil {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No organization scope", nil)
				return
			}

			allowed := false
			for _, role := range roles {
				if scope.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
