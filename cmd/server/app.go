package main

import (
	"net/http"
	"time"

	"github.com/diewo77/go-billing/auth"
	"github.com/diewo77/go-billing/internal/config"
	"github.com/diewo77/go-billing/internal/events"
	"github.com/diewo77/go-billing/internal/handlers"
	"github.com/diewo77/go-billing/internal/logger"
	"github.com/diewo77/go-billing/internal/notify"
	"github.com/diewo77/go-billing/internal/policy"
	"github.com/diewo77/go-billing/internal/services"
	"github.com/diewo77/go-billing/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps are the collaborators the application is assembled from.
type Deps struct {
	DB       *gorm.DB
	Auth     config.AuthConfig
	Notifier services.Notifier
	Events   services.EventPublisher
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// App is the main application handler that sets up all routes.
type App struct {
	mux  *http.ServeMux
	db   *gorm.DB
	auth *auth.Middleware

	authHandler      *handlers.AuthHandler
	quotationHandler *handlers.QuotationHandler
	invoiceHandler   *handlers.InvoiceHandler
	clientHandler    *handlers.ClientHandler
}

// NewApp wires stores, services, the ownership guard and handlers.
func NewApp(d Deps) *App {
	if d.Notifier == nil {
		d.Notifier = notify.Discard{}
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}

	users := store.NewUserStore(d.DB)
	clients := store.NewClientStore(d.DB)
	quotations := store.NewQuotationStore(d.DB)
	invoices := store.NewInvoiceStore(d.DB)

	opts := []services.Option{
		services.WithClock(d.Clock),
		services.WithNotifier(d.Notifier),
		services.WithEvents(d.Events),
	}
	guard := policy.NewGuard(auth.ContextProvider{}, policy.Backend{
		Quotations:       quotations,
		Invoices:         invoices,
		Clients:          clients,
		QuotationService: services.NewQuotationService(quotations, clients, opts...),
		InvoiceService:   services.NewInvoiceService(quotations, invoices, opts...),
		QueryService:     services.NewQueryService(quotations, invoices),
	})

	sessions := auth.NewSessions(d.Auth.SessionSecret)
	tokens := auth.NewTokens(d.Auth.TokenSecret(), d.Auth.TokenTTL)

	app := &App{
		mux:              http.NewServeMux(),
		db:               d.DB,
		auth:             auth.NewMiddleware(sessions, tokens, users),
		authHandler:      handlers.NewAuthHandler(users, sessions, tokens),
		quotationHandler: handlers.NewQuotationHandler(guard),
		invoiceHandler:   handlers.NewInvoiceHandler(guard),
		clientHandler:    handlers.NewClientHandler(guard),
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.auth.Handler(withUserLog(a.mux)).ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// Public
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	ah := a.authHandler
	a.mux.HandleFunc("POST /api/auth/signup", ah.Signup)
	a.mux.HandleFunc("POST /api/auth/login", ah.Login)
	a.mux.HandleFunc("POST /api/auth/logout", ah.Logout)

	// Authenticated. Ownership is enforced by the guard behind each handler.
	qh := a.quotationHandler
	a.api("POST /api/quotations", qh.Create)
	a.api("GET /api/quotations", qh.List)
	a.api("GET /api/quotations/accepted", qh.Accepted)
	a.api("GET /api/quotations/{id}", qh.View)
	a.api("PATCH /api/quotations/{id}/status", qh.UpdateStatus)
	a.api("GET /api/quotations/{id}/pdf", qh.PDF)
	a.api("POST /api/quotations/{id}/invoice", qh.Convert)

	ih := a.invoiceHandler
	a.api("GET /api/invoices", ih.List)
	a.api("GET /api/invoices/overdue", ih.Overdue)
	a.api("GET /api/invoices/export.xlsx", ih.Register)
	a.api("GET /api/invoices/{id}", ih.View)
	a.api("PATCH /api/invoices/{id}/status", ih.UpdateStatus)
	a.api("POST /api/invoices/{id}/send", ih.Send)
	a.api("GET /api/invoices/{id}/pdf", ih.PDF)

	ch := a.clientHandler
	a.api("GET /api/clients", ch.List)
	a.api("POST /api/clients", ch.Create)
}

func (a *App) api(pattern string, h http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(h))
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withUserLog tags log records of authenticated requests with the user id.
func withUserLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := auth.IdentityFromContext(r.Context()); ok {
			r = r.WithContext(logger.WithUserID(r.Context(), id.ID))
		}
		next.ServeHTTP(w, r)
	})
}
