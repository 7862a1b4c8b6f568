package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/darila/internal/metrics"
	"github.com/erazemk/darila/internal/model"
	"github.com/erazemk/darila/internal/reservation"
	"github.com/erazemk/darila/internal/visits"
)

// Deps are the values the API handlers share.
type Deps struct {
	DB          *sql.DB
	JWTSecret   string
	Coordinator *reservation.Coordinator
	Visits      *visits.Counter
	Metrics     *metrics.Metrics

	// ExposeMetrics registers GET /metrics.
	ExposeMetrics bool

	MaxUpload    int64
	ClaimsPerMin int
	ClaimBurst   int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Coordinator: d.Coordinator, MaxUpload: d.MaxUpload}
	handoverHandler := &HandoverHandler{Coordinator: d.Coordinator}
	statsHandler := &StatsHandler{Visits: d.Visits}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	limitClaims := newClaimLimiter(d.ClaimsPerMin, d.ClaimBurst).middleware

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: ownership is checked by the coordinator.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("PUT /api/items/{id}/visibility", authMW(http.HandlerFunc(itemsHandler.SetVisibility)))
	mux.Handle("PUT /api/items/{id}/screenshot", authMW(http.HandlerFunc(itemsHandler.UploadScreenshot)))
	mux.Handle("GET /api/items/{id}/screenshot", authMW(http.HandlerFunc(itemsHandler.GetScreenshot)))
	mux.Handle("GET /api/items/{id}/history", authMW(http.HandlerFunc(itemsHandler.History)))

	// Claims and handover.
	mux.Handle("POST /api/items/{id}/claim", authMW(limitClaims(http.HandlerFunc(handoverHandler.Claim))))
	mux.Handle("POST /api/items/{id}/approve", authMW(http.HandlerFunc(handoverHandler.Approve)))
	mux.Handle("POST /api/items/{id}/confirm/donor", authMW(http.HandlerFunc(handoverHandler.ConfirmDonor)))
	mux.Handle("POST /api/items/{id}/confirm/receiver", authMW(http.HandlerFunc(handoverHandler.ConfirmReceiver)))
	mux.Handle("POST /api/items/{id}/finalize", authMW(http.HandlerFunc(handoverHandler.Finalize)))
	mux.Handle("PUT /api/items/{id}/status", authMW(requireAdmin(http.HandlerFunc(handoverHandler.SetStatus))))

	// Stats (admin only).
	mux.Handle("GET /api/stats", authMW(requireAdmin(http.HandlerFunc(statsHandler.Get))))
	mux.Handle("DELETE /api/stats", authMW(requireAdmin(http.HandlerFunc(statsHandler.Reset))))

	if d.ExposeMetrics {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	return LoggingMiddleware(d.Metrics, d.Visits)(mux)
}
