package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"SOULKNOT_BACK-END/internal/handlers"
	"SOULKNOT_BACK-END/internal/middleware"
)

// Handlers groups every handler the router mounts
type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Users     *handlers.UsersHandler
	Biodata   *handlers.BiodataHandler
	Favorites *handlers.FavoritesHandler
	Premium   *handlers.PremiumHandler
	Payments  *handlers.PaymentsHandler
	Stories   *handlers.StoriesHandler
	Admin     *handlers.AdminHandler
}

// SetupRoutes configures all application routes on a new mux
func SetupRoutes(h Handlers, gate *middleware.Gate) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check routes
	mux.HandleFunc("GET /healthz", h.Health.HealthCheck)
	mux.HandleFunc("GET /livez", h.Health.LivenessCheck)
	mux.HandleFunc("GET /readyz", h.Health.ReadinessCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Identity and users
	mux.HandleFunc("POST /jwt", h.Auth.IssueToken)
	mux.HandleFunc("POST /users", h.Users.Create)
	mux.HandleFunc("GET /users", gate.Admin(h.Users.List))
	mux.HandleFunc("GET /users/admin/{email}", gate.SelfOnly("email", h.Users.AdminProbe))
	mux.HandleFunc("PUT /users/role/{id}", gate.Admin(h.Users.UpdateRole))

	// Biodata
	mux.HandleFunc("GET /biodata", h.Biodata.List)
	mux.HandleFunc("GET /biodata/{id}", gate.Authenticate(h.Biodata.Get))
	mux.HandleFunc("GET /biodata/email/{email}", gate.Authenticate(h.Biodata.GetByEmail))
	mux.HandleFunc("POST /biodata", gate.Authenticate(h.Biodata.Create))
	mux.HandleFunc("PATCH /biodata/{id}", gate.Authenticate(h.Biodata.Update))

	// Favorites
	mux.HandleFunc("POST /favorites", gate.Authenticate(h.Favorites.Create))
	mux.HandleFunc("GET /favorites/{userEmail}", gate.Authenticate(h.Favorites.ListByUser))
	mux.HandleFunc("DELETE /favorites/{id}", gate.Authenticate(h.Favorites.Delete))

	// Premium workflow
	mux.HandleFunc("POST /premium/request", gate.Authenticate(h.Premium.Request))
	mux.HandleFunc("GET /premium/request", gate.Admin(h.Premium.List))
	mux.HandleFunc("GET /premium/request/{id}", gate.Authenticate(h.Premium.Get))
	mux.HandleFunc("PUT /premium/request/{id}", gate.Admin(h.Premium.UpdateStatus))
	mux.HandleFunc("PUT /admin/approve-premium/{id}", gate.Admin(h.Premium.Approve))
	mux.HandleFunc("GET /admin/stats", gate.Admin(h.Admin.Stats))

	// Payments
	mux.HandleFunc("POST /create-payment-intent", h.Payments.CreateIntent)
	mux.HandleFunc("POST /payments", gate.Authenticate(h.Payments.Create))
	mux.HandleFunc("GET /payments", gate.Admin(h.Payments.List))
	mux.HandleFunc("PATCH /payments/{id}", gate.Admin(h.Payments.UpdateStatus))
	mux.HandleFunc("DELETE /payments/{id}", gate.Authenticate(h.Payments.Delete))
	mux.HandleFunc("DELETE /delete-payment/{id}", gate.Authenticate(h.Payments.Delete))
	mux.HandleFunc("GET /check-payment-status", gate.Authenticate(h.Payments.CheckStatus))
	mux.HandleFunc("GET /my-contact-requests", gate.Authenticate(h.Payments.Mine))

	// Success stories
	mux.HandleFunc("GET /success-stories", h.Stories.List)
	mux.HandleFunc("GET /stories", h.Stories.List)
	mux.HandleFunc("POST /success-stories", gate.Authenticate(h.Stories.Create))
	mux.HandleFunc("PATCH /success-stories/{id}", gate.Authenticate(h.Stories.Update))

	// Root route
	mux.HandleFunc("GET /{$}", h.Health.Root)

	return mux
}
