package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/rolegate/app"
	"github.com/upb/rolegate/handlers"
	"github.com/upb/rolegate/middleware"
	"github.com/upb/rolegate/services/rolecheck"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	health := handlers.NewHealthHandler(deps.Readiness(), deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.MeterProvider != nil {
		r.Method(http.MethodGet, "/metrics", deps.MeterProvider.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		gate := deps.RoleCheck
		admin := gate.Require(rolecheck.Admin())
		adminOrOwner := gate.Require(rolecheck.AdminOrConsumerWithIDMatch())

		// Administrator accounts
		users := handlers.NewUserHandler(deps.UserService, deps.Logger)
		r.Route("/users", func(r chi.Router) {
			r.With(admin).Get("/", users.HandleListUsers)
			r.With(admin).Post("/", users.HandleCreateUser)
			r.With(admin).Get("/{login}", users.HandleGetUser)
			r.With(admin).Delete("/{login}", users.HandleDeleteUser)
		})

		// Consumer registrations; a consumer may read and update its own record
		consumers := handlers.NewConsumerHandler(deps.ConsumerService, deps.Logger)
		r.Route("/consumers", func(r chi.Router) {
			r.With(admin).Get("/", consumers.HandleListConsumers)
			r.With(admin).Post("/", consumers.HandleRegisterConsumer)
			r.With(adminOrOwner).Get("/{consumerID}", consumers.HandleGetConsumer)
			r.With(adminOrOwner).Put("/{consumerID}", consumers.HandleUpdateConsumer)
			r.With(admin).Delete("/{consumerID}", consumers.HandleDeleteConsumer)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
