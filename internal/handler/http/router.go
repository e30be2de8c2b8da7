package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalomar/CitasGo/internal/auth"
	"github.com/jpalomar/CitasGo/internal/domain"
	"github.com/jpalomar/CitasGo/internal/repository"
	"github.com/jpalomar/CitasGo/internal/service"
	"github.com/jpalomar/CitasGo/pkg/health"
	"github.com/jpalomar/CitasGo/pkg/httputil"
	"github.com/jpalomar/CitasGo/pkg/middleware"
)

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	userService *service.UserService,
	scheduleService *service.ScheduleService,
	appointmentService *service.AppointmentService,
	notifRepo repository.NotificationRepository,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("citas"))
	r.Use(middleware.Tracing("citas"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Auth endpoints (public)
	authHandler := NewAuthHandler(userService, logger)
	r.Route("/auth", func(r chi.Router) {
		r.With(ContentTypeJSON).Post("/register", authHandler.Register)
		r.With(ContentTypeJSON).Post("/login", authHandler.Login)
		r.With(ContentTypeJSON).Post("/refresh", authHandler.Refresh)
		r.Get("/verify-email/{uid}/{token}", authHandler.VerifyEmail)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:        claims.UserID,
			Email:         claims.Email,
			Role:          claims.Role,
			FullName:      claims.FullName,
			EmailVerified: claims.EmailVerified,
		}, nil
	}

	// Availability slots (auth required)
	scheduleHandler := NewScheduleHandler(scheduleService, logger)
	r.Route("/agenda/horarios", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", scheduleHandler.List)
		r.With(ContentTypeJSON, middleware.RequireRole(domain.RoleSpecialist, domain.RoleAdmin)).
			Post("/", scheduleHandler.Create)
		r.With(middleware.RequireRole(domain.RoleSpecialist, domain.RoleAdmin)).
			Delete("/{id}", scheduleHandler.Delete)
	})

	// Appointments (auth required)
	appointmentHandler := NewAppointmentHandler(appointmentService, logger)
	r.Route("/citas/citas", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", appointmentHandler.List)
		r.With(ContentTypeJSON, middleware.RequireRole(domain.RoleStudent)).
			Post("/", appointmentHandler.Book)

		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequireRole(domain.RoleStudent)).
				Post("/cancelar", appointmentHandler.Cancel)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleSpecialist, domain.RoleAdmin))

				r.Post("/confirmar", appointmentHandler.Confirm)
				r.Post("/rechazar", appointmentHandler.Reject)
				r.Post("/completar", appointmentHandler.Complete)
			})
		})
	})

	// Notifications (auth required)
	notificationHandler := NewNotificationHandler(notifRepo, logger)
	r.Route("/notificaciones", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", notificationHandler.List)
		r.Post("/{id}/leer", notificationHandler.MarkRead)
	})

	return r
}

// ContentTypeJSON rejects mutating requests whose body is not declared JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(ct, "application/json") {
			httputil.WriteDetail(w, http.StatusUnsupportedMediaType,
				"El tipo de contenido debe ser application/json.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
