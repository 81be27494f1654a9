package httpapi

import (
	"net/http"
	"time"

	"acty-backend-go/internal/config"
	"acty-backend-go/internal/models"
	"acty-backend-go/internal/ratelimit"
	"acty-backend-go/internal/services"
	"acty-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	Config     config.Config
	Store      store.Store
	Redis      *store.Redis
	Tokens     services.TokenService
	Identity   *services.IdentityService
	Activities *services.ActivityService
	QR         *services.QRService
	Scans      *services.ScanService
	Students   *services.StudentService
	Hub        *services.ScanHub
	Telemetry  *services.Telemetry
	Limiter    ratelimit.Limiter
	Registry   *prometheus.Registry

	metrics  *httpMetrics
	validate *validator.Validate
}

// NewServer wires the services over st. rdb may be nil, in which case scans
// are limited per process only.
func NewServer(cfg config.Config, st store.Store, rdb *store.Redis, hub *services.ScanHub, reg *prometheus.Registry) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	telemetry := services.NewTelemetry(reg)
	qr := &services.QRService{
		Store:      st,
		BaseURL:    cfg.PublicBaseURL,
		DefaultTTL: cfg.QRDefaultTTL,
		Telemetry:  telemetry,
	}
	s := &Server{
		Config:   cfg,
		Store:    st,
		Redis:    rdb,
		Tokens:   tokens,
		Identity: &services.IdentityService{Store: st, Tokens: tokens},
		Activities: &services.ActivityService{
			Store:     st,
			QR:        qr,
			Telemetry: telemetry,
			Grace:     cfg.ActivityGrace,
		},
		QR:    qr,
		Scans: &services.ScanService{Store: st, Hub: hub, Telemetry: telemetry},
		Students: &services.StudentService{
			Store: st,
			Defaults: services.Requirement{
				Central: cfg.DefaultCentralHours,
				Faculty: cfg.DefaultFacultyHours,
				Free:    cfg.DefaultFreeHours,
			},
		},
		Hub:       hub,
		Telemetry: telemetry,
		Registry:  reg,
		metrics:   newHTTPMetrics(reg),
		validate:  newValidator(),
	}
	if cfg.ScanRatePerMin > 0 {
		var limiter ratelimit.Limiter = ratelimit.NewTokenBucket(cfg.ScanRatePerMin, cfg.ScanRatePerMin)
		if rdb != nil {
			limiter = ratelimit.Fallback{
				Primary:   ratelimit.NewRedisWindow(rdb.Client, "acty:scan", cfg.ScanRatePerMin, time.Minute),
				Secondary: limiter,
			}
		}
		s.Limiter = limiter
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(s.metrics.Instrument)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", StudentCodeHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		if s.Config.AuthMode == config.AuthModeJWT {
			api.Post("/auth/login", s.Login)
			api.Post("/auth/refresh", s.Refresh)
		}

		api.Group(func(shared chi.Router) {
			shared.Use(s.authenticate(audienceAny))
			shared.Get("/me", s.Me)
			shared.Get("/requirements", s.ListRequirements)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(s.authenticate(audienceEmployee))
			admin.Use(RequireAnyRole(models.RoleAdmin))
			admin.Put("/requirements/{faculty}", s.UpsertRequirement)
		})

		api.Route("/emp", func(emp chi.Router) {
			emp.Use(s.authenticate(audienceEmployee))
			emp.Use(RequireAnyRole(models.RoleEmployee, models.RoleAdmin))

			emp.Route("/activities", func(activities chi.Router) {
				activities.Get("/", s.ListActivities)
				activities.Post("/", s.CreateActivity)
				activities.Get("/{activityId}", s.GetActivity)
				activities.Patch("/{activityId}", s.UpdateActivity)
				activities.Delete("/{activityId}", s.DeleteActivity)
				activities.Get("/{activityId}/qr-codes", s.ListActivityQRCodes)
				activities.Get("/{activityId}/qr-codes/sheet.png", s.QRSheet)
				activities.Get("/{activityId}/participants", s.ListParticipants)
				activities.Post("/{activityId}/participants", s.AddParticipant)
			})
			emp.Post("/qr-codes/generate", s.GenerateQRCodes)
			emp.Get("/qr-codes/{code}/image.png", s.QRImage)
			emp.Get("/history", s.RecentHistory)
			emp.Get("/students", s.ListStudents)
		})

		api.Route("/students", func(students chi.Router) {
			students.Use(s.authenticate(audienceEmployee))
			students.Use(RequireAnyRole(models.RoleEmployee, models.RoleAdmin))
			students.Get("/{stdCode}/hours", s.StudentHours)
		})

		api.Route("/student", func(student chi.Router) {
			student.Use(s.authenticate(audienceStudent))
			student.Use(RequireAnyRole(models.RoleStudent))
			student.With(s.limitScans).Post("/scan", s.Scan)
			student.Get("/dashboard", s.Dashboard)
			student.Get("/history", s.History)
		})
	})

	r.Get("/ws/scans", s.ScansSocket)
	return r
}
