package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"labportal/internal/api"
	"labportal/internal/audit"
	"labportal/internal/booking"
	"labportal/internal/modification"
	"labportal/internal/notify"
	"labportal/internal/pricing"
	"labportal/internal/sample"
	"labportal/internal/serviceitem"
	"labportal/internal/user"
	"labportal/internal/workspace"
	"labportal/pkg/config"
)

type Dependencies struct {
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
	Log   zerolog.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	usersRepo := user.NewRepository(deps.DB)
	auditRepo := audit.NewRepository(deps.DB)
	notifier := notify.NewNotifier(deps.DB, deps.Redis, deps.Log)

	bookingRepo := booking.NewRepository(deps.DB)
	bookingSvc := booking.NewService(bookingRepo, notifier, usersRepo, deps.Log)
	bookingHandlers := booking.Handlers{
		Svc:     bookingSvc,
		Repo:    bookingRepo,
		Items:   serviceitem.NewRepository(deps.DB),
		Slots:   workspace.NewRepository(deps.DB),
		Samples: sample.NewRepository(deps.DB),
	}

	modWorkflow := modification.NewWorkflow(
		modification.NewRepository(deps.DB),
		pricing.NewRepository(deps.DB),
		notifier,
		usersRepo,
		auditRepo,
		deps.Log,
	)
	modHandlers := modification.Handlers{Workflow: modWorkflow}

	sampleHandlers := sample.Handlers{
		Repo: sample.NewRepository(deps.DB),
		Recompute: func(ctx context.Context, bookingID string) error {
			_, err := bookingSvc.Recompute(ctx, bookingID)
			return err
		},
		Log: deps.Log,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.PortalAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAgeSeconds:  600,
		}))
		r.Use(api.SessionAuth(deps.Cfg, usersRepo))

		// Customer portal (any authenticated user; handlers verify ownership)
		r.Get("/bookings", bookingHandlers.List)
		r.Get("/bookings/{id}", bookingHandlers.Get)
		r.Post("/bookings/{id}/submit", bookingHandlers.Submit)
		r.Post("/bookings/{id}/cancel", bookingHandlers.Cancel)
		r.Patch("/bookings/{id}/timeline", bookingHandlers.PatchTimeline)
		r.Post("/service-items/{id}/modifications", modHandlers.CreateByUser)
		r.Post("/modifications/{id}/respond", modHandlers.Respond)

		// Admin review surface
		r.Route("/admin", func(r chi.Router) {
			r.Use(api.RequireRole(user.RoleAdmin))

			r.Post("/bookings/{id}/review", bookingHandlers.Review)
			r.Post("/bookings/{id}/force-complete", bookingHandlers.ForceComplete)
			r.Post("/bookings/{id}/cancel", bookingHandlers.AdminCancel)
			r.Post("/service-items/{id}/modifications", modHandlers.CreateByAdmin)
			r.Post("/modifications/{id}/respond", modHandlers.Respond)
		})

		// Lab processing surface
		r.Route("/lab", func(r chi.Router) {
			r.Use(api.RequireRole(user.RoleLabStaff, user.RoleAdmin))

			r.Patch("/samples/{id}/status", sampleHandlers.PatchStatus)
		})
	})

	return r
}
