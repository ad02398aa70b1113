package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/mneme/internal/logging"
	"github.com/dmitrijs2005/mneme/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Options configures the router.
type Options struct {
	CORSAllowedOrigins []string

	// LoginRateLimit is the number of login attempts allowed per client IP
	// and LoginRateWindow. Zero disables the limit.
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Handler serves the HTTP API.
type Handler struct {
	users    UserService
	journals JournalService
	entries  EntryService
	updates  Subscriber
	logger   logging.Logger
}

func NewHandler(us UserService, js JournalService, es EntryService, updates Subscriber, l logging.Logger) *Handler {
	return &Handler{
		users:    us,
		journals: js,
		entries:  es,
		updates:  updates,
		logger:   l.With("module", "http_api"),
	}
}

// Routes builds the chi router with the global middleware stack.
func (h *Handler) Routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	login := r.With()
	if opts.LoginRateLimit > 0 {
		login = r.With(httprate.LimitByIP(opts.LoginRateLimit, opts.LoginRateWindow))
	}
	login.Post("/login", h.Login)

	r.Post("/users/pub", h.RegisterPublic)
	r.Get("/users", h.ListUsers)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/users", h.RegisterByAdmin)
		r.Get("/users/me", h.Me)
		r.Put("/users", h.UpdateUser)
		r.Post("/users/update_password", h.UpdatePassword)
		r.Delete("/users", h.DeleteUser)

		r.Route("/journals", func(r chi.Router) {
			r.Post("/", h.CreateJournal)
			r.Get("/", h.ListJournals)
			r.Route("/{journal}", func(r chi.Router) {
				r.Get("/", h.GetJournal)
				r.Put("/", h.RenameJournal)
				r.Delete("/", h.DeleteJournal)
				r.Post("/revive", h.ReviveJournal)

				r.Post("/entries", h.CreateEntry)
				r.Get("/entries/{id}", h.GetEntry)
				r.Put("/entries/{id}", h.UpdateEntry)
				r.Delete("/entries/{id}", h.DeleteEntry)
			})
		})

		r.Get("/entries", h.SearchEntries)
		r.Post("/entries/{id}/revive", h.ReviveEntry)

		r.Get("/updates", h.Updates)
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
