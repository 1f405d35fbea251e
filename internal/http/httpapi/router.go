package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"contentstudio/internal/http/handlers"
	"contentstudio/internal/infra"
	"contentstudio/internal/metrics"
	"contentstudio/internal/middleware"
)

type Options struct {
	Logger          infra.Logger
	JWTSecret       string
	CORSOrigins     []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	// Metrics instruments every route when set.
	Metrics *metrics.Middleware
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
	// StaticDir serves locally stored objects under /static when set.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Handler)
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/readyz", app.Ready)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}
	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", noDirListing(http.FileServer(http.Dir(opts.StaticDir)))))
	}

	r.Route("/v1/videos", func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		if opts.RateLimitPerMin > 0 {
			r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.VideosCreate)
		} else {
			r.Post("/", app.VideosCreate)
		}
		r.Route("/{job_id}", func(r chi.Router) {
			r.Get("/", app.VideoStatus)
			r.Post("/retry", app.VideoRetry)
			r.Post("/publish", app.VideoPublish)
			r.Get("/bundle", app.VideoBundle)
			r.Get("/events", app.VideoEvents)
		})
	})

	return r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
