// Package httpapi exposes the service as JSON over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/httpx"
	"github.com/anuragthippani1/SentriX/internal/service"
	"github.com/anuragthippani1/SentriX/internal/telemetry"
)

type Options struct {
	ServiceName    string
	StoreName      string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

type API struct {
	svc     *service.Service
	logger  *zap.Logger
	metrics *telemetry.Metrics
	opts    Options
}

func New(svc *service.Service, metrics *telemetry.Metrics, logger *zap.Logger, opts Options) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "sentrix-api"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	return &API{svc: svc, logger: logger, metrics: metrics, opts: opts}
}

func (a *API) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(a.logger))
	router.Use(middleware.Recoverer)
	if a.metrics != nil {
		router.Use(a.metrics.Middleware)
	}
	router.Use(cors.Handler(corsOptions(a.opts.CORSOrigins)))

	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "SentriX API is running"})
	})
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": a.opts.ServiceName, "store": a.opts.StoreName})
	})
	if a.metrics != nil {
		router.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(a.opts.RequestTimeout))

		r.Post("/query", a.query)
		r.Post("/report/combined", a.combinedReport)

		r.Route("/shipment", func(r chi.Router) {
			r.Get("/", a.listShipments)
			r.Post("/upload", a.uploadShipments)
			r.Post("/reset", a.resetShipments)
			r.Get("/high-risk", a.highRiskShipments)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", a.listReports)
			r.Get("/{id}", a.getReport)
			r.Get("/{id}/download", a.downloadReport)
		})

		r.Get("/dashboard", a.dashboard)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", a.createSession)
			r.Get("/", a.listSessions)
			r.Get("/{id}", a.getSession)
			r.Put("/{id}", a.updateSession)
			r.Delete("/{id}", a.deleteSession)
			r.Get("/{id}/reports", a.sessionReports)
			r.Get("/{id}/messages", a.sessionMessages)
		})

		r.Route("/route", func(r chi.Router) {
			r.Get("/ports", a.listPorts)
			r.Post("/plan-multi-port", a.planRoute)
			r.Post("/optimize", a.optimizeRoute)
			r.Post("/compare", a.compareRoutes)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", a.listAlerts)
			r.Patch("/{id}/ack", a.alertStatus("acknowledged"))
			r.Patch("/{id}/resolve", a.alertStatus("resolved"))
		})
	})

	return router
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
