package rest

import (
	"context"
	"net/http"
	"time"

	"edubba/application/commands/bus"
	"edubba/application/queries"
	querybus "edubba/application/queries/bus"
	"edubba/application/ports"
	"edubba/infrastructure/config"
	"edubba/interfaces/http/rest/handlers"
	"edubba/interfaces/http/rest/middleware"
	"edubba/pkg/auth"
	pkgerrors "edubba/pkg/errors"
	"edubba/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// readinessTimeout bounds the storage probe behind /ready.
const readinessTimeout = 2 * time.Second

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	prometheus *observability.PrometheusMetrics
	cfg        *config.Config
	validator  *auth.JWTValidator
	errHandler *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewRouter creates a new router instance. Write routes are authenticated
// only when a JWT secret is configured.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	prometheus *observability.PrometheusMetrics,
	cfg *config.Config,
	logger *zap.Logger,
) (*Router, error) {
	rt := &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		prometheus: prometheus,
		cfg:        cfg,
		errHandler: pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment()),
		logger:     logger,
	}

	if cfg.JWTSecret != "" {
		validator, err := auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, err
		}
		rt.validator = validator
	} else {
		logger.Warn("JWT_SECRET not set, write routes are unauthenticated")
	}

	return rt, nil
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(observability.NewTracer("edubba", rt.cfg.EnableTracing && !rt.cfg.IsLambda).HTTPMiddleware)
	router.Use(rt.errHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.prometheus != nil {
		router.Use(middleware.Metrics(rt.prometheus))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.prometheus != nil {
		router.Method(http.MethodGet, "/metrics", rt.prometheus.Handler())
	}

	nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, rt.errHandler, rt.logger)
	provenanceHandler := handlers.NewProvenanceHandler(rt.errHandler)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/provenance/hash", provenanceHandler.Hash)

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", nodeHandler.ListNodes)
			r.Get("/{nodeID}", nodeHandler.GetNode)

			r.Group(func(r chi.Router) {
				r.Use(rt.writeGuards()...)

				r.Post("/", nodeHandler.CreateNode)
				r.Delete("/{nodeID}", nodeHandler.DeleteNode)
				r.Post("/{nodeID}/escalate", nodeHandler.EscalateNode)
				r.Put("/{nodeID}/mastery", nodeHandler.UpdateMastery)
				r.Post("/{nodeID}/recall", nodeHandler.RecordRecall)
				r.Post("/{nodeID}/edges", nodeHandler.AddEdge)
			})
		})
	})

	return router
}

func (rt *Router) writeGuards() []func(http.Handler) http.Handler {
	guards := []func(http.Handler) http.Handler{
		middleware.RequireWriter(rt.validator, rt.errHandler, rt.logger),
	}
	if rt.cfg.WriteRatePerMinute > 0 {
		limiter := auth.NewPerMinuteLimiter(rt.cfg.WriteRatePerMinute)
		guards = append(guards, middleware.RateLimit(limiter, rt.errHandler))
	}
	return guards
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once storage answers a one-node listing
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
	defer cancel()

	if _, err := rt.queryBus.Ask(ctx, queries.ListMemoryNodesQuery{Filter: ports.NodeFilter{Limit: 1}}); err != nil {
		rt.logger.Warn("Readiness probe failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
