package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nouridin/supershop/internal/database"
	"github.com/nouridin/supershop/internal/handler"
	"github.com/nouridin/supershop/internal/logger"
	"github.com/nouridin/supershop/internal/metrics"
	"github.com/nouridin/supershop/internal/shop"
)

type Server struct {
	httpServer  *http.Server
	dbPool      database.Pool
	shopService shop.Service
}

// NewServer creates a new Server instance
func NewServer(port int, apiKey string, dbPool database.Pool, shopService shop.Service) *Server {
	r := chi.NewRouter()

	// Middleware stack, outermost first
	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(apiKey))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/shops", func(r chi.Router) {
			r.Get("/", handler.HandleListShops(shopService))
			r.Post("/", handler.HandleCreateShop(shopService))
			r.Get("/at", handler.HandleGetShopAtLocation(shopService))
			r.Get("/search", handler.HandleSearchShops(shopService))
			r.Get("/statistics", handler.HandleGetStatistics(shopService))

			r.Route("/{shopID}", func(r chi.Router) {
				r.Get("/", handler.HandleGetShop(shopService))
				r.Delete("/", handler.HandleRemoveShop(shopService))
				r.Post("/force-remove", handler.HandleForceRemoveShop(shopService))
				r.Post("/active", handler.HandleSetShopActive(shopService))
				r.Post("/revenue/collect", handler.HandleCollectRevenue(shopService))

				r.Route("/items", func(r chi.Router) {
					r.Post("/", handler.HandleAddItem(shopService))
					r.Delete("/{itemID}", handler.HandleRemoveItem(shopService))
					r.Post("/{itemID}/purchase", handler.HandlePurchase(shopService))
					r.Post("/{itemID}/restock", handler.HandleRestockItem(shopService))
				})
			})
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool:      dbPool,
		shopService: shopService,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints and metrics
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info("Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info("Server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
