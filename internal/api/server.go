package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server is the HTTP query/control surface consumed by an external
// presentation layer.
type Server struct {
	server *http.Server
	logger *logrus.Logger
	port   string
}

func NewServer(port string, handlers *Handlers, logger *logrus.Logger) *Server {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Query surface
	api.HandleFunc("/logs/aggregate", handlers.GetAggregatedLogs).Methods("GET")
	api.HandleFunc("/logs", handlers.GetLogs).Methods("GET")
	api.HandleFunc("/devices", handlers.GetDevices).Methods("GET")

	// Service control surface
	api.HandleFunc("/service/status", handlers.GetServiceStatus).Methods("GET")
	api.HandleFunc("/service/start", handlers.StartService).Methods("POST")
	api.HandleFunc("/service/stop", handlers.StopService).Methods("POST")
	api.HandleFunc("/service/restart", handlers.RestartService).Methods("POST")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
	}

	return &Server{
		server: srv,
		logger: logger,
		port:   port,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Infof("API server starting on port %s", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down API server...")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Errorf("API server shutdown error: %v", err)
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
