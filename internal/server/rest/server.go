// Package rest serves the taskmaster HTTP/JSON API.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskmaster/internal/logging"
	"github.com/dmitrijs2005/taskmaster/internal/server/auth"
	"github.com/dmitrijs2005/taskmaster/internal/server/config"
	"github.com/dmitrijs2005/taskmaster/internal/server/metrics"
	"github.com/dmitrijs2005/taskmaster/internal/server/models"
	"github.com/dmitrijs2005/taskmaster/internal/server/services"
	"github.com/gorilla/mux"
)

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	VerifyToken(token string) (*auth.Claims, error)
	GetCurrentUser(ctx context.Context, id int64) (*models.User, error)
}

type TaskService interface {
	List(ctx context.Context, ownerID int64) ([]*models.Task, error)
	Create(ctx context.Context, ownerID int64, in services.CreateTaskInput) (*models.Task, error)
	Update(ctx context.Context, ownerID, taskID int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, ownerID, taskID int64) error
}

type Server struct {
	address         string
	allowedOrigin   string
	shutdownTimeout time.Duration
	users           UserService
	tasks           TaskService
	logger          logging.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

func NewServer(cfg *config.Config, l logging.Logger, us UserService, ts TaskService, m *metrics.Metrics) *Server {
	return &Server{
		address:         cfg.EndpointAddrHTTP,
		allowedOrigin:   cfg.AllowedOrigin,
		shutdownTimeout: cfg.ShutdownTimeout,
		users:           us,
		tasks:           ts,
		logger:          l.With("module", "rest_server"),
		metrics:         m,
		now:             time.Now,
	}
}

// Handler builds the full route table. CORS wraps the router so that
// preflight requests never reach route matching.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)
	r.Use(s.requestLogger, s.instrument)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.login).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.authenticate)
	protected.HandleFunc("/api/auth/me", s.me).Methods(http.MethodGet)
	protected.HandleFunc("/api/tasks", s.listTasks).Methods(http.MethodGet)
	protected.HandleFunc("/api/tasks", s.createTask).Methods(http.MethodPost)
	protected.HandleFunc("/api/tasks/{id}", s.updateTask).Methods(http.MethodPut)
	protected.HandleFunc("/api/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)

	return s.cors(r)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then gives
// in-flight requests up to the shutdown timeout to finish.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan struct{})
	shutdownDone := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			shutdownDone <- nil
			return
		}
		s.logger.Info(ctx, "Stopping REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		shutdownDone <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting REST server", "address", lis.Addr().String())

	err := srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return <-shutdownDone
	}
	close(stopped)
	<-shutdownDone
	return err
}
