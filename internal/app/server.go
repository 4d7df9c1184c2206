package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "tush00nka/bbbab_chat/docs"
	"tush00nka/bbbab_chat/internal/handler"
	"tush00nka/bbbab_chat/internal/middleware"
	"tush00nka/bbbab_chat/internal/pkg/httputils"
	"tush00nka/bbbab_chat/internal/ws"
)

// Routes is everything the router needs. UploadDir is empty when avatars
// live in object storage.
type Routes struct {
	Users   *handler.UserHandler
	Friends *handler.FriendHandler
	Chats   *handler.ChatHandler
	Hub     *ws.Hub

	Auth     *middleware.Authenticator
	Limiter  *middleware.IPRateLimiter
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	Addr             string
	UploadDir        string
	UploadPublicPath string
	AllowedOrigins   []string
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	srv     *http.Server
	log     *zap.Logger
}

func NewServer(rt Routes, log *zap.Logger) *Server {
	router := mux.NewRouter()
	router.Use(rt.Metrics.Monitor, middleware.AccessLog(log))

	router.HandleFunc("/ping", handler.Ping).Methods(http.MethodGet)

	public := router.NewRoute().Subrouter()
	public.Use(rt.Limiter.Middleware)
	private := router.NewRoute().Subrouter()
	private.Use(rt.Auth.Authenticate)

	rt.Users.RegisterRoutes(public, private)
	rt.Friends.RegisterRoutes(private)
	rt.Chats.RegisterRoutes(private)

	router.Handle("/ws", rt.Auth.AuthenticateUpgrade(http.HandlerFunc(rt.Hub.ServeWS))).
		Methods(http.MethodGet)

	if rt.UploadDir != "" {
		prefix := rt.UploadPublicPath + "/"
		router.PathPrefix(prefix).
			Handler(http.StripPrefix(prefix, noListing(http.FileServer(http.Dir(rt.UploadDir))))).
			Methods(http.MethodGet, http.MethodHead)
	}

	router.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputils.ResponseError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(rt.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(log)),
		handlers.PrintRecoveryStack(true),
	)

	h := recovery(cors(router))
	return &Server{
		router:  router,
		handler: h,
		log:     log,
		srv: &http.Server{
			Handler:           h,
			Addr:              rt.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      15 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          zap.NewStdLog(log),
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("server starting", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			handler.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
