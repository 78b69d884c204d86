package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/klauspost/compress/gzhttp"
	"github.com/programme-lv/classroom/auth"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/srvcerror"
)

// RouteRegistrar is implemented by every domain http handler.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type Options struct {
	Env                string
	Version            string
	LogLevel           slog.Level
	JwtKey             []byte
	CorsAllowedOrigins []string
}

type HttpServer struct {
	router *chi.Mux
	log    *slog.Logger
}

func NewHttpServer(opts Options, handlers ...RouteRegistrar) *HttpServer {
	router := chi.NewRouter()

	httpLogger := httplog.NewLogger("classroom", httplog.Options{
		LogLevel:         opts.LogLevel,
		JSON:             opts.Env == "prod",
		Concise:          true,
		RequestHeaders:   opts.Env != "prod",
		MessageFieldName: "message",
		Tags: map[string]string{
			"version": opts.Version,
			"env":     opts.Env,
		},
		QuietDownRoutes: []string{"/healthz"},
		QuietDownPeriod: 10 * time.Second,
	})

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httplog.RequestLogger(httpLogger))
	router.Use(logger.Middleware(httpLogger.Logger))
	router.Use(recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))

	router.Use(func(next http.Handler) http.Handler {
		return gzhttp.GzipHandler(next)
	})

	router.Use(auth.GetJwtAuthMiddleware(opts.JwtKey))

	router.NotFound(httpjson.NotFound)
	router.MethodNotAllowed(httpjson.MethodNotAllowed)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpjson.WriteSuccessJson(w, httpjson.Fields{})
	})

	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	return &HttpServer{router: router, log: httpLogger.Logger}
}

func (s *HttpServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on address until ctx is cancelled, then drains open
// requests for up to ten seconds.
func (s *HttpServer) Start(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", "address", address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// recoverer turns a handler panic into a 500 error envelope.
func recoverer(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			log := logger.FromContext(r.Context())
			log.Error("panic in handler", "panic", rvr, "stack", string(debug.Stack()))
			httpjson.HandleError(log, w, srvcerror.ErrUnexpected(fmt.Errorf("panic: %v", rvr)))
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hfn)
}
