package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/programme-lv/classroom/account"
	accounthttp "github.com/programme-lv/classroom/account/http"
	"github.com/programme-lv/classroom/conf"
	"github.com/programme-lv/classroom/course"
	coursehttp "github.com/programme-lv/classroom/course/http"
	"github.com/programme-lv/classroom/dashboard"
	dashboardhttp "github.com/programme-lv/classroom/dashboard/http"
	"github.com/programme-lv/classroom/httpserver"
	"github.com/programme-lv/classroom/identity"
	"github.com/programme-lv/classroom/s3bucket"
	"github.com/programme-lv/classroom/session"
	sessionhttp "github.com/programme-lv/classroom/session/http"
)

var version = "dev"

const (
	dashboardCacheTTL = 2 * time.Second
	maxEvidenceBytes  = 10 << 20
)

func main() {
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connStr, err := conf.GetPgConnStrFromEnv(ctx)
	if err != nil {
		slog.Error("failed to get postgres connection string", "error", err)
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		slog.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	evidence, err := s3bucket.NewS3Bucket(ctx, cfg.EvidenceS3Region, cfg.EvidenceS3Bucket)
	if err != nil {
		slog.Error("failed to create evidence bucket", "error", err)
		os.Exit(1)
	}

	var idp account.IdentityProvider
	if cfg.SupabaseURL != "" {
		idp = identity.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	} else {
		slog.Warn("SUPABASE_URL is not set, signups are never confirmed")
	}

	accountSrvc := account.NewAccountSrvc(account.NewPgAccountRepo(pool), idp, cfg.PublicBaseURL)
	courseSrvc := course.NewCourseSrvc(course.NewPgCourseRepo(pool), accountSrvc)
	sessionSrvc := session.NewSessionSrvc(
		session.NewPgSessionRepo(pool),
		courseSrvc,
		accountSrvc,
		evidence,
		session.Options{
			PublicBaseURL:       cfg.PublicBaseURL,
			AllowEvidenceReopen: cfg.EvidenceAllowReopen,
		},
	)
	dashboardSrvc := dashboard.NewDashboardSrvc(courseSrvc, accountSrvc, sessionSrvc)

	server := httpserver.NewHttpServer(
		httpserver.Options{
			Env:                cfg.Env,
			Version:            version,
			LogLevel:           cfg.LogLevel,
			JwtKey:             cfg.JwtKey,
			CorsAllowedOrigins: cfg.CorsAllowedOrigins,
		},
		accounthttp.NewAccountHttpHandler(accountSrvc, cfg.JwtKey),
		coursehttp.NewCourseHttpHandler(courseSrvc),
		sessionhttp.NewSessionHttpHandler(sessionSrvc, maxEvidenceBytes),
		dashboardhttp.NewDashboardHttpHandler(dashboardSrvc, dashboardCacheTTL),
	)

	if err := server.Start(ctx, cfg.HttpAddr); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
