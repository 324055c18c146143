package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/config"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/analytics"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/assignment"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/blooddonation"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/dashboard"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/facility"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/geo"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/symptom"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/auth"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/db"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/genai"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/geocode"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/idp"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/metrics"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/middleware"
)

// publicPaths skip authentication.
var publicPaths = []string{
	"/health",
	"/metrics",
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/google",
	"/api/v1/auth/password-reset",
}

// sessionSigningKey returns the configured HS256 key, or a random one in
// development so sessions work without any setup. Random keys do not survive
// a restart.
func sessionSigningKey(cfg *config.Config) ([]byte, bool, error) {
	if cfg.AuthSigningKey != "" {
		return []byte(cfg.AuthSigningKey), false, nil
	}
	if cfg.ResolvedAuthMode() != "development" {
		return nil, false, errors.New("AUTH_SIGNING_KEY is required outside development")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate session signing key: %w", err)
	}
	return key, true, nil
}

type revocationStore interface {
	auth.RevocationStore
	Close() error
}

type memoryRevocations struct{ *auth.MemoryRevocationStore }

func (m memoryRevocations) Close() error {
	m.MemoryRevocationStore.Close()
	return nil
}

func openRevocations(ctx context.Context, cfg *config.Config) (revocationStore, *db.Check, error) {
	if cfg.RedisURL == "" {
		return memoryRevocations{auth.NewMemoryRevocationStore(5 * time.Minute)}, nil, nil
	}
	store, err := auth.NewRedisRevocationStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return store, &db.Check{Name: "redis", Ping: store.Ping}, nil
}

// authMiddleware picks the verifier for the configured auth mode. The
// returned minter is nil in external mode, where sign-in hands back the
// provider's own ID token.
func authMiddleware(ctx context.Context, cfg *config.Config, revoked auth.RevocationStore, logger zerolog.Logger) (echo.MiddlewareFunc, identity.SessionMinter, error) {
	mode := cfg.ResolvedAuthMode()
	if mode == "external" {
		v, err := auth.NewOIDCVerifier(ctx, cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthJWKSURL)
		if err != nil {
			return nil, nil, err
		}
		return auth.Authenticate(v, revoked, logger), nil, nil
	}

	key, random, err := sessionSigningKey(cfg)
	if err != nil {
		return nil, nil, err
	}
	if random {
		logger.Warn().Msg("AUTH_SIGNING_KEY not set; sessions are signed with a random key")
	}
	issuer := auth.NewSessionIssuer(key, "swasthya-setu-portal", cfg.SessionTTL)
	if mode == "development" {
		return auth.DevAuthMiddleware(cfg.DevUID, issuer, revoked, logger), issuer, nil
	}
	return auth.Authenticate(issuer, revoked, logger), issuer, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	logger.Info().Str("backend", cfg.StoreBackend).Str("provisioning", cfg.ProvisioningMode).Msg("stores ready")

	revoked, redisCheck, err := openRevocations(ctx, cfg)
	if err != nil {
		return err
	}
	defer revoked.Close()
	checks := b.checks
	if redisCheck != nil {
		checks = append(checks, *redisCheck)
	}

	authMW, minter, err := authMiddleware(ctx, cfg, revoked, logger)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(auth.PublicPaths(authMW, publicPaths...))
	e.Use(metrics.Middleware())
	e.Use(middleware.Audit(logger, nil))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/metrics"))

	e.GET("/health", db.HealthHandler(checks...))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Account routes need a verified principal but no role record, so that
	// a new user can register one.
	var accounts identity.AccountProvider
	if cfg.IDPAPIKey != "" {
		accounts = idp.New(cfg.IDPBaseURL, cfg.IDPAPIKey, cfg.UpstreamTimeout)
	} else {
		logger.Warn().Msg("IDP_API_KEY not set; sign-up and sign-in are disabled")
	}
	identityHandler := identity.NewHandler(b.identity, accounts, minter, revoked)
	identityHandler.RegisterPublicRoutes(e.Group("/api/v1"))

	api := e.Group("/api/v1")
	identityHandler.RegisterRoutes(api)

	if cfg.GenAIAPIKey != "" {
		gen := genai.New(cfg.GenAIBaseURL, cfg.GenAIAPIKey, cfg.GenAIModel, cfg.UpstreamTimeout)
		symptom.NewHandler(symptom.NewAnalyzer(gen)).RegisterRoutes(api)
	} else {
		logger.Warn().Msg("GENAI_API_KEY not set; symptom analysis is disabled")
	}
	if cfg.GeocodeAPIKey != "" {
		geo.NewHandler(geocode.New(cfg.GeocodeURL, cfg.GeocodeAPIKey, cfg.UpstreamTimeout)).RegisterRoutes(api)
	} else {
		logger.Warn().Msg("GEOCODE_API_KEY not set; reverse geocoding is disabled")
	}

	// Everything else is gated on the caller's resolved role.
	roles := e.Group("/api/v1", identity.ResolveRole(b.identity.Resolver()))
	dashboard.NewHandler().RegisterRoutes(roles)
	facility.NewHandler(b.facility).RegisterRoutes(roles)
	blooddonation.NewHandler(b.donations).RegisterRoutes(roles)
	assignment.NewHandler(b.assignment).RegisterRoutes(roles)
	analytics.NewHandler().RegisterRoutes(roles)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth_mode", cfg.ResolvedAuthMode()).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
