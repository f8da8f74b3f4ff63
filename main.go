package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/glyphd/glyphd/internal/audit"
	"github.com/glyphd/glyphd/internal/avatar"
	"github.com/glyphd/glyphd/internal/cache"
	"github.com/glyphd/glyphd/internal/config"
	"github.com/glyphd/glyphd/internal/identity"
	"github.com/glyphd/glyphd/internal/jwt"
	"github.com/glyphd/glyphd/internal/observe"
	"github.com/glyphd/glyphd/internal/render"
	"github.com/glyphd/glyphd/internal/server"
	"github.com/glyphd/glyphd/internal/storage"
	"github.com/glyphd/glyphd/internal/theme"
)

func main() {
	configureLogging()

	logBuildInfo()

	err := launchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	var hooks server.ShutdownHooks

	// configure telemetry, including wrapping the default HTTP client
	// used by the directory and vector renderer clients
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}
	hooks.AddContext("telemetry", shutdownTelemetry)

	http.DefaultTransport = observe.HTTPTransport(
		configureHTTPTransport(cfg.Server),
		cfg.Observe,
	)
	http.DefaultClient = &http.Client{
		Transport: http.DefaultTransport,
	}

	avatars, err := configureAvatarService(cfg, &hooks)
	if err != nil {
		return fmt.Errorf("avatar service configuration failed: %w", err)
	}

	handler, err := configureServerRoutes(cfg, avatars)
	if err != nil {
		return fmt.Errorf("server routing configuration failed: %w", err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	err = serveHTTP(cfg.Server, httpServer, &hooks)
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// configureAvatarService assembles the placeholder pipeline: palette,
// renderers, identity resolution, disk store and the optional hot
// cache.
func configureAvatarService(cfg config.Config, hooks *server.ShutdownHooks) (*avatar.Service, error) {
	palette := theme.DefaultPalette()
	if cfg.Avatar.PalettePath != "" {
		loaded, err := theme.LoadPalette(cfg.Avatar.PalettePath)
		if err != nil {
			return nil, fmt.Errorf("palette configuration failed: %w", err)
		}
		palette = loaded
	}

	raster, err := render.NewRaster(palette)
	if err != nil {
		return nil, fmt.Errorf("raster renderer configuration failed: %w", err)
	}

	vector := render.NewVector(cfg.Avatar.VectorRendererURL, palette, http.DefaultClient)

	var names identity.Resolver = identity.Static{}
	if cfg.Directory.URL != "" {
		names = identity.NewDirectory(cfg.Directory.URL, http.DefaultClient)
	}

	store := storage.NewDisk(afero.NewOsFs(), cfg.Storage.Root)

	opts := []avatar.Option{}
	if cfg.Avatar.HotCacheSize > 0 {
		hot, err := cache.NewMemory[[]byte](
			time.Duration(cfg.Avatar.HotCacheTTLMinutes)*time.Minute,
			cfg.Avatar.HotCacheSize,
		)
		if err != nil {
			return nil, fmt.Errorf("hot cache configuration failed: %w", err)
		}

		instrumented := cache.NewInstrumented[[]byte](hot, "avatar-hot")
		hooks.Add("hot cache", instrumented.Close)

		opts = append(opts, avatar.WithHotCache(instrumented))
	}

	return avatar.NewService(store, names, vector, raster, opts...), nil
}

func configureServerRoutes(cfg config.Config, avatars *avatar.Service) (http.Handler, error) {
	// wrap a mux such that HTTP telemetry is configured by default
	muxWithoutTelemetry := http.NewServeMux()
	mux := observe.NewMux(muxWithoutTelemetry)

	// configure middleware
	auditor := audit.Middleware()

	authorizer, err := jwt.Middleware(cfg.Authorization)
	if err != nil {
		return nil, fmt.Errorf("authorizer configuration failed: %w", err)
	}

	// The request body size is fairly limited to prevent accidental or
	// deliberate abuse. Given the current API shape, this is not
	// configurable.
	requestLimitBytes := int64(20 << 10) // 20 KB
	requestLimiter := maxRequestSize(requestLimitBytes)

	publicRouteMiddleware := alice.New(requestLimiter)
	mutatingRouteMiddleware := alice.New(requestLimiter, auditor, authorizer)

	// avatar fetches are public: they serve profile images to any UI
	mux.Handle("GET /avatar/{user}/{size}", publicRouteMiddleware.Then(handleGetAvatar(avatars, cfg.Avatar.MaxSize, false)))
	mux.Handle("GET /avatar/{user}/{size}/dark", publicRouteMiddleware.Then(handleGetAvatar(avatars, cfg.Avatar.MaxSize, true)))

	// mutation is reserved for the identity provider
	mux.Handle("DELETE /avatar/{user}", mutatingRouteMiddleware.Then(handleDeleteAvatar(avatars)))
	mux.Handle("POST /user-changed", mutatingRouteMiddleware.Then(handleUserChanged(avatars)))

	// healthchecks are not included in telemetry or authorization
	muxWithoutTelemetry.Handle("GET /healthcheck", publicRouteMiddleware.Then(handleHealthCheck()))

	return mux, nil
}

// serveHTTP runs the server until interrupted, then drains connections
// and executes the shutdown hooks.
func serveHTTP(cfg config.ServerConfig, httpServer *http.Server, hooks *server.ShutdownHooks) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("server starting")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
	)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	hooks.Execute(shutdownCtx)

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

func configureLogging() {
	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}
