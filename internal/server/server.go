/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server bundles the HTTP ops surface and the background rotation
// loop behind one lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/squonklabs/squonk_radio/internal/blobstore"
	"github.com/squonklabs/squonk_radio/internal/cache"
	"github.com/squonklabs/squonk_radio/internal/config"
	"github.com/squonklabs/squonk_radio/internal/db"
	"github.com/squonklabs/squonk_radio/internal/eventbus"
	"github.com/squonklabs/squonk_radio/internal/events"
	"github.com/squonklabs/squonk_radio/internal/history"
	"github.com/squonklabs/squonk_radio/internal/journal"
	"github.com/squonklabs/squonk_radio/internal/library"
	"github.com/squonklabs/squonk_radio/internal/messenger"
	"github.com/squonklabs/squonk_radio/internal/metadata"
	"github.com/squonklabs/squonk_radio/internal/playback"
	"github.com/squonklabs/squonk_radio/internal/registry"
	"github.com/squonklabs/squonk_radio/internal/rotation"
	"github.com/squonklabs/squonk_radio/internal/router"
	"github.com/squonklabs/squonk_radio/internal/session"
	"github.com/squonklabs/squonk_radio/internal/telemetry"
	"github.com/squonklabs/squonk_radio/internal/version"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db        *gorm.DB
	cache     *cache.Cache
	bus       eventbus.Bus
	registry  *registry.ActiveSet
	library   *library.Store
	selector  *playback.Selector
	history   *history.Store
	journal   *journal.Journal
	rotation  *rotation.Scheduler
	commands  *router.Router
	tracer    *telemetry.TracerProvider

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.TracingMiddleware("squonk-radio-api"))
	r.Use(telemetry.MetricsMiddleware)
	r.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: r,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	tracer, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "squonk-radio",
		ServiceVersion: version.Version,
		OTLPEndpoint:   s.cfg.OTLPEndpoint,
		Enabled:        s.cfg.TracingEnabled,
		SampleRate:     s.cfg.TracingSampleRate,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	s.tracer = tracer
	s.DeferClose(func() error { return s.tracer.Shutdown(context.Background()) })

	database, err := db.Connect(s.cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if err := os.MkdirAll(s.cfg.MediaRoot, 0755); err != nil {
		return fmt.Errorf("create media directory %s: %w", s.cfg.MediaRoot, err)
	}
	if err := os.MkdirAll(s.cfg.StateRoot, 0755); err != nil {
		return fmt.Errorf("create state directory %s: %w", s.cfg.StateRoot, err)
	}

	if s.cfg.CacheEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		entityCache, err := cache.New(cacheCfg, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
		} else {
			s.cache = entityCache
			s.DeferClose(func() error { return s.cache.Close() })
		}
	}

	bus, err := eventbus.New(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("init event bus: %w", err)
	}
	s.bus = bus
	s.DeferClose(func() error { return s.bus.Close() })

	var files library.FileStore
	if s.cfg.S3Bucket != "" {
		s3Store, err := library.NewS3FileStore(context.Background(), library.S3Config{
			AccessKeyID:     s.cfg.S3AccessKeyID,
			SecretAccessKey: s.cfg.S3SecretAccessKey,
			Region:          s.cfg.S3Region,
			Bucket:          s.cfg.S3Bucket,
			Endpoint:        s.cfg.S3Endpoint,
			UsePathStyle:    s.cfg.S3UsePathStyle,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		files = s3Store
		s.logger.Info().Str("bucket", s.cfg.S3Bucket).Msg("object storage media backend")
	} else {
		files = library.NewFilesystemFileStore(s.cfg.MediaRoot, s.logger)
	}

	// Sidecar records sit next to the track payloads; operator sessions
	// live under the state root. With the object-storage media backend the
	// sidecars remain on the local media root, so instances sharing a
	// bucket each need their own upload path for titles to resolve.
	sidecars := blobstore.NewFilesystemStore(s.cfg.MediaRoot, s.logger)
	stateRecords := blobstore.NewFilesystemStore(s.cfg.StateRoot, s.logger)
	reader := metadata.NewID3Reader(s.logger)

	s.library = library.NewStore(files, sidecars, reader, s.logger)
	if s.cache != nil {
		s.library.SetCache(s.cache)
	}

	s.registry = registry.NewActiveSet(s.logger)
	sessions := session.NewBinder(stateRecords, s.logger)

	captions := playback.NewCaptionPool()
	if s.cfg.CaptionsPath != "" {
		loaded, err := playback.LoadCaptionPool(s.cfg.CaptionsPath)
		if err != nil {
			return fmt.Errorf("load captions: %w", err)
		}
		captions = loaded
		s.logger.Info().Str("path", s.cfg.CaptionsPath).Int("captions", captions.Len()).Msg("caption pool loaded")
	}

	msgr := messenger.NewLogMessenger(s.logger)

	s.selector = playback.NewSelector(s.library, reader, msgr, s.registry, captions, s.logger)
	s.selector.SetBus(s.bus)

	s.history = history.NewStore(database, s.logger)
	s.selector.SetHistory(s.history)

	s.journal = journal.New(1000)
	s.rotation = rotation.New(s.registry, s.selector, s.journal, s.cfg.RotationInterval, s.logger)

	s.commands = router.New(sessions, s.registry, s.library, s.selector, msgr, s.logger)
	s.commands.SetBus(s.bus)

	return nil
}

// HTTPServer exposes the configured http.Server for the serve command.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.rotation.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("rotation loop exited")
		}
	}()

	if s.cache != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.runCacheInvalidationListener(ctx)
		}()
	}
}

// runCacheInvalidationListener drops cached listings when another instance
// updates a library.
func (s *Server) runCacheInvalidationListener(ctx context.Context) {
	libraryUpdated := s.bus.Subscribe(events.EventLibraryUpdated)
	defer s.bus.Unsubscribe(events.EventLibraryUpdated, libraryUpdated)

	s.logger.Info().Msg("cache invalidation listener started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache invalidation listener stopped")
			return

		case payload := <-libraryUpdated:
			tenantID, ok := tenantIDFromPayload(payload)
			if !ok {
				continue
			}
			s.logger.Debug().Int64("tenant_id", tenantID).Msg("invalidating track list cache")
			s.cache.InvalidateTrackList(ctx, tenantID)
		}
	}
}

// tenantIDFromPayload handles both in-process payloads (int64) and payloads
// that crossed a broker and came back as JSON numbers (float64).
func tenantIDFromPayload(payload events.Payload) (int64, bool) {
	switch v := payload["tenant_id"].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}
