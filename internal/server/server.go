package server

import (
	"context"

	"backend-routesmith/internal/auth"
	"backend-routesmith/internal/config"
	"backend-routesmith/internal/planner"
	"backend-routesmith/internal/route"
	"backend-routesmith/internal/session"
	"backend-routesmith/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Sessions *session.Manager
	Logger   *zap.Logger
	Adapters Adapters
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	adapters, err := BuildAdapters(cfg, redisClient, log)
	if err != nil {
		return nil, err
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient, log.Named("stream"))
	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   hub,
		Logger:   log,
		Adapters: adapters,
	}
	s.Sessions = session.NewManager(s.newEngine, hub, cfg.SessionTTL, log.Named("session"))

	registerRoutes(s)
	return s, nil
}

func (s *Server) newEngine(opts ...planner.Option) *planner.Engine {
	base := []planner.Option{planner.WithLogger(s.Logger.Named("planner"))}
	if s.Cfg.RoutingProfile != "" {
		base = append(base, planner.WithProfile(planner.Profile(s.Cfg.RoutingProfile)))
	}
	opts = append(base, opts...)
	return planner.NewEngine(s.Adapters.Router, s.Adapters.Elevation, s.Adapters.Placer, opts...)
}

// StartSweeper expires idle sessions until ctx is done.
func (s *Server) StartSweeper(ctx context.Context) {
	if s.Cfg.SessionTTL <= 0 {
		return
	}
	interval := s.Cfg.SessionTTL / 4
	go s.Sessions.Run(ctx, interval)
}

// Close releases the stream subscription.
func (s *Server) Close() error {
	return s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": s.Sessions.Len()})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	optionalJWT := auth.OptionalJWTMiddleware(s.Cfg.JWTSecret)

	routes := route.NewService(s.DB)
	route.RegisterRoutes(s.App.Group("/routes"), routes, jwtMiddleware, optionalJWT)
	session.NewHandlers(s.Sessions, routes, s.Adapters.Placer, s.Logger.Named("session")).
		RegisterRoutes(s.App.Group("/sessions"), jwtMiddleware, optionalJWT)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Sessions.SnapshotJSON)
}
