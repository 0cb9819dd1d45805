// Package web assembles the HTTP API: middleware, the security filter and the handlers.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/municipal-dp/digital-profile/internal/config"
	fiberlog "github.com/municipal-dp/digital-profile/internal/logger/adapter/fiber"
	"github.com/municipal-dp/digital-profile/internal/route"
	"github.com/municipal-dp/digital-profile/internal/web/handler"
	citizenadmin "github.com/municipal-dp/digital-profile/internal/web/handler/admin/citizen"
	"github.com/municipal-dp/digital-profile/internal/web/handler/admin/user"
	staffauth "github.com/municipal-dp/digital-profile/internal/web/handler/auth"
	"github.com/municipal-dp/digital-profile/internal/web/handler/citizen"
	security "github.com/municipal-dp/digital-profile/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath serves prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	Registry     *route.Registry
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates the web service. Every handler registers its routes, then the route registry
// is sealed.
func New(cfg *config.Config, deps *handler.Deps) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if !deps.Valid() {
		return nil, handler.ErrNilDeps
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      cfg.Webserver.BodyLimit,
			ErrorHandler:   ErrorHandler,
		},
	)

	registry := route.NewRegistry()

	service := &Service{
		App:      app,
		Registry: registry,
		cfg:      cfg,
	}
	service.alive.Store(true)

	app.Use(requestid.New())
	app.Use(fiberlog.New(fiberlog.Config{Log: cfg.Log, Principal: security.PrincipalName}))

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Webserver.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Use(security.New(security.Config{
		Registry: registry,
		Staff:    deps.StaffTokens,
		Citizen:  deps.CitizenTokens,
	}))

	b := route.NewBinder(app, registry)

	err := errors.Join(
		b.Public(http.MethodGet, CheckAlivePath, service.checkAlive),
		b.Public(http.MethodGet, MetricsPath, adaptor.HTTPHandler(promhttp.Handler())),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	services := []handler.Service{
		new(staffauth.Service),
		new(user.Service),
		new(citizen.Service),
		new(citizenadmin.Service),
	}

	for _, h := range services {
		if err := h.Init(b, deps); err != nil {
			return nil, fmt.Errorf("failed to init handler: %w", err)
		}
	}

	registry.Seal()

	log.Debug().Int("routes", len(registry.Routes())).Msg("route registry sealed")

	return service, nil
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}
