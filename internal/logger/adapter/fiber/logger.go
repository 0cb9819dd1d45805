// Package fiber provides the zerolog access log middleware for fiber.
package fiber

import (
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/municipal-dp/digital-profile/internal/logger"
)

// Config implements fiber middleware struct.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Log is the logger config; File.Access, AccessLogToConsole and SkipPaths are used.
	Log logger.Log

	// Output overrides the configured writers, mainly for tests.
	Output io.Writer

	// Principal returns the identity to log for a request, empty for anonymous ones.
	//
	// Optional. Default: nil
	Principal func(c *fiber.Ctx) string

	// CacheControlError is set on responses whose error could not be rendered.
	CacheControlError string
}

// ConfigDefault is the default config.
var ConfigDefault = Config{
	CacheControlError: "max-age=0",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	return cfg
}

func writers(cfg Config) []io.Writer {
	if cfg.Output != nil {
		return []io.Writer{cfg.Output}
	}

	var out []io.Writer

	if cfg.Log.File.Enabled && cfg.Log.File.Access.Name != "" {
		w, err := logger.Rotate(cfg.Log.File.Path, cfg.Log.File.Access)
		if err != nil {
			log.Error().Err(err).Msg("access log file disabled")
		} else {
			out = append(out, w)
		}
	}

	if cfg.Log.Console.Enabled && cfg.Log.AccessLogToConsole {
		if cfg.Log.Console.Pretty {
			out = append(out, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{zerolog.LevelFieldName},
			})
		} else {
			out = append(out, os.Stdout)
		}
	}

	return out
}

// New creates the access log middleware. Errors of the chain are rendered by the app's
// error handler here so the logged status is the one sent to the client.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	ws := writers(cfg)
	if len(ws) == 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	access := zerolog.New(zerolog.MultiLevelWriter(ws...)).
		With().
		Timestamp().
		Logger().
		Level(zerolog.NoLevel)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		start := time.Now()

		chainErr := c.Next()
		if chainErr != nil {
			if errH := c.App().ErrorHandler(c, chainErr); errH != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError) //nolint:errcheck
				c.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start)
		c.Set("X-Response-Time", strconv.FormatInt(elapsed.Microseconds(), 10)+"us")

		if slices.Contains(cfg.Log.SkipPaths, c.Path()) {
			return nil
		}

		// the header keeps the request URI as sent, RequestURI() is already normalised
		uri := string(c.Request().Header.RequestURI())

		event := access.Log().
			Str("ip", c.IP()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", elapsed).
			Str("uri", uri).
			Str("method", c.Method()).
			Bytes("host", c.Request().Host()).
			Str("userAgent", c.Get(fiber.HeaderUserAgent))

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			event = event.Str("requestId", rid)
		}

		if cfg.Principal != nil {
			if p := cfg.Principal(c); p != "" {
				event = event.Str("principal", p)
			}
		}

		if chainErr != nil {
			event = event.AnErr("error", chainErr)
		}

		event.Send()

		return nil
	}
}
