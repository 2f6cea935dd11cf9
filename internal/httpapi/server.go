package httpapi

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/park285/cheese-llm-move/internal/attempts"
	"github.com/park285/cheese-llm-move/internal/chess"
	"github.com/park285/cheese-llm-move/internal/service/move"
	"github.com/park285/cheese-llm-move/pkg/movedto"
)

//go:embed web
var webFS embed.FS

const defaultRateLimit = 10 // req/sec per client

// MoveService is the orchestrator as seen by the HTTP layer.
type MoveService interface {
	ProposeMove(ctx context.Context, fen string, rating movedto.SkillRating) (move.Result, error)
	RetryMove(ctx context.Context, fen string, rating movedto.SkillRating) (move.Result, error)
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, pos *chess.Position, move string) ([]byte, error)
}

// Deps are the collaborators of the HTTP app. Attempts and Renderer may be
// nil; their routes then answer 503.
type Deps struct {
	Moves           MoveService
	Attempts        attempts.Reader
	Renderer        BoardRenderer
	Logger          *zap.Logger
	RateLimitPerSec int
}

type handler struct {
	moves    MoveService
	attempts attempts.Reader
	renderer BoardRenderer
	logger   *zap.Logger
	web      fs.FS
}

func NewApp(d Deps) (*fiber.App, error) {
	if d.Moves == nil {
		return nil, errors.New("move service is required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RateLimitPerSec <= 0 {
		d.RateLimitPerSec = defaultRateLimit
	}
	web, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, fmt.Errorf("web sub-filesystem: %w", err)
	}
	h := &handler{
		moves:    d.Moves,
		attempts: d.Attempts,
		renderer: d.Renderer,
		logger:   d.Logger,
		web:      web,
	}

	app := fiber.New(fiber.Config{
		AppName:               "llm-chess",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestLogger(d.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/health", h.health)

	maxReq := d.RateLimitPerSec
	limit := limiter.New(limiter.Config{
		Max:          maxReq,
		Expiration:   time.Second,
		KeyGenerator: clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(movedto.MoveResponse{
				Error:     "rate limit exceeded",
				Code:      movedto.CodeRateLimited,
				Detail:    fmt.Sprintf("%d requests per second allowed", maxReq),
				Retryable: true,
			})
		},
	})

	app.Post("/move", limit, validateMoveRequest, h.postMove(false))
	app.Post("/retry_move", limit, validateMoveRequest, h.postMove(true))

	api := app.Group("/api")
	api.Post("/apply", limit, validateApplyRequest, h.postApply)
	api.Get("/attempts", h.getAttempts)
	api.Get("/board.png", h.getBoard)
	api.All("/*", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	app.Get("/*", h.static)
	return app, nil
}

// clientKey prefers the first X-Forwarded-For hop.
func clientKey(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	return c.IP()
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		logger.Info("http_request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := movedto.MoveResponse{Error: "internal server error", Code: movedto.CodeInternal}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		body.Error = fe.Message
		switch status {
		case fiber.StatusNotFound:
			body.Code = movedto.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			body.Code = movedto.CodeInvalidRequest
		case fiber.StatusTooManyRequests:
			body.Code = movedto.CodeRateLimited
		case fiber.StatusServiceUnavailable:
			body.Code = movedto.CodeUnavailable
		}
	}
	return c.Status(status).JSON(body)
}
