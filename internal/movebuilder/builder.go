package movebuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-llm-move/internal/attempts"
	"github.com/park285/cheese-llm-move/internal/config"
	"github.com/park285/cheese-llm-move/internal/llm"
	"github.com/park285/cheese-llm-move/internal/msgcat"
	"github.com/park285/cheese-llm-move/internal/prompt"
	"github.com/park285/cheese-llm-move/internal/render"
	"github.com/park285/cheese-llm-move/internal/service/move"
)

type Deps struct {
	Service  *move.Service
	LLM      *llm.Client
	Attempts attempts.Reader
	Recorder *attempts.Fanout
	Renderer *render.Renderer

	closers []func() error
}

// Close releases the Redis client and SQL pool, if any.
func (d *Deps) Close() error {
	var result *multierror.Error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// New builds every collaborator from cfg. Redis and the SQL ledger are
// optional; when both are configured Redis serves history reads.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, opts ...llm.Option) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	cat, err := msgcat.New(cfg.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	builder, err := prompt.NewBuilder(cat)
	if err != nil {
		return nil, err
	}

	clientOpts := append([]llm.Option{
		llm.WithBaseURL(cfg.OpenAIBaseURL),
		llm.WithModel(cfg.LLMModel),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTemperature(cfg.LLMTemperature),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithLogger(logger.Named("llm")),
	}, opts...)
	d.LLM, err = llm.NewClient(cfg.OpenAIAPIKey, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	var recorders []attempts.Recorder
	if strings.TrimSpace(cfg.RedisURL) != "" {
		ropts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		rdb := redis.NewClient(ropts)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		d.closers = append(d.closers, rdb.Close)
		store := attempts.NewRedisStore(rdb, cfg.AttemptTTL())
		recorders = append(recorders, store)
		d.Attempts = store
		logger.Info("attempt_store_enabled", zap.String("backend", "redis"))
	}
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		ledger, lerr := attempts.OpenLedger(ctx, cfg.DatabaseURL)
		if lerr != nil {
			_ = d.Close()
			return nil, fmt.Errorf("open attempt ledger: %w", lerr)
		}
		d.closers = append(d.closers, ledger.Close)
		if err := ledger.EnsureSchema(ctx); err != nil {
			_ = d.Close()
			return nil, err
		}
		recorders = append(recorders, ledger)
		if d.Attempts == nil {
			d.Attempts = ledger
		}
		logger.Info("attempt_store_enabled", zap.String("backend", "sql"))
	}
	d.Recorder = attempts.NewFanout(recorders...)

	d.Renderer = render.NewRenderer(
		render.WithPieceDir(cfg.RenderPieceDir),
		render.WithLogger(logger.Named("render")),
	)

	var rec move.Recorder
	if d.Recorder.Len() > 0 {
		rec = d.Recorder
	}
	d.Service, err = move.NewService(d.LLM, builder, rec, move.Config{ProposeTimeout: cfg.LLMTimeout()}, logger.Named("move"))
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}
