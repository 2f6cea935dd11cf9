package move

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-llm-move/internal/chess"
	"github.com/park285/cheese-llm-move/internal/domain"
	"github.com/park285/cheese-llm-move/internal/llm"
	"github.com/park285/cheese-llm-move/internal/prompt"
	"github.com/park285/cheese-llm-move/pkg/movedto"
)

var (
	ErrMalformedPosition = chess.ErrMalformedPosition
	ErrPromptUnavailable = errors.New("move prompt unavailable")
)

const (
	defaultProposeTimeout = 30 * time.Second
	defaultRecordTimeout  = 2 * time.Second
)

// Proposer returns the raw text of one model suggestion.
type Proposer interface {
	Propose(ctx context.Context, prompt string) (string, error)
}

// Recorder receives one audit record per completed attempt.
type Recorder interface {
	Record(ctx context.Context, a domain.Attempt) error
}

// AttemptContext is everything one attempt needs. Nothing else is carried
// between requests.
type AttemptContext struct {
	Position *chess.Position
	Rating   movedto.SkillRating
	IsRetry  bool
}

// Result is the outcome of one attempt together with its audit identity.
type Result struct {
	chess.Outcome
	AttemptID  string
	Completion string
	Timeout    bool
	Latency    time.Duration
}

type Config struct {
	ProposeTimeout time.Duration
	RecordTimeout  time.Duration
}

type Service struct {
	proposer Proposer
	prompts  *prompt.Builder
	recorder Recorder
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the orchestrator. recorder may be nil.
func NewService(proposer Proposer, prompts *prompt.Builder, recorder Recorder, cfg Config, logger *zap.Logger) (*Service, error) {
	if proposer == nil {
		return nil, fmt.Errorf("move proposer is required")
	}
	if prompts == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}
	if cfg.ProposeTimeout <= 0 {
		cfg.ProposeTimeout = defaultProposeTimeout
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaultRecordTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		proposer: proposer,
		prompts:  prompts,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// ProposeMove asks the model for a first move in fen.
func (s *Service) ProposeMove(ctx context.Context, fen string, rating movedto.SkillRating) (Result, error) {
	return s.run(ctx, fen, rating, false)
}

// RetryMove is ProposeMove with the retry preamble. It is stateless: the
// caller resends the same position after a rejection.
func (s *Service) RetryMove(ctx context.Context, fen string, rating movedto.SkillRating) (Result, error) {
	return s.run(ctx, fen, rating, true)
}

func (s *Service) run(ctx context.Context, fen string, rating movedto.SkillRating, retry bool) (Result, error) {
	s.logger.Debug("move_request",
		zap.String("fen", fen),
		zap.String("rating", rating.String()),
		zap.Bool("retry", retry),
	)
	pos, err := chess.ParsePosition(fen)
	if err != nil {
		s.logger.Info("move_malformed_position", zap.String("fen", fen), zap.Error(err))
		return Result{}, err
	}
	return s.Attempt(ctx, AttemptContext{Position: pos, Rating: rating, IsRetry: retry})
}

// Attempt runs one propose/validate round. The proposer is called at most
// once; positions without legal moves never reach it.
func (s *Service) Attempt(ctx context.Context, ac AttemptContext) (Result, error) {
	if ac.Position == nil {
		return Result{}, fmt.Errorf("%w: no position", ErrMalformedPosition)
	}
	res := Result{AttemptID: uuid.NewString()}
	logger := s.logger.With(
		zap.String("attempt_id", res.AttemptID),
		zap.Bool("retry", ac.IsRetry),
		zap.String("fen", ac.Position.FEN()),
		zap.String("rating", ac.Rating.String()),
	)
	started := s.now()

	diagram := chess.ReadableDiagram(ac.Position)
	logger.Debug("move_diagram", zap.String("diagram", diagram))

	legal := chess.LegalMoves(ac.Position)
	if len(legal) == 0 {
		res.Outcome = chess.Rejected(chess.ReasonNoLegalMoves, "side to move has no legal moves")
		res.Latency = s.now().Sub(started)
		logger.Info("move_no_legal_moves")
		s.record(ctx, ac, res, logger)
		return res, nil
	}

	text, err := s.prompts.Build(diagram, ac.Rating, legal, ac.IsRetry)
	if err != nil {
		logger.Error("move_prompt_failed", zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrPromptUnavailable, err)
	}
	logger.Debug("move_prompt", zap.String("prompt", text))

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProposeTimeout)
	completion, err := s.proposer.Propose(callCtx, text)
	cancel()
	res.Latency = s.now().Sub(started)
	if err != nil {
		res.Outcome = chess.UpstreamFailure(err.Error())
		res.Timeout = isTimeout(err)
		logger.Warn("move_upstream_failed",
			zap.Bool("timeout", res.Timeout),
			zap.Duration("latency", res.Latency),
			zap.Error(err),
		)
		s.record(ctx, ac, res, logger)
		return res, nil
	}
	res.Completion = completion
	logger.Debug("move_suggestion", zap.String("completion", completion))

	res.Outcome = chess.Validate(ac.Position, completion)
	if res.IsAccepted() {
		logger.Info("move_accepted",
			zap.String("move", res.Move),
			zap.String("result_fen", res.Resulting.FEN()),
			zap.Duration("latency", res.Latency),
		)
	} else {
		logger.Info("move_rejected",
			zap.String("reason", string(res.Reason)),
			zap.String("completion", completion),
		)
	}
	s.record(ctx, ac, res, logger)
	return res, nil
}

// record never changes the outcome; failures are only logged.
func (s *Service) record(ctx context.Context, ac AttemptContext, res Result, logger *zap.Logger) {
	if s.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RecordTimeout)
	defer cancel()
	if err := s.recorder.Record(rctx, toAttempt(ac, res, s.now())); err != nil {
		logger.Warn("attempt_record_failed", zap.Error(err))
	}
}

func toAttempt(ac AttemptContext, res Result, at time.Time) domain.Attempt {
	a := domain.Attempt{
		ID:         res.AttemptID,
		CreatedAt:  at.UTC(),
		FEN:        ac.Position.FEN(),
		Rating:     ac.Rating.String(),
		Retry:      ac.IsRetry,
		Completion: res.Completion,
		Outcome:    res.Kind.String(),
		Move:       res.Move,
		Reason:     string(res.Reason),
		Detail:     res.Detail,
		Latency:    res.Latency,
	}
	if res.Resulting != nil {
		a.ResultFEN = res.Resulting.FEN()
	}
	return a
}

func isTimeout(err error) bool {
	return errors.Is(err, llm.ErrUpstreamTimeout) || errors.Is(err, context.DeadlineExceeded)
}
