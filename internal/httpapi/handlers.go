package httpapi

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-llm-move/internal/attempts"
	"github.com/park285/cheese-llm-move/internal/chess"
	"github.com/park285/cheese-llm-move/internal/domain"
	"github.com/park285/cheese-llm-move/internal/render"
	"github.com/park285/cheese-llm-move/internal/service/move"
	"github.com/park285/cheese-llm-move/pkg/movedto"
)

func (h *handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"time":     time.Now().Unix(),
		"attempts": h.attempts != nil,
		"renderer": h.renderer != nil,
	})
}

func (h *handler) postMove(retry bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, ok := c.Locals(localMoveRequest).(*movedto.MoveRequest)
		if !ok || req == nil {
			return fiber.NewError(fiber.StatusBadRequest, "missing request body")
		}

		var (
			res move.Result
			err error
		)
		if retry {
			res, err = h.moves.RetryMove(c.UserContext(), req.FEN, req.Rating)
		} else {
			res, err = h.moves.ProposeMove(c.UserContext(), req.FEN, req.Rating)
		}
		body, status := move.ToResponse(res, err)
		if status >= fiber.StatusInternalServerError && err != nil {
			h.logger.Error("move_request_failed", zap.Bool("retry", retry), zap.Error(err))
		}
		return c.Status(status).JSON(body)
	}
}

// postApply plays a move entered by a person. No model is involved.
func (h *handler) postApply(c *fiber.Ctx) error {
	req, ok := c.Locals(localApplyRequest).(*movedto.ApplyRequest)
	if !ok || req == nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing request body")
	}
	pos, err := chess.ParsePosition(req.FEN)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(movedto.MoveResponse{
			Error:  "Invalid FEN",
			Code:   movedto.CodeMalformedPosition,
			Detail: err.Error(),
		})
	}

	out := chess.Validate(pos, req.Move)
	if out.IsAccepted() {
		return c.JSON(movedto.MoveResponse{
			Move:      out.Move,
			ResultFEN: out.Resulting.FEN(),
			Status:    move.StatusOf(out.Resulting),
		})
	}

	body := movedto.MoveResponse{
		Error:  "Invalid move",
		Code:   movedto.CodeMoveIllegal,
		Detail: out.Detail,
		Status: move.StatusOf(pos),
	}
	switch {
	case out.Reason == chess.ReasonUnparseable:
		body.Code = movedto.CodeMoveUnparseable
	case len(chess.LegalMoves(pos)) == 0:
		body.Error = "Game is over"
		body.Code = movedto.CodeNoLegalMoves
		return c.Status(fiber.StatusConflict).JSON(body)
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
}

func (h *handler) getAttempts(c *fiber.Ctx) error {
	if h.attempts == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "attempt history is not configured")
	}
	pos, err := chess.ParsePosition(c.Query("fen"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(movedto.MoveResponse{
			Error:  "Invalid FEN",
			Code:   movedto.CodeMalformedPosition,
			Detail: err.Error(),
		})
	}
	limit := c.QueryInt("limit", attempts.DefaultLimit)

	list, err := h.attempts.Recent(c.UserContext(), pos.FEN(), limit)
	if err != nil {
		h.logger.Warn("attempts_read_failed", zap.String("fen", pos.FEN()), zap.Error(err))
		return fiber.NewError(fiber.StatusServiceUnavailable, "attempt history unavailable")
	}
	out := movedto.AttemptsResponse{Attempts: make([]movedto.AttemptView, 0, len(list))}
	for _, a := range list {
		out.Attempts = append(out.Attempts, toView(a))
	}
	return c.JSON(out)
}

func toView(a domain.Attempt) movedto.AttemptView {
	return movedto.AttemptView{
		ID:         a.ID,
		CreatedAt:  a.CreatedAt,
		FEN:        a.FEN,
		Rating:     a.Rating,
		Retry:      a.Retry,
		Completion: a.Completion,
		Outcome:    a.Outcome,
		Move:       a.Move,
		Reason:     a.Reason,
		Detail:     a.Detail,
		ResultFEN:  a.ResultFEN,
		LatencyMS:  a.Latency.Milliseconds(),
	}
}

func (h *handler) getBoard(c *fiber.Ctx) error {
	if h.renderer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "board renderer is not configured")
	}
	pos, err := chess.ParsePosition(c.Query("fen"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(movedto.MoveResponse{
			Error:  "Invalid FEN",
			Code:   movedto.CodeMalformedPosition,
			Detail: err.Error(),
		})
	}
	data, err := h.renderer.RenderPNG(c.UserContext(), pos, c.Query("move"))
	if err != nil {
		if errors.Is(err, render.ErrIllegalHighlight) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(movedto.MoveResponse{
				Error:  "Invalid move",
				Code:   movedto.CodeMoveIllegal,
				Detail: err.Error(),
			})
		}
		h.logger.Error("board_render_failed", zap.String("fen", pos.FEN()), zap.Error(err))
		return err
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	c.Type("png")
	return c.Send(data)
}

// static serves the embedded page. Unknown paths fall back to index.html.
func (h *handler) static(c *fiber.Ctx) error {
	path := c.Path()
	if path == "/" {
		path = "/index.html"
	}
	fsPath := strings.TrimPrefix(path, "/")

	data, err := fs.ReadFile(h.web, fsPath)
	if err != nil {
		data, err = fs.ReadFile(h.web, "index.html")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "index.html not found")
		}
		fsPath = "index.html"
	}

	switch {
	case strings.HasSuffix(fsPath, ".html"):
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	case strings.HasSuffix(fsPath, ".js"):
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJavaScriptCharsetUTF8)
	case strings.HasSuffix(fsPath, ".css"):
		c.Set(fiber.HeaderContentType, "text/css; charset=utf-8")
	default:
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	}
	return c.Send(data)
}
