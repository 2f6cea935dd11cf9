package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-llm-move/internal/chess"
)

var ErrIllegalHighlight = errors.New("highlight move is not legal in position")

const (
	defaultSquareSize = 64
	minSquareSize     = 24
	maxSquareSize     = 128
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	frameColor          = color.RGBA{40, 44, 58, 255}
	whiteMoveHighlight  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow      = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	neutralMoveArrow    = color.NRGBA{R: 182, G: 184, B: 190, A: 140}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
	boardRanks          = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	boardFiles          = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

type moveHighlight struct {
	From nchess.Square
	To   nchess.Square
}

// Renderer draws positions as PNG images. Rasterised pieces are cached per
// renderer.
type Renderer struct {
	squareSize int
	pieceDir   string
	logger     *zap.Logger

	mu     sync.RWMutex
	pieces map[pieceCacheKey]image.Image
}

type Option func(*Renderer)

func WithSquareSize(n int) Option {
	return func(r *Renderer) {
		if n >= minSquareSize && n <= maxSquareSize {
			r.squareSize = n
		}
	}
}

// WithPieceDir loads wK.svg .. bP.svg from dir, falling back to the built-in
// shapes for missing files.
func WithPieceDir(dir string) Option {
	return func(r *Renderer) { r.pieceDir = strings.TrimSpace(dir) }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		squareSize: defaultSquareSize,
		logger:     zap.NewNop(),
		pieces:     make(map[pieceCacheKey]image.Image),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderPNG draws pos. With a non-empty move the move must be legal; the
// board then shows the position after it with the from and to squares marked.
func (r *Renderer) RenderPNG(ctx context.Context, pos *chess.Position, move string) ([]byte, error) {
	if pos == nil {
		return nil, fmt.Errorf("position is nil")
	}

	board := pos.Board()
	var highlight *moveHighlight
	if move = strings.TrimSpace(move); move != "" {
		out := chess.Validate(pos, move)
		if !out.IsAccepted() {
			return nil, fmt.Errorf("%w: %s (%s)", ErrIllegalHighlight, move, out.Reason)
		}
		board = out.Resulting.Board()
		highlight = &moveHighlight{From: squareOf(out.Move[0:2]), To: squareOf(out.Move[2:4])}
	}

	sq := r.squareSize
	margin := sq / 2
	boardSize := sq * 8
	origin := image.Point{X: margin, Y: margin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+margin*2, boardSize+margin*2))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(frameColor), image.Point{}, imagedraw.Src)
	drawSquares(img, sq, origin)
	if err := r.drawPieces(img, board, sq, origin); err != nil {
		return nil, err
	}
	drawHighlight(img, board, highlight, sq, origin)
	drawCoordinates(img, sq, origin, margin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	r.logger.Debug("board_rendered", zap.String("fen", pos.FEN()), zap.String("move", move), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func squareOf(s string) nchess.Square {
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1'))
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row, rank := range boardRanks {
		for col, file := range boardFiles {
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			clr := squareColor(nchess.NewSquare(file, rank))
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func (r *Renderer) drawPieces(dst imagedraw.Image, board *nchess.Board, squareSize int, origin image.Point) error {
	boardMap := board.SquareMap()
	for row, rank := range boardRanks {
		for col, file := range boardFiles {
			piece := boardMap[nchess.NewSquare(file, rank)]
			if piece == nchess.NoPiece {
				continue
			}
			img, err := r.renderPieceImage(piece, squareSize)
			if err != nil {
				return err
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

// drawHighlight tints both squares for a white move and draws an arrow for a
// black one, so the side that moved reads at a glance.
func drawHighlight(img *image.RGBA, board *nchess.Board, h *moveHighlight, squareSize int, origin image.Point) {
	if h == nil {
		return
	}
	switch mover, ok := moverColor(board, h); {
	case ok && mover == nchess.White:
		drawSquareOverlay(img, h.From, squareSize, origin, whiteMoveHighlight)
		drawSquareOverlay(img, h.To, squareSize, origin, whiteMoveHighlight)
	case ok && mover == nchess.Black:
		drawSquareOverlay(img, h.From, squareSize, origin, blackMoveArrow)
		drawArrow(img, h.From, h.To, squareSize, origin, blackMoveArrow)
	default:
		drawArrow(img, h.From, h.To, squareSize, origin, neutralMoveArrow)
	}
}

func moverColor(board *nchess.Board, h *moveHighlight) (nchess.Color, bool) {
	if board == nil || h == nil {
		return nchess.NoColor, false
	}
	if piece := board.Piece(h.To); piece != nchess.NoPiece {
		return piece.Color(), true
	}
	return nchess.NoColor, false
}

func drawSquareOverlay(img *image.RGBA, sq nchess.Square, squareSize int, origin image.Point, clr color.Color) {
	rect := squareRect(sq, squareSize, origin)
	imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawArrow(img *image.RGBA, from, to nchess.Square, squareSize int, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	start := squareCenter(from, squareSize, origin)
	end := squareCenter(to, squareSize, origin)

	dx, dy := end.X-start.X, end.Y-start.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	size := float64(squareSize)
	baseLength := length - size*0.45
	if baseLength < size*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := size * 0.12
	headHalf := size * 0.22

	base := pointF{X: start.X + dirX*baseLength, Y: start.Y + dirY*baseLength}
	offset := func(p pointF, w float64) pointF { return pointF{X: p.X + perpX*w, Y: p.Y + perpY*w} }

	fillQuad(img, offset(start, -halfWidth), offset(start, halfWidth), offset(base, halfWidth), offset(base, -halfWidth), clr)
	fillTriangle(img, end, offset(base, -headHalf), offset(base, headHalf), clr)
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, margin int) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(coordinateTextColor),
		Face: basicfont.Face7x13,
	}
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()
	boardEnd := origin.Y + len(boardRanks)*squareSize

	for row, rank := range boardRanks {
		centerY := origin.Y + row*squareSize + squareSize/2
		drawCenteredText(drawer, rank.String(), origin.X-margin/2, centerY+ascent/2)
	}
	for col, file := range boardFiles {
		centerX := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, file.String(), centerX, boardEnd+(margin+ascent)/2)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func squareRect(sq nchess.Square, squareSize int, origin image.Point) image.Rectangle {
	row := 7 - int(sq.Rank())
	col := int(sq.File())
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareCenter(sq nchess.Square, squareSize int, origin image.Point) pointF {
	r := squareRect(sq, squareSize, origin)
	return pointF{X: float64(r.Min.X + squareSize/2), Y: float64(r.Min.Y + squareSize/2)}
}
