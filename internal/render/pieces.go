package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const (
	whiteFill   = "#f8f8f8"
	whiteStroke = "#202020"
	blackFill   = "#2a2a2a"
	blackStroke = "#0a0a0a"
)

// Built-in piece outlines on a 45x45 view box. %[1]s is fill, %[2]s stroke.
var pieceShapes = map[nchess.PieceType]string{
	nchess.Pawn: `<circle cx="22.5" cy="14" r="6" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 13 38 L 32 38 L 28 24 L 17 24 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.Rook: `<path d="M 11 38 L 34 38 L 34 34 L 30 34 L 30 17 L 33 14 L 33 9 L 29 9 L 29 12 L 25 12 L 25 9 L 20 9 L 20 12 L 16 12 L 16 9 L 12 9 L 12 14 L 15 17 L 15 34 L 11 34 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.Knight: `<path d="M 12 38 L 33 38 L 31 30 C 31 22 30 14 24 10 L 22 7 L 19 11 C 15 13 11 18 10 22 L 13 24 L 18 21 C 19 24 16 27 14 30 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.Bishop: `<circle cx="22.5" cy="8" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 22.5 11 C 16 16 15 22 18 27 L 27 27 C 30 22 29 16 22.5 11 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 12 38 L 33 38 L 30 31 L 15 31 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.Queen: `<path d="M 9 26 L 12 12 L 17 22 L 22.5 9 L 28 22 L 33 12 L 36 26 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 11 38 L 34 38 L 32 28 L 13 28 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.King: `<path d="M 21 4 L 24 4 L 24 8 L 28 8 L 28 11 L 24 11 L 24 15 L 21 15 L 21 11 L 17 11 L 17 8 L 21 8 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1"/>
<path d="M 12 30 C 8 22 14 16 22.5 20 C 31 16 37 22 33 30 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 12 38 L 33 38 L 33 32 L 12 32 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
}

// svgStyleFixer patches style quirks oksvg rejects in common piece sets.
var svgStyleFixer = strings.NewReplacer(
	"fill:000000", "fill:#000000",
	"fill: 000000", "fill:#000000",
	"stroke: 000000", "stroke:#000000",
	"fill: #", "fill:#",
	"stroke: #", "stroke:#",
	"stop-color: #", "stop-color:#",
)

type pieceCacheKey struct {
	piece nchess.Piece
	size  int
}

func builtinPieceSVG(piece nchess.Piece) ([]byte, error) {
	shape, ok := pieceShapes[piece.Type()]
	if !ok {
		return nil, fmt.Errorf("no shape for piece %v", piece)
	}
	fill, stroke := whiteFill, whiteStroke
	if piece.Color() == nchess.Black {
		fill, stroke = blackFill, blackStroke
	}
	body := fmt.Sprintf(shape, fill, stroke)
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` + body + `</svg>`), nil
}

func (r *Renderer) pieceSVG(piece nchess.Piece) ([]byte, error) {
	if r.pieceDir != "" {
		name := filepath.Join(r.pieceDir, pieceAssetName(piece))
		data, err := os.ReadFile(name)
		if err == nil {
			return []byte(svgStyleFixer.Replace(string(data))), nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read piece asset %s: %w", name, err)
		}
	}
	return builtinPieceSVG(piece)
}

func (r *Renderer) renderPieceImage(piece nchess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	r.mu.RLock()
	if img, ok := r.pieces[key]; ok {
		r.mu.RUnlock()
		return img, nil
	}
	r.mu.RUnlock()

	data, err := r.pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	r.mu.Lock()
	r.pieces[key] = img
	r.mu.Unlock()
	return img, nil
}

// pieceAssetName follows the common wK.svg / bP.svg naming.
func pieceAssetName(piece nchess.Piece) string {
	prefix := "w"
	if piece.Color() == nchess.Black {
		prefix = "b"
	}
	var suffix string
	switch piece.Type() {
	case nchess.King:
		suffix = "K"
	case nchess.Queen:
		suffix = "Q"
	case nchess.Rook:
		suffix = "R"
	case nchess.Bishop:
		suffix = "B"
	case nchess.Knight:
		suffix = "N"
	case nchess.Pawn:
		suffix = "P"
	}
	return prefix + suffix + ".svg"
}
