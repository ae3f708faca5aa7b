package model

import (
	"bytes"
	"image/color"

	"github.com/disintegration/imaging"
)

// ScoreThumbnailer renders a flat grayscale square whose brightness
// encodes the tile's score. It stands in for cropping the tile out of
// the source imagery.
type ScoreThumbnailer struct {
	Size int // edge length in pixels; defaults to 128
}

// Render encodes the thumbnail as PNG.
func (t *ScoreThumbnailer) Render(tile Tile, det Detection) ([]byte, string, error) {
	size := t.Size
	if size <= 0 {
		size = 128
	}

	v := uint8(det.Score * 255)
	img := imaging.New(size, size, color.NRGBA{R: v, G: v, B: v, A: 255})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}

var _ Thumbnailer = (*ScoreThumbnailer)(nil)
