package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PNGOptions controls the size of each matrix cell in the output image
type PNGOptions struct {
	CellWidth  int
	CellHeight int
	// Labels draws the marker short names next to overlay lines
	Labels bool
}

// DefaultPNGOptions returns 2x2 pixel cells with labels
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{CellWidth: 2, CellHeight: 2, Labels: true}
}

// Image rasterizes s with the highest frequency on the top row
func Image(s *Surface, opts PNGOptions) (*image.RGBA, error) {
	if s.Rows() == 0 || s.Cols() == 0 {
		return nil, fmt.Errorf("%w: empty surface", ErrShapeMismatch)
	}
	cw, ch := max(opts.CellWidth, 1), max(opts.CellHeight, 1)
	rows, cols := s.Rows(), s.Cols()

	img := image.NewRGBA(image.Rect(0, 0, cols*cw, rows*ch))
	for f, row := range s.Pixels {
		y := (rows - 1 - f) * ch
		for t, c := range row {
			draw.Draw(img, image.Rect(t*cw, y, (t+1)*cw, y+ch), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}

	for _, o := range s.Overlays {
		y := (rows-1-o.Row)*ch + ch/2
		for x := 0; x < cols*cw; x++ {
			img.SetRGBA(x, y, o.RGBA)
		}
		if opts.Labels && o.Short != "" {
			drawLabel(img, 2, y-2, o.Short, o.RGBA)
		}
	}

	return img, nil
}

// EncodePNG writes s as a PNG image
func EncodePNG(w io.Writer, s *Surface, opts PNGOptions) error {
	img, err := Image(s, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func drawLabel(img draw.Image, x, y int, text string, c color.RGBA) {
	if y < basicfont.Face7x13.Ascent {
		y = basicfont.Face7x13.Ascent
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
