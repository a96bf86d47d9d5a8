package viz

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/jengzang/tableviz/internal/models"
)

// Legend geometry, in pixels
const (
	LegendWidth        = 210
	LegendHeightSingle = 60
	LegendHeightRanged = 160
	gradientWidth      = 30
	gradientHeightOne  = 28
	gradientHeightMany = 128
	gradientLeft       = 15
	gradientBottomPad  = 5
	labelLeft          = gradientWidth + 25
	titleFontSize      = 15
	labelFontSize      = 14
)

var (
	legendBackground = color.NRGBA{0x2F, 0x35, 0x3C, 0xFF}
	legendText       = color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	legendTick       = color.NRGBA{0x00, 0x00, 0x00, 0xFF}
)

// Surface is the drawing target of a legend
type Surface interface {
	FillBackground(c color.Color)
	// FillVerticalGradient fills the rectangle with stops running from
	// offset 0 at the bottom edge to offset 1 at the top edge
	FillVerticalGradient(x, y, w, h float64, stops []models.ColorStop)
	DrawLine(x1, y1, x2, y2 float64, c color.Color)
	// DrawText draws s with its baseline at y
	DrawText(s string, x, y, size float64, c color.Color)
	EncodePNG(w io.Writer) error
}

// SurfaceFactory creates a blank surface of the given size
type SurfaceFactory func(width, height int) (Surface, error)

// LegendRenderer draws color ramp legends
type LegendRenderer struct {
	NewSurface SurfaceFactory
}

// NewLegendRenderer returns a renderer drawing on gg surfaces. An empty
// fontPath uses the built-in bitmap font.
func NewLegendRenderer(fontPath string) *LegendRenderer {
	return &LegendRenderer{NewSurface: GGSurfaceFactory(fontPath)}
}

// Render draws the legend of ramp over [min,max] and returns PNG bytes.
// A fixed-color ramp has no legend and returns nil, nil.
func (r *LegendRenderer) Render(ramp *Ramp, min, max float64, ticks int, label string) ([]byte, error) {
	if ramp == nil || !ramp.ColorByValue() {
		return nil, nil
	}

	single := min == max
	height, gradH, segments := LegendHeightRanged, float64(gradientHeightMany), ticks+1
	stops := ramp.Stops()
	if single {
		height, gradH, segments = LegendHeightSingle, float64(gradientHeightOne), 0
		stops = stops[:1]
	}

	s, err := r.NewSurface(LegendWidth, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create legend surface: %w", err)
	}
	h := float64(height)
	bottom := h - gradientBottomPad

	s.FillBackground(legendBackground)
	s.FillVerticalGradient(gradientLeft, bottom-gradH, gradientWidth, gradH, stops)

	for i := 1; i < segments; i++ {
		y := bottom - gradH*float64(i)/float64(segments)
		s.DrawLine(gradientLeft, y, gradientLeft+gradientWidth, y, legendTick)
	}

	s.DrawText(label, 5, 12, titleFontSize, legendText)
	if single {
		s.DrawText(FormatLegendValue(min), labelLeft, h-gradH/2, labelFontSize, legendText)
	} else {
		s.DrawText(FormatLegendValue(max), labelLeft, h-gradH, labelFontSize, legendText)
		s.DrawText(FormatLegendValue(min), labelLeft, h, labelFontSize, legendText)
	}
	for i := 1; i < segments; i++ {
		ht := gradH * float64(i) / float64(segments)
		v := min + (max-min)*float64(segments-i)/float64(segments)
		s.DrawText(FormatLegendValue(v), labelLeft, ht+32, labelFontSize, legendText)
	}

	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode legend: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatLegendValue rounds v to two decimals, half up, without trailing zeros
func FormatLegendValue(v float64) string {
	r := math.Floor(v*100+0.5) / 100
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// DataURI wraps PNG bytes in a data URL
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

type ggSurface struct {
	dc    *gg.Context
	faces map[float64]font.Face
}

// GGSurfaceFactory creates surfaces backed by a gg context. Text uses the
// TrueType font at fontPath, or basicfont when fontPath is empty.
func GGSurfaceFactory(fontPath string) SurfaceFactory {
	return func(width, height int) (Surface, error) {
		s := &ggSurface{
			dc:    gg.NewContext(width, height),
			faces: make(map[float64]font.Face),
		}
		if fontPath != "" {
			for _, size := range []float64{titleFontSize, labelFontSize} {
				face, err := gg.LoadFontFace(fontPath, size)
				if err != nil {
					return nil, fmt.Errorf("failed to load font %s: %w", fontPath, err)
				}
				s.faces[size] = face
			}
		}
		return s, nil
	}
}

func (s *ggSurface) FillBackground(c color.Color) {
	s.dc.SetColor(c)
	s.dc.Clear()
}

func (s *ggSurface) FillVerticalGradient(x, y, w, h float64, stops []models.ColorStop) {
	grad := gg.NewLinearGradient(0, y+h, 0, y)
	for _, st := range stops {
		grad.AddColorStop(st.Offset, st.Color)
	}
	s.dc.SetFillStyle(grad)
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *ggSurface) DrawLine(x1, y1, x2, y2 float64, c color.Color) {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(1)
	s.dc.DrawLine(x1, y1, x2, y2)
	s.dc.Stroke()
}

func (s *ggSurface) DrawText(str string, x, y, size float64, c color.Color) {
	if str == "" {
		return
	}
	face, ok := s.faces[size]
	if !ok {
		face = basicfont.Face7x13
	}
	s.dc.SetFontFace(face)
	s.dc.SetColor(c)
	s.dc.DrawString(str, x, y)
}

func (s *ggSurface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}
