// Package czml writes display records as a CZML document.
package czml

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"

	"github.com/jengzang/tableviz/internal/models"
)

// Packet is one CZML packet. The first packet of a document has id "document".
type Packet struct {
	ID           string     `json:"id"`
	Version      string     `json:"version,omitempty"`
	Name         string     `json:"name,omitempty"`
	Clock        *Clock     `json:"clock,omitempty"`
	Description  string     `json:"description,omitempty"`
	Availability string     `json:"availability,omitempty"`
	Position     *Position  `json:"position,omitempty"`
	Point        *Point     `json:"point,omitempty"`
	Billboard    *Billboard `json:"billboard,omitempty"`
}

// Clock is the document clock spanning the availability of all packets
type Clock struct {
	Interval    string  `json:"interval"`
	CurrentTime string  `json:"currentTime"`
	Multiplier  float64 `json:"multiplier"`
}

// Position holds [lon, lat, height] in degrees and meters
type Position struct {
	CartographicDegrees [3]float64 `json:"cartographicDegrees"`
}

// Color is an RGBA color with 0-255 components
type Color struct {
	RGBA [4]uint8 `json:"rgba"`
}

// Show is one entry of an interval list of booleans
type Show struct {
	Interval string `json:"interval,omitempty"`
	Boolean  bool   `json:"boolean"`
}

// Point is a colored dot graphic
type Point struct {
	OutlineColor Color   `json:"outlineColor"`
	OutlineWidth float64 `json:"outlineWidth"`
	PixelSize    float64 `json:"pixelSize"`
	Color        Color   `json:"color"`
	Show         []Show  `json:"show"`
}

// Billboard is an image graphic
type Billboard struct {
	HorizontalOrigin string  `json:"horizontalOrigin"`
	VerticalOrigin   string  `json:"verticalOrigin"`
	Image            string  `json:"image"`
	Scale            float64 `json:"scale"`
	Color            Color   `json:"color"`
	Show             []Show  `json:"show"`
}

// BasePixelSize is the point size at scale 1
const BasePixelSize = 8.0

// Options controls document generation
type Options struct {
	Name string
	// ImageURL switches packets from points to billboards
	ImageURL string
	// Span sets the document clock; nil omits it
	Span *models.DisplayInterval
	// Multiplier is the clock speed; zero means real time
	Multiplier float64
}

// Document builds the packet list for records, document packet first
func Document(records []models.DisplayRecord, opts Options) []Packet {
	doc := Packet{ID: "document", Version: "1.0", Name: opts.Name}
	if opts.Span != nil {
		multiplier := opts.Multiplier
		if multiplier == 0 {
			multiplier = 1
		}
		doc.Clock = &Clock{
			Interval:    opts.Span.ISO8601(),
			CurrentTime: opts.Span.Start.UTC().Format("2006-01-02T15:04:05Z"),
			Multiplier:  multiplier,
		}
	}

	packets := make([]Packet, 0, len(records)+1)
	packets = append(packets, doc)
	for _, r := range records {
		packets = append(packets, FromRecord(r, opts.ImageURL))
	}
	return packets
}

// FromRecord converts one display record. Records with a visibility
// interval are hidden outside it; records without one are always shown.
func FromRecord(r models.DisplayRecord, imageURL string) Packet {
	p := Packet{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Position: &Position{
			CartographicDegrees: [3]float64{r.Position.Lon, r.Position.Lat, r.Position.Height},
		},
	}

	show := []Show{{Boolean: true}}
	if r.Visibility != nil {
		p.Availability = r.Visibility.ISO8601()
		show = []Show{{Boolean: false}, {Interval: p.Availability, Boolean: true}}
	}

	c := toColor(r.Color)
	if imageURL == "" {
		p.Point = &Point{
			OutlineColor: Color{RGBA: [4]uint8{0, 0, 0, 255}},
			OutlineWidth: 1,
			PixelSize:    BasePixelSize * r.Scale,
			Color:        c,
			Show:         show,
		}
	} else {
		p.Billboard = &Billboard{
			HorizontalOrigin: "CENTER",
			VerticalOrigin:   "BOTTOM",
			Image:            imageURL,
			Scale:            r.Scale,
			Color:            c,
			Show:             show,
		}
	}
	return p
}

func toColor(c color.NRGBA) Color {
	return Color{RGBA: [4]uint8{c.R, c.G, c.B, c.A}}
}

// Encode writes packets as a JSON array
func Encode(w io.Writer, packets []Packet) error {
	if err := json.NewEncoder(w).Encode(packets); err != nil {
		return fmt.Errorf("failed to encode czml: %w", err)
	}
	return nil
}
