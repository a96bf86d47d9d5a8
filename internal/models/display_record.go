package models

import "image/color"

// DisplayRecord is one renderable point produced by the display pipeline.
// Records are derived on demand and never persisted.
type DisplayRecord struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Position    Position         `json:"position"`
	Color       color.NRGBA      `json:"color"`
	Scale       float64          `json:"scale"`
	Visibility  *DisplayInterval `json:"visibility,omitempty"` // nil means always visible
	Description string           `json:"description"`
	Row         int              `json:"row"`
}

// RecordsResponse wraps the display records of a dataset
type RecordsResponse struct {
	DatasetID    string          `json:"datasetId"`
	DataVariable string          `json:"dataVariable"`
	ColorByValue bool            `json:"colorByValue"`
	Records      []DisplayRecord `json:"records"`
	Count        int             `json:"count"`
}
