package models

import "time"

// Dataset is the persisted form of an uploaded table
type Dataset struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	SourceURL string    `json:"sourceUrl,omitempty" db:"source_url"`
	Content   string    `json:"-" db:"content"` // Raw CSV text
	StyleJSON string    `json:"-" db:"style_json"`
	RowCount  int       `json:"rowCount" db:"row_count"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// DatasetFilter represents filter parameters for listing datasets
type DatasetFilter struct {
	Name     string `form:"name"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// DatasetsResponse represents a paginated response of datasets
type DatasetsResponse struct {
	Data       []Dataset `json:"data"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}

// CreateDatasetRequest is the JSON body accepted by POST /datasets
type CreateDatasetRequest struct {
	Name    string      `json:"name"`
	URL     string      `json:"url"`
	Content string      `json:"content"`
	Style   *StylePatch `json:"style,omitempty"`
}

// DatasetSummary holds summary statistics for the active data variable
type DatasetSummary struct {
	DataVariable string     `json:"dataVariable"`
	Variables    []string   `json:"variables"`
	PointCount   int        `json:"pointCount"`
	NoDataCount  int        `json:"noDataCount"`
	Min          float64    `json:"min"`
	Q1           float64    `json:"q1"`
	Median       float64    `json:"median"`
	Q3           float64    `json:"q3"`
	Max          float64    `json:"max"`
	Mean         float64    `json:"mean"`
	HasTime      bool       `json:"hasTime"`
	TimeMin      *time.Time `json:"timeMin,omitempty"`
	TimeMax      *time.Time `json:"timeMax,omitempty"`
	TimeSlices   int        `json:"timeSlices"`
	Bounds       *Bounds    `json:"bounds,omitempty"`
	Center       *Position  `json:"center,omitempty"`
	ExtentMeters float64    `json:"extentMeters"` // Diagonal of Bounds
}

// Bounds is a lat/lon bounding rectangle in degrees
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// LoadEvent records one attempt to (re)load a dataset
type LoadEvent struct {
	ID        int64     `json:"id" db:"id"`
	DatasetID string    `json:"datasetId" db:"dataset_id"`
	Source    string    `json:"source" db:"source"` // upload, url, refresh
	Status    string    `json:"status" db:"status"`
	Message   string    `json:"message,omitempty" db:"message"`
	RowCount  int       `json:"rowCount" db:"row_count"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Load sources
const (
	LoadSourceUpload  = "upload"
	LoadSourceURL     = "url"
	LoadSourceRefresh = "refresh"
)

// Load statuses
const (
	LoadStatusCompleted  = "completed"
	LoadStatusFailed     = "failed"
	LoadStatusSuperseded = "superseded"
)
