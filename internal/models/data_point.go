package models

import "time"

// Position is a cartographic position in degrees, height in meters
type Position struct {
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Height float64 `json:"height"`
}

// DataPoint represents one geolocated observation taken from a row of the source table
type DataPoint struct {
	Position Position   `json:"position"`
	Value    float64    `json:"value"`
	NoData   bool       `json:"noData"`         // Value is the dataset's no-data sentinel
	Time     *time.Time `json:"time,omitempty"` // nil when the dataset has no time column
	Row      int        `json:"row"`            // Index into the source table
}

// DisplayInterval is the visibility window of one display record
type DisplayInterval struct {
	Start  time.Time `json:"start"`
	Finish time.Time `json:"finish"`
}

// ISO8601 formats the interval as "start/finish", the form used for availability strings
func (i DisplayInterval) ISO8601() string {
	return i.Start.UTC().Format(time.RFC3339) + "/" + i.Finish.UTC().Format(time.RFC3339)
}

// Contains reports whether t lies within [Start, Finish]
func (i DisplayInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.Finish)
}
