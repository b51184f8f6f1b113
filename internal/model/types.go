// Package model defines shared data structures.
package model

import "time"

// Point is a position in the virtual pixel canvas.
type Point struct {
	X float64
	Y float64
}

// Target is a circular target. Immutable once generated.
type Target struct {
	X      float64
	Y      float64
	Radius float64
}

// Center returns the target center.
func (t Target) Center() Point {
	return Point{X: t.X, Y: t.Y}
}

// Width returns the target diameter, the W term of Fitts' Law.
func (t Target) Width() float64 {
	return t.Radius * 2
}

// TrialRecord captures one completed, scored trial.
type TrialRecord struct {
	Trial        int
	Distance     float64
	Width        float64
	Angle        float64
	ID           float64
	MovementTime float64
}

// Config defines experiment settings.
type Config struct {
	Name        string
	Device      string
	Trials      int
	Width       int
	Height      int
	Hold        time.Duration
	MinDistance float64
	RadiusMin   int
	RadiusMax   int
	FPS         int
	OutDir      string
}

// AnalyzeConfig defines batch analysis options.
type AnalyzeConfig struct {
	DefaultQuantile float64
	Quantiles       map[string]float64
	XMin            float64
	XMax            float64
	YMin            float64
	YMax            float64
	Out             string
}

// QuantileFor returns the trimming threshold configured for a dataset.
func (c AnalyzeConfig) QuantileFor(dataset string) float64 {
	if q, ok := c.Quantiles[dataset]; ok {
		return q
	}
	return c.DefaultQuantile
}

// SessionMeta describes a completed experiment session.
type SessionMeta struct {
	ID          string
	Participant string
	Device      string
	Requested   int
	StartedAt   time.Time
	EndedAt     time.Time
	LogPath     string
	PlotPath    string
}

// SessionAggregate summarizes a stored session for listing.
type SessionAggregate struct {
	SessionMeta
	Trials          int
	MeanID          float64
	MeanMovementSec float64
}

// HistoryFilter narrows stored sessions.
type HistoryFilter struct {
	Device      string
	Participant string
	Since       *time.Time
	Last        int
}
