// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "math"

// Location is a single sample as reported by a location service.
type Location struct {
	Latitude  float64 `json:"latitude"`  // decimal degrees
	Longitude float64 `json:"longitude"` // decimal degrees
	Altitude  float64 `json:"altitude"`  // meters above mean sea level
	Accuracy  float64 `json:"accuracy"`  // meters
	Direction float64 `json:"direction"` // course over ground, degrees
	Speed     float64 `json:"speed"`     // meters per second
	TimeStamp int64   `json:"timeStamp"` // ms since epoch
}

// Coords is the coordinate block of a Position.
type Coords struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Accuracy  float64 `json:"accuracy"`
	Heading   float64 `json:"heading"`
	Speed     float64 `json:"speed"`
}

// Position is the fix delivered to the host application, both as a
// one-shot result and as the payload of geolocationDidChange.
type Position struct {
	Coords    Coords `json:"coords"`
	TimeStamp int64  `json:"timeStamp"` // ms since epoch
}

// NewPosition builds the host-facing fix from a service sample.
func NewPosition(l Location) Position {
	return Position{
		Coords: Coords{
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
			Altitude:  l.Altitude,
			Accuracy:  l.Accuracy,
			Heading:   l.Direction,
			Speed:     l.Speed,
		},
		TimeStamp: l.TimeStamp,
	}
}

const earthRadiusMeters = 6371008.8

// Distance returns the great-circle distance between two samples in meters.
func Distance(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
