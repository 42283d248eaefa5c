// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mock provides a simulated location service for development
// without GNSS hardware.
package mock

import (
	"context"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/geolocation/internal/gps"
	"github.com/relabs-tech/geolocation/internal/platform"
)

const (
	trackRadiusMeters = 200.0
	metersPerDegree   = 111320.0
	// angular speed of the simulated walk around the track, rad/s
	angularSpeed = 0.05
)

// Source generates a smooth circular track around an origin.
type Source struct {
	*platform.Hub

	origin   gps.Location
	interval time.Duration
	clock    clockwork.Clock
	start    time.Time
}

var _ platform.Service = (*Source)(nil)

// NewSource creates a mock source centered on lat/lon that produces one
// sample per interval once Run is called.
func NewSource(lat, lon float64, interval time.Duration, clock clockwork.Clock) *Source {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Source{
		Hub:      platform.NewHub(clock),
		origin:   gps.Location{Latitude: lat, Longitude: lon},
		interval: interval,
		clock:    clock,
		start:    clock.Now(),
	}
}

// Run publishes samples until ctx is cancelled.
func (s *Source) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Shutdown(platform.NewError(platform.CodeSwitchOff, "mock source stopped"))
			return ctx.Err()
		case t := <-ticker.Chan():
			s.Publish(s.Sample(t))
		}
	}
}

// Sample returns the simulated position at t.
func (s *Source) Sample(t time.Time) gps.Location {
	elapsed := t.Sub(s.start).Seconds()
	theta := elapsed * angularSpeed

	dNorth := trackRadiusMeters * math.Sin(theta)
	dEast := trackRadiusMeters * math.Cos(theta)
	latRad := s.origin.Latitude * math.Pi / 180

	heading := math.Mod(360-theta*180/math.Pi, 360)
	if heading < 0 {
		heading += 360
	}

	return gps.Location{
		Latitude:  s.origin.Latitude + dNorth/metersPerDegree,
		Longitude: s.origin.Longitude + dEast/(metersPerDegree*math.Cos(latRad)),
		Altitude:  20 + 2*math.Sin(elapsed*0.1),
		Accuracy:  5,
		Direction: heading,
		Speed:     trackRadiusMeters * angularSpeed,
		TimeStamp: t.UnixMilli(),
	}
}
