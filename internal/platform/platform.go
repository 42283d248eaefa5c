// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package platform defines the contract of a device location service: a
// single-shot current-location request and a continuous location-change
// stream.
package platform

import (
	"fmt"

	"github.com/relabs-tech/geolocation/internal/gps"
)

// Request priorities.
const (
	PriorityUnset        = 0x200
	PriorityAccuracy     = 0x201
	PriorityLowPower     = 0x202
	PriorityFirstFix     = 0x203
	ScenarioUnset        = 0x300
	ScenarioNavigation   = 0x301
	ScenarioTrajectory   = 0x302
	ScenarioCarHailing   = 0x303
	ScenarioDailyService = 0x304
	ScenarioNoPower      = 0x305
)

// DefaultTimeoutMs bounds a current-location request when the caller gives
// no timeout.
const DefaultTimeoutMs = 2000

// CurrentRequest describes a single-shot location request.
type CurrentRequest struct {
	Priority    int     `json:"priority"`
	Scenario    int     `json:"scenario"`
	MaxAccuracy float64 `json:"maxAccuracy"` // meters, 0 = no limit
	TimeoutMs   int64   `json:"timeoutMs"`
}

// DefaultCurrentRequest returns the request used when the caller overrides
// nothing.
func DefaultCurrentRequest() CurrentRequest {
	return CurrentRequest{
		Priority:    PriorityFirstFix,
		Scenario:    ScenarioUnset,
		MaxAccuracy: 0,
		TimeoutMs:   DefaultTimeoutMs,
	}
}

// ObserveRequest describes a continuous location-change subscription.
type ObserveRequest struct {
	Priority         int     `json:"priority"`
	Scenario         int     `json:"scenario"`
	TimeInterval     int     `json:"timeInterval" validate:"gte=0"`     // seconds between reports, 0 = every sample
	DistanceInterval float64 `json:"distanceInterval" validate:"gte=0"` // meters
	MaxAccuracy      float64 `json:"maxAccuracy" validate:"gte=0"`
}

// Listener receives every sample of a subscription.
type Listener func(gps.Location)

// Subscription identifies one registered listener.
type Subscription string

// Service is a device location service.
//
// GetCurrentLocation and Subscribe report an unavailable or forbidden
// service synchronously through their error return. Once
// GetCurrentLocation returned nil, cb is invoked exactly once, from another
// goroutine, with either an error or a location.
type Service interface {
	GetCurrentLocation(req CurrentRequest, cb func(error, *gps.Location)) error
	Subscribe(req ObserveRequest, l Listener) (Subscription, error)
	Unsubscribe(sub Subscription) error
}

// Location service error codes.
const (
	CodePermissionDenied   = 201
	CodeServiceUnavailable = 3301000
	CodeSwitchOff          = 3301100
	CodeLocatingFailed     = 3301200
	CodeNotSubscribed      = 3301500
)

// BusinessError is the error type every Service returns.
type BusinessError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("location service error %d: %s", e.Code, e.Message)
}

// NewError builds a BusinessError.
func NewError(code int, format string, args ...any) *BusinessError {
	return &BusinessError{Code: code, Message: fmt.Sprintf(format, args...)}
}
