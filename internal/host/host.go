// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package host describes the application side that receives geolocation
// events.
package host

// Event names emitted to the host application.
const (
	EventLocationChange = "geolocationDidChange"
	EventLocationError  = "geolocationError"
)

// Binding delivers a named event to every listener the host application
// registered for it. Delivery is fire-and-forget.
type Binding interface {
	EmitDeviceEvent(name string, payload any)
}

// ErrorEvent is the payload of EventLocationError.
type ErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// BindingFunc adapts a function to Binding.
type BindingFunc func(name string, payload any)

func (f BindingFunc) EmitDeviceEvent(name string, payload any) {
	f(name, payload)
}
