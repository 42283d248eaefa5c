// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geolocation exposes a location service to a host application:
// single current-location requests with a one-slot cache, and continuous
// location-change events.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/geolocation/internal/gps"
	"github.com/relabs-tech/geolocation/internal/host"
	"github.com/relabs-tech/geolocation/internal/observability"
	"github.com/relabs-tech/geolocation/internal/platform"
)

// ErrorInfo is passed to the error callback of GetCurrentLocation.
type ErrorInfo struct {
	ErrCode    int    `json:"errCode"`
	ErrMessage string `json:"errMessage"`
}

func (e ErrorInfo) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.ErrCode, e.ErrMessage)
}

func errorInfo(err error) ErrorInfo {
	var be *platform.BusinessError
	if errors.As(err, &be) {
		return ErrorInfo{ErrCode: be.Code, ErrMessage: be.Message}
	}
	return ErrorInfo{ErrCode: platform.CodeServiceUnavailable, ErrMessage: err.Error()}
}

// Adapter forwards requests to a location service and translates its
// results into callbacks and host events.
//
// The adapter owns the cache slot, the host binding and the subscription
// handles. Overlapping GetCurrentLocation calls are not serialized against
// each other: the last fresh fix wins the cache slot.
type Adapter struct {
	svc     platform.Service
	clock   clockwork.Clock
	logger  zerolog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	binding host.Binding
	cache   *gps.Position
	subs    []platform.Subscription
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock sets the clock used to age cached fixes.
func WithClock(c clockwork.Clock) Option {
	return func(a *Adapter) { a.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithBinding sets the initial host binding.
func WithBinding(b host.Binding) Option {
	return func(a *Adapter) { a.binding = b }
}

// New creates an adapter on top of svc.
func New(svc platform.Service, opts ...Option) *Adapter {
	a := &Adapter{
		svc:    svc,
		clock:  clockwork.NewRealClock(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With().Str("module", "LocationManager").Logger()
	return a
}

// SetHostBinding replaces the binding events are delivered to.
func (a *Adapter) SetHostBinding(b host.Binding) {
	a.mu.Lock()
	a.binding = b
	a.mu.Unlock()
}

// CachedPosition returns the cached fix, if any.
func (a *Adapter) CachedPosition() (gps.Position, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cache == nil {
		return gps.Position{}, false
	}
	return *a.cache, true
}

// GetCurrentLocation answers with one fix, either from the cache or from a
// fresh service request, as selected by opts.MaximumAge:
//
//   - explicit 0: always a fresh request; the cache is neither read nor written.
//   - empty cache: a fresh request; the result is cached when MaximumAge is
//     positive or Infinity.
//   - cached fix within MaximumAge: served from the cache.
//   - cached fix too old (or MaximumAge unset): the cache is cleared and a
//     fresh request is issued.
//
// With Infinity and a cached fix, onSuccess is called for the Infinity rule
// and again for the age rule, which Infinity always satisfies.
//
// A fresh request ends in exactly one of onSuccess or onError, delivered
// asynchronously unless the service refuses the request outright.
func (a *Adapter) GetCurrentLocation(opts Options, onSuccess func(gps.Position), onError func(ErrorInfo)) {
	a.logger.Debug().Str("maximumAge", opts.MaximumAge.String()).Msg("getCurrentLocation enter")

	req := opts.currentRequest()
	age := opts.MaximumAge

	if age.forcesFresh() {
		a.request(req, age, onSuccess, onError)
		return
	}

	a.mu.Lock()
	cached := a.cache
	a.mu.Unlock()

	if cached == nil {
		a.request(req, age, onSuccess, onError)
		return
	}

	if age.IsInfinite() {
		a.serveCached(*cached, onSuccess)
	}

	if age.admits(a.clock.Now().UnixMilli() - cached.TimeStamp) {
		a.serveCached(*cached, onSuccess)
		return
	}

	a.mu.Lock()
	a.cache = nil
	a.mu.Unlock()
	a.request(req, age, onSuccess, onError)
}

// CurrentLocation is the blocking form of GetCurrentLocation. It resolves
// once with the first outcome; cancelling ctx abandons the wait but not the
// service request.
func (a *Adapter) CurrentLocation(ctx context.Context, opts Options) (gps.Position, error) {
	type outcome struct {
		pos gps.Position
		err error
	}

	ch := make(chan outcome, 1)
	var once sync.Once
	a.GetCurrentLocation(opts,
		func(p gps.Position) { once.Do(func() { ch <- outcome{pos: p} }) },
		func(e ErrorInfo) { once.Do(func() { ch <- outcome{err: e} }) },
	)

	select {
	case o := <-ch:
		return o.pos, o.err
	case <-ctx.Done():
		return gps.Position{}, ctx.Err()
	}
}

func (a *Adapter) serveCached(pos gps.Position, onSuccess func(gps.Position)) {
	a.logger.Debug().Int64("timeStamp", pos.TimeStamp).Msg("serving cached position")
	a.countRequest("cache")
	a.succeed(onSuccess, pos)
}

func (a *Adapter) request(req platform.CurrentRequest, age MaximumAge, onSuccess func(gps.Position), onError func(ErrorInfo)) {
	a.countRequest("fresh")

	err := a.svc.GetCurrentLocation(req, func(err error, loc *gps.Location) {
		if err != nil {
			a.logger.Error().Err(err).Msg("getCurrentLocation failed")
			a.fail(onError, errorInfo(err))
			return
		}
		if loc == nil {
			a.fail(onError, ErrorInfo{ErrCode: platform.CodeLocatingFailed, ErrMessage: "service returned no location"})
			return
		}

		pos := gps.NewPosition(*loc)
		if age.cacheable() {
			a.mu.Lock()
			a.cache = &pos
			a.mu.Unlock()
		}
		a.logger.Debug().Float64("lat", pos.Coords.Latitude).Float64("lon", pos.Coords.Longitude).Msg("getCurrentLocation success")
		a.succeed(onSuccess, pos)
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("getCurrentLocation rejected")
		a.fail(onError, errorInfo(err))
	}
}

func (a *Adapter) countRequest(path string) {
	if a.metrics != nil {
		a.metrics.Requests.WithLabelValues(path).Inc()
	}
}

func (a *Adapter) succeed(onSuccess func(gps.Position), pos gps.Position) {
	if a.metrics != nil {
		a.metrics.Results.WithLabelValues("success").Inc()
	}
	if onSuccess != nil {
		onSuccess(pos)
	}
}

func (a *Adapter) fail(onError func(ErrorInfo), info ErrorInfo) {
	if a.metrics != nil {
		a.metrics.Results.WithLabelValues("error").Inc()
	}
	if onError != nil {
		onError(info)
	}
}

// StartObserving subscribes to location changes. Every sample is emitted to
// the host as geolocationDidChange; a refused subscription is emitted as
// geolocationError. Repeated calls add further subscriptions.
func (a *Adapter) StartObserving(req platform.ObserveRequest) {
	a.logger.Debug().Msg("startObserving enter")

	sub, err := a.svc.Subscribe(req, a.onLocationChange)
	if err != nil {
		info := errorInfo(err)
		a.logger.Error().Int("errCode", info.ErrCode).Str("errMessage", info.ErrMessage).Msg("startObserving failed")
		a.emit(host.EventLocationError, host.ErrorEvent{Code: info.ErrCode, Message: info.ErrMessage})
		return
	}

	a.mu.Lock()
	a.subs = append(a.subs, sub)
	n := len(a.subs)
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.Observing.Set(float64(n))
	}
}

// StopObserving drops every subscription the adapter holds. Failures are
// logged and otherwise ignored.
func (a *Adapter) StopObserving() {
	a.logger.Debug().Msg("stopObserving enter")

	a.mu.Lock()
	subs := a.subs
	a.subs = nil
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.Observing.Set(0)
	}
	if len(subs) == 0 {
		a.logger.Debug().Msg("stopObserving: not observing")
		return
	}

	for _, sub := range subs {
		if err := a.svc.Unsubscribe(sub); err != nil {
			info := errorInfo(err)
			a.logger.Error().Int("errCode", info.ErrCode).Str("errMessage", info.ErrMessage).Msg("stopObserving failed")
		}
	}
}

// Observing reports whether the adapter holds a subscription.
func (a *Adapter) Observing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs) > 0
}

func (a *Adapter) onLocationChange(loc gps.Location) {
	pos := gps.NewPosition(loc)
	a.logger.Debug().Float64("lat", pos.Coords.Latitude).Float64("lon", pos.Coords.Longitude).Msg("location changed")
	a.emit(host.EventLocationChange, pos)
}

func (a *Adapter) emit(name string, payload any) {
	a.mu.Lock()
	b := a.binding
	a.mu.Unlock()

	if b == nil {
		a.logger.Error().Str("event", name).Msg("no host binding, event dropped")
		return
	}
	if a.metrics != nil {
		a.metrics.Events.WithLabelValues(name).Inc()
	}
	b.EmitDeviceEvent(name, payload)
}
