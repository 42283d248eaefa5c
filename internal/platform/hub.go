// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package platform

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/geolocation/internal/gps"
)

// Hub holds the pending requests and subscriptions of a Service. A sample
// source calls Publish for every location it produces; Hub decides who gets
// it. Callbacks and listeners run outside the lock.
type Hub struct {
	clock clockwork.Clock

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*pendingRequest
	subs    map[Subscription]*subscriber
	down    *BusinessError
}

type pendingRequest struct {
	req   CurrentRequest
	cb    func(error, *gps.Location)
	timer clockwork.Timer
}

type subscriber struct {
	req      ObserveRequest
	listener Listener
	last     *gps.Location
	lastAt   time.Time
}

// NewHub returns an empty hub using clock for request timeouts and
// subscription throttling.
func NewHub(clock clockwork.Clock) *Hub {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Hub{
		clock:   clock,
		pending: make(map[uint64]*pendingRequest),
		subs:    make(map[Subscription]*subscriber),
	}
}

// GetCurrentLocation registers a one-shot request served by the next
// acceptable sample, or failed with CodeLocatingFailed after req.TimeoutMs.
func (h *Hub) GetCurrentLocation(req CurrentRequest, cb func(error, *gps.Location)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.down != nil {
		return h.down
	}

	timeout := req.TimeoutMs
	if timeout <= 0 {
		timeout = DefaultTimeoutMs
	}

	h.nextID++
	id := h.nextID
	p := &pendingRequest{req: req, cb: cb}
	p.timer = h.clock.AfterFunc(time.Duration(timeout)*time.Millisecond, func() {
		h.expire(id, timeout)
	})
	h.pending[id] = p
	return nil
}

func (h *Hub) expire(id uint64, timeoutMs int64) {
	h.mu.Lock()
	p, ok := h.pending[id]
	delete(h.pending, id)
	h.mu.Unlock()

	if ok {
		p.cb(NewError(CodeLocatingFailed, "no fix within %dms", timeoutMs), nil)
	}
}

// Subscribe registers l for every sample, subject to the request's time and
// distance intervals.
func (h *Hub) Subscribe(req ObserveRequest, l Listener) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.down != nil {
		return "", h.down
	}

	sub := Subscription(uuid.NewString())
	h.subs[sub] = &subscriber{req: req, listener: l}
	return sub, nil
}

// Unsubscribe removes a subscription.
func (h *Hub) Unsubscribe(sub Subscription) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return NewError(CodeNotSubscribed, "unknown subscription %q", sub)
	}
	delete(h.subs, sub)
	return nil
}

// Subscribers reports the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish hands one sample to every pending request it satisfies and to
// every due subscriber.
func (h *Hub) Publish(loc gps.Location) {
	now := h.clock.Now()

	var (
		callbacks []func(error, *gps.Location)
		listeners []Listener
	)

	h.mu.Lock()
	for id, p := range h.pending {
		if !withinAccuracy(loc, p.req.MaxAccuracy) {
			continue
		}
		p.timer.Stop()
		delete(h.pending, id)
		callbacks = append(callbacks, p.cb)
	}
	for _, s := range h.subs {
		if !s.due(loc, now) {
			continue
		}
		sample := loc
		s.last = &sample
		s.lastAt = now
		listeners = append(listeners, s.listener)
	}
	h.mu.Unlock()

	for _, cb := range callbacks {
		sample := loc
		cb(nil, &sample)
	}
	for _, l := range listeners {
		l(loc)
	}
}

// Shutdown marks the service unavailable. Pending requests fail with cause
// and later calls return it synchronously. Subscriptions stay registered so
// that Unsubscribe keeps working.
func (h *Hub) Shutdown(cause *BusinessError) {
	h.mu.Lock()
	if h.down != nil {
		h.mu.Unlock()
		return
	}
	h.down = cause
	pending := h.pending
	h.pending = make(map[uint64]*pendingRequest)
	h.mu.Unlock()

	for _, p := range pending {
		p.timer.Stop()
		p.cb(NewError(CodeLocatingFailed, "%s", cause.Message), nil)
	}
}

func (s *subscriber) due(loc gps.Location, now time.Time) bool {
	if !withinAccuracy(loc, s.req.MaxAccuracy) {
		return false
	}
	if s.last == nil {
		return true
	}
	if s.req.TimeInterval > 0 && now.Sub(s.lastAt) < time.Duration(s.req.TimeInterval)*time.Second {
		return false
	}
	if s.req.DistanceInterval > 0 && gps.Distance(*s.last, loc) < s.req.DistanceInterval {
		return false
	}
	return true
}

// withinAccuracy accepts samples with unknown (zero) accuracy.
func withinAccuracy(loc gps.Location, limit float64) bool {
	return limit <= 0 || loc.Accuracy <= 0 || loc.Accuracy <= limit
}
