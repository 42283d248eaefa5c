// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geolocation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/geolocation/internal/platform"
)

// InfinityLiteral is the wire form of an unbounded maximum age.
const InfinityLiteral = "Infinity"

// MaximumAge bounds how old a cached fix may be to be served. The zero value
// means the caller gave no maximum age: the cache is neither served nor
// written.
type MaximumAge struct {
	set      bool
	infinite bool
	ms       int64
}

// Infinity admits a cached fix of any age.
var Infinity = MaximumAge{set: true, infinite: true}

// MaxAge returns a bounded maximum age. MaxAge(0) forces a fresh fix.
func MaxAge(d time.Duration) MaximumAge {
	return MaximumAge{set: true, ms: d.Milliseconds()}
}

// IsSet reports whether a maximum age was given.
func (m MaximumAge) IsSet() bool { return m.set }

// IsInfinite reports whether m is Infinity.
func (m MaximumAge) IsInfinite() bool { return m.infinite }

// forcesFresh is true for an explicit zero.
func (m MaximumAge) forcesFresh() bool {
	return m.set && !m.infinite && m.ms == 0
}

// cacheable reports whether a fresh fix obtained under m is stored.
func (m MaximumAge) cacheable() bool {
	return m.infinite || (m.set && m.ms > 0)
}

// admits reports whether a cached fix ageMs old may be served.
func (m MaximumAge) admits(ageMs int64) bool {
	if m.infinite {
		return true
	}
	return m.set && ageMs <= m.ms
}

func (m MaximumAge) String() string {
	switch {
	case !m.set:
		return "unset"
	case m.infinite:
		return InfinityLiteral
	default:
		return strconv.FormatInt(m.ms, 10) + "ms"
	}
}

// ParseMaximumAge accepts milliseconds or "Infinity". An empty string
// yields the unset value.
func ParseMaximumAge(s string) (MaximumAge, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return MaximumAge{}, nil
	case strings.EqualFold(s, InfinityLiteral):
		return Infinity, nil
	}

	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return MaximumAge{}, fmt.Errorf("invalid maximumAge %q: %w", s, err)
	}
	return fromMillis(ms)
}

// fromMillis converts a millisecond count to a MaximumAge. Fractions round
// away from zero so that only an exact 0 forces a fresh fix; values outside
// the int64 range saturate.
func fromMillis(ms float64) (MaximumAge, error) {
	switch {
	case math.IsNaN(ms):
		return MaximumAge{}, fmt.Errorf("invalid maximumAge: NaN")
	case math.IsInf(ms, 1):
		return Infinity, nil
	case ms >= math.MaxInt64:
		return MaximumAge{set: true, ms: math.MaxInt64}, nil
	case ms <= math.MinInt64:
		return MaximumAge{set: true, ms: math.MinInt64}, nil
	case ms > 0:
		ms = math.Ceil(ms)
	case ms < 0:
		ms = math.Floor(ms)
	}
	return MaximumAge{set: true, ms: int64(ms)}, nil
}

// MarshalJSON writes milliseconds, "Infinity" or null.
func (m MaximumAge) MarshalJSON() ([]byte, error) {
	switch {
	case !m.set:
		return []byte("null"), nil
	case m.infinite:
		return json.Marshal(InfinityLiteral)
	default:
		return json.Marshal(m.ms)
	}
}

// UnmarshalJSON reads milliseconds, "Infinity" or null.
func (m *MaximumAge) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = MaximumAge{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseMaximumAge(s)
		if err != nil {
			return err
		}
		*m = v
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid maximumAge %s: %w", data, err)
	}
	v, err := fromMillis(ms)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Options configures one current-location request.
type Options struct {
	// Timeout before the location service abandons the request. Zero keeps
	// the service default.
	Timeout time.Duration
	// EnableHighAccuracy is accepted for compatibility; both settings map to
	// the same accuracy level.
	EnableHighAccuracy bool
	MaximumAge         MaximumAge
}

type optionsJSON struct {
	Timeout            *float64   `json:"timeout,omitempty"` // ms
	EnableHighAccuracy bool       `json:"enableHighAccuracy,omitempty"`
	MaximumAge         MaximumAge `json:"maximumAge"`
}

// MarshalJSON writes the host-facing option shape.
func (o Options) MarshalJSON() ([]byte, error) {
	aux := optionsJSON{EnableHighAccuracy: o.EnableHighAccuracy, MaximumAge: o.MaximumAge}
	if o.Timeout > 0 {
		ms := float64(o.Timeout.Milliseconds())
		aux.Timeout = &ms
	}
	return json.Marshal(aux)
}

// UnmarshalJSON reads {timeout, enableHighAccuracy, maximumAge} with times in
// milliseconds.
func (o *Options) UnmarshalJSON(data []byte) error {
	var aux optionsJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = Options{EnableHighAccuracy: aux.EnableHighAccuracy, MaximumAge: aux.MaximumAge}
	if aux.Timeout != nil && *aux.Timeout > 0 {
		o.Timeout = time.Duration(*aux.Timeout * float64(time.Millisecond))
	}
	return nil
}

// currentRequest builds the service request for o.
func (o Options) currentRequest() platform.CurrentRequest {
	req := platform.DefaultCurrentRequest()
	if o.Timeout > 0 {
		req.TimeoutMs = o.Timeout.Milliseconds()
	}
	if o.EnableHighAccuracy {
		req.MaxAccuracy = 0
	}
	return req
}
