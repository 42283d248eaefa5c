// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

const (
	// KnotsToMetersPerSecond converts RMC speed over ground.
	KnotsToMetersPerSecond = 0.514444

	// nominalUERE is the user equivalent range error (meters) used to turn
	// HDOP into a horizontal accuracy estimate.
	nominalUERE = 5.0
)

// Accumulator folds a stream of NMEA sentences into Location samples.
//
// GGA and GSA only update altitude and dilution; a sample is emitted on each
// valid RMC, which carries position, speed, course and the UTC date.
type Accumulator struct {
	altitude float64
	hdop     float64
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// FeedLine parses one raw line. Lines that are not NMEA sentences are
// ignored without error.
func (a *Accumulator) FeedLine(line string, now time.Time) (Location, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return Location{}, false, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Location{}, false, err
	}
	loc, ok := a.Feed(sentence, now)
	return loc, ok, nil
}

// Feed applies one parsed sentence. now is used as the sample time when the
// receiver has not yet reported a valid date.
func (a *Accumulator) Feed(sentence nmea.Sentence, now time.Time) (Location, bool) {
	switch sentence.DataType() {
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		if m.FixQuality == nmea.Invalid {
			return Location{}, false
		}
		a.altitude = m.Altitude
		a.hdop = m.HDOP

	case nmea.TypeGSA:
		m := sentence.(nmea.GSA)
		if m.FixType != nmea.FixNone {
			a.hdop = m.HDOP
		}

	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			return Location{}, false
		}
		return Location{
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
			Altitude:  a.altitude,
			Accuracy:  a.hdop * nominalUERE,
			Direction: m.Course,
			Speed:     m.Speed * KnotsToMetersPerSecond,
			TimeStamp: sampleTime(m.Date, m.Time, now).UnixMilli(),
		}, true
	}

	return Location{}, false
}

func sampleTime(d nmea.Date, t nmea.Time, now time.Time) time.Time {
	if !d.Valid || !t.Valid {
		return now
	}
	return time.Date(2000+d.YY, time.Month(d.MM), d.DD,
		t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
