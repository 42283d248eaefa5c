// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nmea implements platform.Service on top of a GNSS receiver that
// streams NMEA 0183 sentences over a serial line.
package nmea

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/geolocation/internal/gps"
	"github.com/relabs-tech/geolocation/internal/platform"
)

// SerialConfig selects the receiver port.
type SerialConfig struct {
	PortName string // /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0, ...
	BaudRate uint
}

// Receiver reads NMEA sentences from a port and serves location requests
// and subscriptions from them.
type Receiver struct {
	*platform.Hub

	name   string
	port   io.ReadCloser
	clock  clockwork.Clock
	logger zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

var _ platform.Service = (*Receiver)(nil)

// Open opens the serial port and starts reading from it.
func Open(cfg SerialConfig, clock clockwork.Clock, logger zerolog.Logger) (*Receiver, error) {
	opts := serial.OpenOptions{
		PortName:              cfg.PortName,
		BaudRate:              cfg.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open GPS serial port %s: %w", cfg.PortName, err)
	}
	logger.Info().Str("port", cfg.PortName).Uint("baud", cfg.BaudRate).Msg("GPS serial port opened")

	return New(port, cfg.PortName, clock, logger), nil
}

// New starts a receiver reading from port. name is only used in logs and
// error messages.
func New(port io.ReadCloser, name string, clock clockwork.Clock, logger zerolog.Logger) *Receiver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	r := &Receiver{
		Hub:    platform.NewHub(clock),
		name:   name,
		port:   port,
		clock:  clock,
		logger: logger.With().Str("module", "nmea").Str("port", name).Logger(),
		done:   make(chan struct{}),
	}
	go r.readLoop()
	return r
}

// closeTimeout bounds how long Close waits for the read loop. Closing the
// port does not interrupt a blocked Read on every serial backend.
const closeTimeout = 2 * time.Second

// Close stops the receiver. Pending requests fail and later calls report the
// location switch as off. If the read loop is still blocked after
// closeTimeout, Close returns an error and leaves the loop behind.
func (r *Receiver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.Shutdown(platform.NewError(platform.CodeSwitchOff, "receiver %s closed", r.name))
		err = r.port.Close()
	})

	select {
	case <-r.done:
		return err
	case <-r.clock.After(closeTimeout):
		r.logger.Warn().Dur("timeout", closeTimeout).Msg("read loop did not exit after port close")
		return fmt.Errorf("receiver %s: read loop still blocked after %v", r.name, closeTimeout)
	}
}

// Done is closed once the read loop has exited.
func (r *Receiver) Done() <-chan struct{} {
	return r.done
}

func (r *Receiver) readLoop() {
	defer close(r.done)

	acc := gps.NewAccumulator()
	reader := bufio.NewReader(r.port)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			loc, ok, perr := acc.FeedLine(line, r.clock.Now())
			if perr != nil {
				// noisy receivers emit partial sentences at startup
				r.logger.Debug().Err(perr).Str("line", line).Msg("NMEA parse error")
			} else if ok {
				r.logger.Debug().Float64("lat", loc.Latitude).Float64("lon", loc.Longitude).Msg("fix")
				r.Publish(loc)
			}
		}
		if err != nil {
			if err != io.EOF {
				r.logger.Error().Err(err).Msg("GPS read error")
			}
			r.Shutdown(platform.NewError(platform.CodeSwitchOff, "receiver %s stopped: %v", r.name, err))
			return
		}
	}
}
