// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/geolocation/internal/config"
	"github.com/relabs-tech/geolocation/internal/platform"
	"github.com/relabs-tech/geolocation/internal/platform/mock"
	"github.com/relabs-tech/geolocation/internal/platform/nmea"
)

// NewLogger returns a console logger at the given level ("debug", "info", ...).
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// openService starts the configured location service. The returned close
// function releases it.
func openService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (platform.Service, func() error, error) {
	clock := clockwork.NewRealClock()

	switch cfg.GPSSource {
	case config.SourceMock:
		src := mock.NewSource(cfg.MockOriginLat, cfg.MockOriginLon, cfg.MockInterval, clock)
		ctx, cancel := context.WithCancel(ctx)
		go src.Run(ctx)
		logger.Info().Float64("lat", cfg.MockOriginLat).Float64("lon", cfg.MockOriginLon).Msg("using mock location source")
		return src, func() error { cancel(); return nil }, nil

	case config.SourceSerial:
		rx, err := nmea.Open(nmea.SerialConfig{
			PortName: cfg.GPSSerialPort,
			BaudRate: uint(cfg.GPSBaudRate),
		}, clock, logger)
		if err != nil {
			return nil, nil, err
		}
		return rx, rx.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown GPS source %q", cfg.GPSSource)
}

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}
