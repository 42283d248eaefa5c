// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/geolocation/internal/config"
	"github.com/relabs-tech/geolocation/internal/gps"
	"github.com/relabs-tech/geolocation/internal/host"
	hostmqtt "github.com/relabs-tech/geolocation/internal/host/mqtt"
)

// printEvent writes one host event as a console line.
func printEvent(w io.Writer, name string, payload []byte) error {
	switch name {
	case host.EventLocationChange:
		var p gps.Position
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		fmt.Fprintln(w, formatPosition(p))
	case host.EventLocationError:
		var e host.ErrorEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		fmt.Fprintf(w, "[ERR ]  code=%d message=%s\n", e.Code, e.Message)
	default:
		fmt.Fprintf(w, "[%s] %s\n", name, payload)
	}
	return nil
}

func formatPosition(p gps.Position) string {
	return fmt.Sprintf(
		"[GPS ]  ts=%d lat=%.6f lon=%.6f alt=%.1fm acc=%.1fm heading=%.1f° speed=%.2fm/s",
		p.TimeStamp, p.Coords.Latitude, p.Coords.Longitude, p.Coords.Altitude,
		p.Coords.Accuracy, p.Coords.Heading, p.Coords.Speed,
	)
}

// RunConsoleMQTT prints every event the bridge publishes.
func RunConsoleMQTT() error {
	cfg := config.Get()
	logger := NewLogger(cfg.LogLevel)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	logger.Info().Str("broker", cfg.MQTTBroker).Msg("console: connected to MQTT broker")

	for _, name := range []string{host.EventLocationChange, host.EventLocationError} {
		name := name
		topic := hostmqtt.EventTopic(cfg.TopicPrefix, name)
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := printEvent(os.Stdout, name, msg.Payload()); err != nil {
				logger.Error().Err(err).Str("topic", topic).Msg("console: payload unmarshal error")
			}
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		logger.Info().Str("topic", topic).Msg("console: subscribed")
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("console: shutting down")
	client.Disconnect(250)
	return nil
}
