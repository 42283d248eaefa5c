// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mqtt delivers host events over an MQTT broker.
package mqtt

import (
	"encoding/json"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/geolocation/internal/host"
)

// Publisher is the subset of paho's client the binding uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Binding publishes each event as JSON to "<prefix>/event/<name>".
type Binding struct {
	client Publisher
	prefix string
	logger zerolog.Logger
}

var _ host.Binding = (*Binding)(nil)

// NewBinding creates a binding publishing under prefix.
func NewBinding(client Publisher, prefix string, logger zerolog.Logger) *Binding {
	return &Binding{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		logger: logger.With().Str("module", "mqtt-binding").Logger(),
	}
}

// EventTopic returns the topic an event is published on.
func EventTopic(prefix, name string) string {
	return strings.TrimSuffix(prefix, "/") + "/event/" + name
}

// EmitDeviceEvent publishes the event. Location changes are retained so a
// late subscriber sees the last known position.
func (b *Binding) EmitDeviceEvent(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error().Err(err).Str("event", name).Msg("event marshal error")
		return
	}

	topic := EventTopic(b.prefix, name)
	retained := name == host.EventLocationChange
	token := b.client.Publish(topic, 0, retained, data)
	token.Wait()
	if err := token.Error(); err != nil {
		b.logger.Error().Err(err).Str("topic", topic).Msg("event publish error")
		return
	}
	b.logger.Debug().Str("topic", topic).Msg("event published")
}
