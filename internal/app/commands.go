// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/geolocation/internal/geolocation"
	"github.com/relabs-tech/geolocation/internal/gps"
	hostmqtt "github.com/relabs-tech/geolocation/internal/host/mqtt"
	"github.com/relabs-tech/geolocation/internal/platform"
)

// Host commands, published to "<prefix>/cmd/<name>".
const (
	CmdGetCurrentLocation = "getCurrentLocation"
	CmdStartObserving     = "startObserving"
	CmdStopObserving      = "stopObserving"
)

var validate = validator.New()

// LocationCommand is the payload of getCurrentLocation.
type LocationCommand struct {
	ID      string              `json:"id" validate:"required"`
	Options geolocation.Options `json:"options"`
}

// Reply answers one getCurrentLocation command on "<prefix>/reply/<id>".
type Reply struct {
	ID       string                 `json:"id"`
	Position *gps.Position          `json:"position,omitempty"`
	Error    *geolocation.ErrorInfo `json:"error,omitempty"`
}

// CommandTopic returns the topic a command is received on.
func CommandTopic(prefix, name string) string {
	return prefix + "/cmd/" + name
}

// ReplyTopic returns the topic the reply to request id is published on.
func ReplyTopic(prefix, id string) string {
	return prefix + "/reply/" + id
}

// CommandHandler routes host commands arriving over MQTT to the adapter.
type CommandHandler struct {
	adapter *geolocation.Adapter
	client  hostmqtt.Publisher
	prefix  string
	logger  zerolog.Logger
}

// NewCommandHandler creates a handler answering on client under prefix.
func NewCommandHandler(adapter *geolocation.Adapter, client hostmqtt.Publisher, prefix string, logger zerolog.Logger) *CommandHandler {
	return &CommandHandler{
		adapter: adapter,
		client:  client,
		prefix:  prefix,
		logger:  logger.With().Str("module", "commands").Logger(),
	}
}

// Handle dispatches one command message.
func (h *CommandHandler) Handle(topic string, payload []byte) {
	name := strings.TrimPrefix(topic, h.prefix+"/cmd/")

	switch name {
	case CmdGetCurrentLocation:
		var cmd LocationCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			h.logger.Error().Err(err).Msg("getCurrentLocation: bad payload")
			return
		}
		if err := validate.Struct(&cmd); err != nil {
			h.logger.Error().Err(err).Msg("getCurrentLocation: invalid command")
			return
		}
		h.adapter.GetCurrentLocation(cmd.Options,
			func(p gps.Position) { h.reply(Reply{ID: cmd.ID, Position: &p}) },
			func(e geolocation.ErrorInfo) { h.reply(Reply{ID: cmd.ID, Error: &e}) },
		)

	case CmdStartObserving:
		var req platform.ObserveRequest
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				h.logger.Error().Err(err).Msg("startObserving: bad payload")
				return
			}
		}
		if err := validate.Struct(&req); err != nil {
			h.logger.Error().Err(err).Msg("startObserving: invalid request")
			return
		}
		h.adapter.StartObserving(req)

	case CmdStopObserving:
		h.adapter.StopObserving()

	default:
		h.logger.Error().Str("topic", topic).Msg("unknown command")
	}
}

func (h *CommandHandler) reply(r Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		h.logger.Error().Err(err).Msg("reply marshal error")
		return
	}
	topic := ReplyTopic(h.prefix, r.ID)
	token := h.client.Publish(topic, 0, false, data)
	token.Wait()
	if err := token.Error(); err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("reply publish error")
	}
}
