// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/geolocation/internal/config"
	"github.com/relabs-tech/geolocation/internal/geolocation"
	hostmqtt "github.com/relabs-tech/geolocation/internal/host/mqtt"
	"github.com/relabs-tech/geolocation/internal/observability"
)

// RunBridge exposes the location service to MQTT hosts: commands arrive on
// "<prefix>/cmd/#", replies and events are published under the same prefix.
func RunBridge() error {
	cfg := config.Get()
	logger := NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- 1) Location service ----
	svc, closeSvc, err := openService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	// ---- 2) Connect to MQTT broker ----
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDBridge)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Info().Str("broker", cfg.MQTTBroker).Msg("bridge connected to MQTT broker")

	// ---- 3) Adapter bound to the MQTT host ----
	adapter := geolocation.New(svc,
		geolocation.WithClock(clockwork.NewRealClock()),
		geolocation.WithLogger(logger),
		geolocation.WithMetrics(observability.NewMetrics()),
	)
	adapter.SetHostBinding(hostmqtt.NewBinding(client, cfg.TopicPrefix, logger))
	defer adapter.StopObserving()

	// ---- 4) Host commands ----
	handler := NewCommandHandler(adapter, client, cfg.TopicPrefix, logger)
	cmdTopic := CommandTopic(cfg.TopicPrefix, "+")
	token := client.Subscribe(cmdTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler.Handle(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logger.Info().Str("topic", cmdTopic).Msg("listening for host commands")

	<-ctx.Done()
	logger.Info().Msg("bridge shutting down")
	return nil
}
