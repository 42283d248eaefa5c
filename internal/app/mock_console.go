// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/geolocation/internal/geolocation"
	"github.com/relabs-tech/geolocation/internal/host"
	"github.com/relabs-tech/geolocation/internal/platform"
	"github.com/relabs-tech/geolocation/internal/platform/mock"
)

// RunMockConsole drives the adapter against the mock source and prints
// every event, without broker or hardware.
func RunMockConsole() error {
	logger := NewLogger("info")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := mock.NewSource(48.1173, 11.5167, 500*time.Millisecond, nil)
	go src.Run(ctx)

	console := host.BindingFunc(func(name string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Error().Err(err).Msg("marshal error")
			return
		}
		if err := printEvent(os.Stdout, name, data); err != nil {
			logger.Error().Err(err).Msg("print error")
		}
	})

	adapter := geolocation.New(src, geolocation.WithLogger(logger), geolocation.WithBinding(console))

	pos, err := adapter.CurrentLocation(ctx, geolocation.Options{MaximumAge: geolocation.MaxAge(0)})
	if err != nil {
		return err
	}
	logger.Info().Msg("first fix: " + formatPosition(pos))

	adapter.StartObserving(platform.ObserveRequest{
		Priority: platform.PriorityFirstFix,
		Scenario: platform.ScenarioUnset,
	})
	defer adapter.StopObserving()

	<-ctx.Done()
	return nil
}
