// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/geolocation/internal/app"
	"github.com/relabs-tech/geolocation/internal/config"
)

func main() {
	configPath := flag.String("config", "geolocation_config.txt", "path to KEY=VALUE config file")
	flag.Parse()

	log.Println("starting geolocation bridge (location service → MQTT host)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunBridge(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
