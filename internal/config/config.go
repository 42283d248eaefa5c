// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// GPS sources.
const (
	SourceSerial = "serial"
	SourceMock   = "mock"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDBridge  string
	MQTTClientIDConsole string
	TopicPrefix         string

	// GPS
	GPSSource     string // "serial" or "mock"
	GPSSerialPort string
	GPSBaudRate   int

	// Mock source
	MockOriginLat float64
	MockOriginLon float64
	MockInterval  time.Duration

	// Web Server
	WebServerPort int

	// Logging
	LogLevel string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through Get.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("MQTT_BROKER", "tcp://localhost:1883")
	v.SetDefault("MQTT_CLIENT_ID_BRIDGE", "geolocation-bridge")
	v.SetDefault("MQTT_CLIENT_ID_CONSOLE", "geolocation-console")
	v.SetDefault("TOPIC_PREFIX", "geolocation")
	v.SetDefault("GPS_SOURCE", SourceSerial)
	v.SetDefault("GPS_SERIAL_PORT", "/dev/serial0")
	v.SetDefault("GPS_BAUD_RATE", 9600)
	v.SetDefault("MOCK_ORIGIN_LAT", 48.1173)
	v.SetDefault("MOCK_ORIGIN_LON", 11.5167)
	v.SetDefault("MOCK_INTERVAL", "1s")
	v.SetDefault("WEB_SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
}

var knownKeys = []string{
	"MQTT_BROKER", "MQTT_CLIENT_ID_BRIDGE", "MQTT_CLIENT_ID_CONSOLE", "TOPIC_PREFIX",
	"GPS_SOURCE", "GPS_SERIAL_PORT", "GPS_BAUD_RATE",
	"MOCK_ORIGIN_LAT", "MOCK_ORIGIN_LON", "MOCK_INTERVAL",
	"WEB_SERVER_PORT", "LOG_LEVEL",
}

// Load reads a KEY=VALUE configuration file. Environment variables with the
// same names override file values; unset keys take their defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := checkKeys(v); err != nil {
			return nil, err
		}
	}

	interval, err := time.ParseDuration(v.GetString("MOCK_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid MOCK_INTERVAL %q: %w", v.GetString("MOCK_INTERVAL"), err)
	}

	cfg := &Config{
		MQTTBroker:          v.GetString("MQTT_BROKER"),
		MQTTClientIDBridge:  v.GetString("MQTT_CLIENT_ID_BRIDGE"),
		MQTTClientIDConsole: v.GetString("MQTT_CLIENT_ID_CONSOLE"),
		TopicPrefix:         strings.TrimSuffix(v.GetString("TOPIC_PREFIX"), "/"),
		GPSSource:           strings.ToLower(v.GetString("GPS_SOURCE")),
		GPSSerialPort:       v.GetString("GPS_SERIAL_PORT"),
		GPSBaudRate:         v.GetInt("GPS_BAUD_RATE"),
		MockOriginLat:       v.GetFloat64("MOCK_ORIGIN_LAT"),
		MockOriginLon:       v.GetFloat64("MOCK_ORIGIN_LON"),
		MockInterval:        interval,
		WebServerPort:       v.GetInt("WEB_SERVER_PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkKeys rejects typos in the file.
func checkKeys(v *viper.Viper) error {
	known := make(map[string]bool, len(knownKeys))
	for _, k := range knownKeys {
		known[strings.ToLower(k)] = true
	}
	for _, k := range v.AllKeys() {
		if !known[k] {
			return fmt.Errorf("unknown config key: %q", strings.ToUpper(k))
		}
	}
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicPrefix == "" {
		return fmt.Errorf("TOPIC_PREFIX is required")
	}
	switch c.GPSSource {
	case SourceSerial:
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required")
		}
		if c.GPSBaudRate <= 0 {
			return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", c.GPSBaudRate)
		}
	case SourceMock:
		if c.MockInterval <= 0 {
			return fmt.Errorf("MOCK_INTERVAL must be positive, got %s", c.MockInterval)
		}
	default:
		return fmt.Errorf("GPS_SOURCE must be %q or %q, got %q", SourceSerial, SourceMock, c.GPSSource)
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
