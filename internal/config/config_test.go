package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geolocation_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "geolocation-bridge", cfg.MQTTClientIDBridge)
	assert.Equal(t, "geolocation-console", cfg.MQTTClientIDConsole)
	assert.Equal(t, "geolocation", cfg.TopicPrefix)
	assert.Equal(t, SourceSerial, cfg.GPSSource)
	assert.Equal(t, "/dev/serial0", cfg.GPSSerialPort)
	assert.Equal(t, 9600, cfg.GPSBaudRate)
	assert.Equal(t, time.Second, cfg.MockInterval)
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
# bridge settings
MQTT_BROKER=tcp://broker:1883
TOPIC_PREFIX=car/geo/
GPS_SOURCE=mock
MOCK_ORIGIN_LAT=40.4168
MOCK_ORIGIN_LON=-3.7038
MOCK_INTERVAL=250ms
WEB_SERVER_PORT=9090
LOG_LEVEL=debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, "car/geo", cfg.TopicPrefix)
	assert.Equal(t, SourceMock, cfg.GPSSource)
	assert.InDelta(t, 40.4168, cfg.MockOriginLat, 1e-9)
	assert.InDelta(t, -3.7038, cfg.MockOriginLon, 1e-9)
	assert.Equal(t, 250*time.Millisecond, cfg.MockInterval)
	assert.Equal(t, 9090, cfg.WebServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "GPS_SERIAL_PORT=/dev/ttyUSB0\n")
	t.Setenv("GPS_SERIAL_PORT", "/dev/ttyAMA0")
	t.Setenv("GPS_BAUD_RATE", "38400")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0", cfg.GPSSerialPort)
	assert.Equal(t, 38400, cfg.GPSBaudRate)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown key", content: "GPS_PORT=/dev/ttyS0\n", wantErr: "unknown config key"},
		{name: "bad source", content: "GPS_SOURCE=bluetooth\n", wantErr: "GPS_SOURCE"},
		{name: "bad baud", content: "GPS_BAUD_RATE=0\n", wantErr: "GPS_BAUD_RATE"},
		{name: "bad interval", content: "MOCK_INTERVAL=often\n", wantErr: "MOCK_INTERVAL"},
		{name: "bad port", content: "WEB_SERVER_PORT=70000\n", wantErr: "WEB_SERVER_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
