package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgebound/iot-gateway-sdk/internal/gateway"
)

func TestDeviceEventTopic(t *testing.T) {
	topic := gateway.DeviceEventTopic("thermostat", "dev-42", "temperature")
	assert.Equal(t, "iot-2/type/thermostat/id/dev-42/evt/temperature/fmt/json", topic)
}

func TestDeviceCommandTopic(t *testing.T) {
	topic := gateway.DeviceCommandTopic("thermostat", "dev-42", "+", "json")
	assert.Equal(t, "iot-2/type/thermostat/id/dev-42/cmd/+/fmt/json", topic)
}

func TestParseCommandTopic_Valid(t *testing.T) {
	addr, ok := gateway.ParseCommandTopic("iot-2/type/foo/id/bar/cmd/reboot/fmt/json")

	assert.True(t, ok)
	assert.Equal(t, gateway.CommandAddress{
		Type:    "foo",
		ID:      "bar",
		Command: "reboot",
		Format:  "json",
	}, addr)
}

func TestParseCommandTopic_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		topic string
	}{
		{"event topic", "iot-2/type/foo/id/bar/evt/temp/fmt/json"},
		{"wrong prefix", "iot-3/type/foo/id/bar/cmd/reboot/fmt/json"},
		{"too few segments", "iot-2/type/foo/id/bar/cmd/reboot"},
		{"too many segments", "iot-2/type/foo/id/bar/cmd/reboot/fmt/json/extra"},
		{"empty device type", "iot-2/type//id/bar/cmd/reboot/fmt/json"},
		{"empty command", "iot-2/type/foo/id/bar/cmd//fmt/json"},
		{"notification topic", "iotdm-1/notify"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := gateway.ParseCommandTopic(tc.topic)
			assert.False(t, ok)
		})
	}
}
