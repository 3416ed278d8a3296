package utils_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgebound/iot-gateway-sdk/internal/utils"
	"github.com/edgebound/iot-gateway-sdk/pkg/file"
)

func TestLoadConfig(t *testing.T) {
	configYAML := `
mqtt:
  broker: tls://broker.example.com:8883
  ca_certificate: /etc/gateway/ca.pem
identity:
  org: myorg
  device_type: gw-type
  device_id: gw-1
  auth_method: token
  auth_token: secret
telemetry:
  enabled: true
  event: status
  interval: 15s
  qos: 1
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0600))

	config, err := utils.LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "tls://broker.example.com:8883", config.MQTT.Broker)
	assert.Equal(t, "myorg", config.Identity.Org)
	assert.Equal(t, "token", config.Identity.AuthMethod)
	assert.True(t, config.Telemetry.Enabled)
	assert.Equal(t, 15*time.Second, config.Telemetry.Interval)
	assert.Equal(t, 1, config.Telemetry.QOS)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := utils.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), file.NewFileService())
	assert.Error(t, err)
}
