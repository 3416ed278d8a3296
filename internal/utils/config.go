package utils

import (
	"time"

	"github.com/edgebound/iot-gateway-sdk/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate (optional)
	} `yaml:"mqtt"`

	Identity struct {
		Org        string `yaml:"org"`         // Organization ID, derived from the auth key when empty
		DeviceType string `yaml:"device_type"` // Gateway device type
		DeviceID   string `yaml:"device_id"`   // Gateway device ID
		AuthMethod string `yaml:"auth_method"` // Authentication method, "token" or empty
		AuthKey    string `yaml:"auth_key"`    // API key, source of the org ID when org is empty
		AuthToken  string `yaml:"auth_token"`  // Authentication token
	} `yaml:"identity"`

	Telemetry struct {
		Enabled  bool          `yaml:"enabled"`  // Enable/disable the telemetry loop
		Event    string        `yaml:"event"`    // Event name for telemetry publishes
		Interval time.Duration `yaml:"interval"` // Interval between telemetry publishes
		QOS      int           `yaml:"qos"`      // MQTT QoS level for telemetry events
	} `yaml:"telemetry"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
