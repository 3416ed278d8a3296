package identity

import (
	"errors"
	"fmt"
	"strings"
)

// AuthMethodToken is the only authentication method the platform accepts for
// gateways. An empty method means an anonymous connection.
const AuthMethodToken = "token"

const (
	clientIDPrefix    = "g"
	clientIDDelimiter = ":"
	tokenAuthUsername = "use-token-auth"
	quickstartOrg     = "quickstart"
)

// Config carries the raw identity fields from configuration. Org may be left
// empty, in which case it is derived from the auth key.
type Config struct {
	Org        string
	DeviceType string
	DeviceID   string
	AuthMethod string
	AuthKey    string
	AuthToken  string
}

// GatewayIdentity is the validated, immutable identity of a gateway device.
type GatewayIdentity struct {
	org        string
	deviceType string
	deviceID   string
	authToken  string
	username   string
	password   string
}

// New validates the configuration and builds a gateway identity. It fails when
// the organization ID cannot be determined, when the identity resolves to the
// quickstart sandbox, or when an unsupported authentication method is given.
func New(cfg Config) (*GatewayIdentity, error) {
	org := resolveOrg(cfg)
	if org == "" {
		return nil, errors.New("invalid auth key")
	}
	if strings.EqualFold(org, quickstartOrg) {
		return nil, errors.New("there is no quickstart support for gateways")
	}

	id := &GatewayIdentity{
		org:        org,
		deviceType: strings.TrimSpace(cfg.DeviceType),
		deviceID:   strings.TrimSpace(cfg.DeviceID),
		authToken:  cfg.AuthToken,
	}

	switch cfg.AuthMethod {
	case "":
		// Anonymous connection, no credentials.
	case AuthMethodToken:
		id.username = tokenAuthUsername
		id.password = cfg.AuthToken
	default:
		return nil, fmt.Errorf("unsupported authentication method: %s", cfg.AuthMethod)
	}

	return id, nil
}

// resolveOrg returns the explicit org when present, otherwise derives it from
// the auth key. Keys shorter than 8 characters carry no org and yield "".
// A missing key means the quickstart sandbox.
func resolveOrg(cfg Config) string {
	if org := strings.TrimSpace(cfg.Org); org != "" {
		return org
	}

	key := strings.TrimSpace(cfg.AuthKey)
	if key == "" || key == quickstartOrg {
		return quickstartOrg
	}
	if len(key) < 8 {
		return ""
	}

	// The org ID is embedded in characters 3-8 of the auth key.
	return key[2:8]
}

// OrgID returns the organization ID.
func (id *GatewayIdentity) OrgID() string {
	return id.org
}

// DeviceType returns the gateway's device type.
func (id *GatewayIdentity) DeviceType() string {
	return id.deviceType
}

// DeviceID returns the gateway's device ID.
func (id *GatewayIdentity) DeviceID() string {
	return id.deviceID
}

// AuthToken returns the authentication token.
func (id *GatewayIdentity) AuthToken() string {
	return id.authToken
}

// Username returns the MQTT username, empty for anonymous connections.
func (id *GatewayIdentity) Username() string {
	return id.username
}

// Password returns the MQTT password, empty for anonymous connections.
func (id *GatewayIdentity) Password() string {
	return id.password
}

// ClientID returns the MQTT client ID in the platform's gateway format.
func (id *GatewayIdentity) ClientID() string {
	return strings.Join([]string{clientIDPrefix, id.org, id.deviceType, id.deviceID}, clientIDDelimiter)
}
