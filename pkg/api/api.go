package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edgebound/iot-gateway-sdk/pkg/identity"
)

const (
	defaultDomain  = "internetofthings.ibmcloud.com"
	apiVersion     = "v0002"
	defaultTimeout = 30 * time.Second
)

// Client talks to the platform's HTTP API using the gateway's own
// credentials. The basic-auth username carries the gateway marker so the
// platform applies gateway permissions instead of API-key permissions.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	logger     zerolog.Logger
}

// NewClient builds an API client bound to the gateway's identity, pointed at
// the platform endpoint for the gateway's organization.
func NewClient(id *identity.GatewayIdentity, logger zerolog.Logger) *Client {
	baseURL := fmt.Sprintf("https://%s.%s/api/%s", id.OrgID(), defaultDomain, apiVersion)
	return NewClientWithBaseURL(id, baseURL, logger)
}

// NewClientWithBaseURL builds an API client against an explicit API base URL,
// for deployments that front the platform with their own endpoint.
func NewClientWithBaseURL(id *identity.GatewayIdentity, baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		username:   fmt.Sprintf("g/%s/%s/%s", id.OrgID(), id.DeviceType(), id.DeviceID()),
		password:   id.AuthToken(),
		logger:     logger,
	}
}

// deviceRegistration is the request body for creating a downstream device.
type deviceRegistration struct {
	DeviceID  string `json:"deviceId"`
	AuthToken string `json:"authToken,omitempty"`
}

// IsDeviceRegistered reports whether a device with the given type and ID
// already exists in the organization.
func (c *Client) IsDeviceRegistered(ctx context.Context, deviceType, deviceID string) (bool, error) {
	url := fmt.Sprintf("%s/device/types/%s/devices/%s", c.baseURL, deviceType, deviceID)

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d looking up device %s/%s", resp.StatusCode, deviceType, deviceID)
	}
}

// RegisterDevice creates a downstream device under the given type so the
// gateway can publish events on its behalf. Registering a device that already
// exists is not an error.
func (c *Client) RegisterDevice(ctx context.Context, deviceType, deviceID, authToken string) error {
	url := fmt.Sprintf("%s/device/types/%s/devices", c.baseURL, deviceType)

	body, err := json.Marshal(deviceRegistration{DeviceID: deviceID, AuthToken: authToken})
	if err != nil {
		return fmt.Errorf("failed to encode device registration: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		c.logger.Info().Str("device_type", deviceType).Str("device_id", deviceID).Msg("Device registered")
		return nil
	case http.StatusConflict:
		c.logger.Debug().Str("device_type", deviceType).Str("device_id", deviceID).Msg("Device already registered")
		return nil
	default:
		return fmt.Errorf("unexpected status %d registering device %s/%s", resp.StatusCode, deviceType, deviceID)
	}
}

// do issues a request with gateway credentials and a request ID for
// correlation on the platform side.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	return resp, nil
}
