package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgebound/iot-gateway-sdk/pkg/api"
	"github.com/edgebound/iot-gateway-sdk/pkg/identity"
)

func testClient(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()

	id, err := identity.New(identity.Config{
		Org:        "myorg",
		DeviceType: "gw-type",
		DeviceID:   "gw-1",
		AuthMethod: identity.AuthMethodToken,
		AuthToken:  "secret",
	})
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return api.NewClientWithBaseURL(id, server.URL, zerolog.Nop())
}

// TestClient_GatewayAuthMode verifies the gateway-mode basic auth username
// and the request ID header.
func TestClient_GatewayAuthMode(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "g/myorg/gw-type/gw-1", username)
		assert.Equal(t, "secret", password)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.IsDeviceRegistered(context.Background(), "sensor", "dev-1")
	assert.NoError(t, err)
}

func TestClient_IsDeviceRegistered(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		registered bool
		wantErr    bool
	}{
		{"registered", http.StatusOK, true, false},
		{"not registered", http.StatusNotFound, false, false},
		{"server error", http.StatusInternalServerError, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/device/types/sensor/devices/dev-1", r.URL.Path)
				w.WriteHeader(tc.status)
			})

			registered, err := client.IsDeviceRegistered(context.Background(), "sensor", "dev-1")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.registered, registered)
		})
	}
}

func TestClient_RegisterDevice(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"created", http.StatusCreated, false},
		{"already exists", http.StatusConflict, false},
		{"forbidden", http.StatusForbidden, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/device/types/sensor/devices", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				w.WriteHeader(tc.status)
			})

			err := client.RegisterDevice(context.Background(), "sensor", "dev-1", "dev-token")
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
