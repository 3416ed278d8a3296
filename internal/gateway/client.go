package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/edgebound/iot-gateway-sdk/internal/constants"
	"github.com/edgebound/iot-gateway-sdk/internal/models"
	"github.com/edgebound/iot-gateway-sdk/pkg/identity"
	"github.com/edgebound/iot-gateway-sdk/pkg/mqtt"
)

// timestampLayout is ISO-8601 with millisecond precision, the platform's
// envelope timestamp format.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type connState int32

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// GatewayClient connects a gateway to the platform's MQTT broker. It
// publishes events for the gateway itself and for downstream devices, and
// delivers decoded commands to a single registered handler. After an
// unexpected connection loss it reconnects and replays every subscription
// recorded in its topic registry.
type GatewayClient struct {
	identity   *identity.GatewayIdentity
	mqttClient mqtt.MQTTClient
	registry   *TopicRegistry
	dispatcher commandDispatcher
	logger     zerolog.Logger

	connectMu    sync.Mutex
	state        atomic.Int32
	reconnecting atomic.Bool
	lossPending  atomic.Bool
}

// NewGatewayClient builds a gateway client around a validated identity and a
// configured transport. It binds the connection-lost handler but does not
// connect.
func NewGatewayClient(id *identity.GatewayIdentity, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *GatewayClient {
	c := &GatewayClient{
		identity:   id,
		mqttClient: mqttClient,
		registry:   NewTopicRegistry(),
		logger:     logger,
	}
	mqttClient.OnConnectionLost(c.onConnectionLost)
	return c
}

// Identity returns the gateway's identity.
func (c *GatewayClient) Identity() *identity.GatewayIdentity {
	return c.identity
}

// Registry returns the client's topic registry.
func (c *GatewayClient) Registry() *TopicRegistry {
	return c.registry
}

// IsConnected reports whether the client is in the connected state.
func (c *GatewayClient) IsConnected() bool {
	return connState(c.state.Load()) == stateConnected
}

// Connect establishes the broker connection and subscribes to the gateway's
// own command topic (all commands, JSON format, QoS 0).
func (c *GatewayClient) Connect() error {
	if err := c.connect(); err != nil {
		return err
	}

	// Every gateway listens for its own commands from the moment it connects.
	c.subscribeCommand(c.identity.DeviceType(), c.identity.DeviceID(),
		constants.CommandWildcard, constants.DefaultFormat, constants.DefaultQOS)
	return nil
}

// connect performs the transport connection and state transitions only.
func (c *GatewayClient) connect() error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if connState(c.state.Load()) == stateConnected {
		return nil
	}
	c.state.Store(int32(stateConnecting))

	token := c.mqttClient.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		c.state.Store(int32(stateDisconnected))
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	c.state.Store(int32(stateConnected))
	c.logger.Info().Str("client_id", c.identity.ClientID()).Msg("Connected to broker")
	return nil
}

// onConnectionLost reconnects and replays the topic registry. Every reported
// loss is recorded before the single-pass guard is taken, so a loss arriving
// while a pass is still running is not dropped: the running pass drains it
// with another connect+replay, and the replay runs only once the connection
// is actually back.
func (c *GatewayClient) onConnectionLost(cause error) {
	c.logger.Warn().Err(cause).Msg("Connection lost")
	c.lossPending.Store(true)

	for c.reconnecting.CompareAndSwap(false, true) {
		for c.lossPending.CompareAndSwap(true, false) {
			c.state.Store(int32(stateDisconnected))
			if err := c.connect(); err != nil {
				c.logger.Error().Err(err).Msg("Reconnect failed, resubscription deferred to next connection loss")
				c.reconnecting.Store(false)
				return
			}
			c.resubscribeAll()
		}

		c.reconnecting.Store(false)
		// A loss reported between draining and releasing the guard belongs
		// to this pass if no other notification picks it up.
		if !c.lossPending.Load() {
			return
		}
	}
}

// resubscribeAll replays every registry entry at its recorded QoS. Each topic
// is attempted independently; failures are logged and do not abort the loop.
func (c *GatewayClient) resubscribeAll() {
	entries := c.registry.Entries()
	c.logger.Info().Int("topics", len(entries)).Msg("Resubscribing to registered topics")
	for _, entry := range entries {
		token := c.mqttClient.Subscribe(entry.Topic, entry.QOS, c.handleMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			c.logger.Error().Err(err).Str("topic", entry.Topic).Msg("Failed to resubscribe")
		}
	}
}

// PublishGatewayEvent publishes the gateway's own event at QoS 0 and reports
// whether the send was acknowledged by the transport.
func (c *GatewayClient) PublishGatewayEvent(event string, data any) bool {
	return c.PublishDeviceEventWithQOS(c.identity.DeviceType(), c.identity.DeviceID(), event, data, constants.DefaultQOS)
}

// PublishGatewayEventWithQOS publishes the gateway's own event at the given
// QoS.
func (c *GatewayClient) PublishGatewayEventWithQOS(event string, data any, qos byte) bool {
	return c.PublishDeviceEventWithQOS(c.identity.DeviceType(), c.identity.DeviceID(), event, data, qos)
}

// PublishDeviceEvent publishes an event on behalf of a downstream device at
// QoS 0.
func (c *GatewayClient) PublishDeviceEvent(deviceType, deviceID, event string, data any) bool {
	return c.PublishDeviceEventWithQOS(deviceType, deviceID, event, data, constants.DefaultQOS)
}

// PublishDeviceEventWithQOS publishes an event on behalf of a downstream
// device. The data is wrapped in a timestamped envelope and sent unretained.
// It returns false, without raising, when the client is not connected or the
// transport reports a send failure.
func (c *GatewayClient) PublishDeviceEventWithQOS(deviceType, deviceID, event string, data any, qos byte) bool {
	if !c.IsConnected() {
		c.logger.Warn().Str("event", event).Msg("Not connected, dropping event")
		return false
	}

	envelope := models.EventEnvelope{
		Timestamp: time.Now().UTC().Format(timestampLayout),
		Data:      data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Failed to serialize event payload")
		return false
	}

	topic := DeviceEventTopic(deviceType, deviceID, event)
	c.logger.Debug().Str("topic", topic).RawJSON("payload", payload).Msg("Publishing event")

	token := c.mqttClient.Publish(topic, qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		c.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish event")
		return false
	}
	return true
}

// SubscribeToDeviceCommands subscribes to all commands for a device, in JSON
// format at QoS 0.
func (c *GatewayClient) SubscribeToDeviceCommands(deviceType, deviceID string) {
	c.subscribeCommand(deviceType, deviceID, constants.CommandWildcard, constants.DefaultFormat, constants.DefaultQOS)
}

// SubscribeToDeviceCommand subscribes to a single command for a device, in
// JSON format at QoS 0.
func (c *GatewayClient) SubscribeToDeviceCommand(deviceType, deviceID, command string) {
	c.subscribeCommand(deviceType, deviceID, command, constants.DefaultFormat, constants.DefaultQOS)
}

// SubscribeToDeviceCommandWithFormat subscribes to a single command in the
// given payload format at QoS 0.
func (c *GatewayClient) SubscribeToDeviceCommandWithFormat(deviceType, deviceID, command, format string) {
	c.subscribeCommand(deviceType, deviceID, command, format, constants.DefaultQOS)
}

// SubscribeToDeviceCommandWithQOS subscribes to a single command in the given
// payload format at the given QoS.
func (c *GatewayClient) SubscribeToDeviceCommandWithQOS(deviceType, deviceID, command, format string, qos byte) {
	c.subscribeCommand(deviceType, deviceID, command, format, qos)
}

// subscribeCommand registers the topic and issues the transport subscription.
// Subscription failures are logged, never propagated; the registry entry
// survives regardless so the next reconnect retries it.
func (c *GatewayClient) subscribeCommand(deviceType, deviceID, command, format string, qos byte) {
	topic := DeviceCommandTopic(deviceType, deviceID, command, format)
	c.registry.Register(topic, qos)

	token := c.mqttClient.Subscribe(topic, qos, c.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		c.logger.Error().Err(err).Str("topic", topic).Msg("Failed to subscribe to command topic")
		return
	}
	c.logger.Info().Str("topic", topic).Uint8("qos", qos).Msg("Subscribed to command topic")
}

// SetCommandCallback registers the handler invoked for every decoded command,
// replacing any previously registered handler.
func (c *GatewayClient) SetCommandCallback(handler CommandHandler) {
	c.dispatcher.set(handler)
}

// handleMessage decodes inbound messages into commands and dispatches them.
func (c *GatewayClient) handleMessage(_ MQTT.Client, msg MQTT.Message) {
	// Without a handler there is nothing to deliver, so skip the decode work.
	if !c.dispatcher.registered() {
		return
	}

	addr, ok := ParseCommandTopic(msg.Topic())
	if !ok {
		return
	}

	cmd, err := decodeCommand(addr, msg.Payload())
	if err != nil {
		c.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Discarding malformed command")
		return
	}

	c.logger.Debug().Str("command", cmd.Name).Str("device_id", cmd.DeviceID).Msg("Command received")
	c.dispatcher.dispatch(cmd)
}

// commandBody is the wire shape of a command payload.
type commandBody struct {
	Timestamp string          `json:"ts"`
	Data      json.RawMessage `json:"d"`
}

// decodeCommand builds a command from a parsed topic and message body. A
// command is valid only if its payload carries a parseable timestamp.
func decodeCommand(addr CommandAddress, payload []byte) (*models.Command, error) {
	var body commandBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("failed to parse command payload: %w", err)
	}
	if body.Timestamp == "" {
		return nil, errors.New("command payload carries no timestamp")
	}

	ts, err := time.Parse(time.RFC3339, body.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command timestamp: %w", err)
	}

	return &models.Command{
		Type:      addr.Type,
		DeviceID:  addr.ID,
		Name:      addr.Command,
		Format:    addr.Format,
		Timestamp: ts,
		Data:      body.Data,
		Payload:   payload,
	}, nil
}
