package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/edgebound/iot-gateway-sdk/internal/constants"
	"github.com/edgebound/iot-gateway-sdk/internal/gateway"
	"github.com/edgebound/iot-gateway-sdk/internal/models"
	"github.com/edgebound/iot-gateway-sdk/internal/utils"
	"github.com/edgebound/iot-gateway-sdk/pkg/api"
	"github.com/edgebound/iot-gateway-sdk/pkg/file"
	"github.com/edgebound/iot-gateway-sdk/pkg/identity"
	"github.com/edgebound/iot-gateway-sdk/pkg/mqtt"
)

func main() {
	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Build the gateway identity; this fails fast on a bad org or auth method
	gwIdentity, err := identity.New(identity.Config{
		Org:        config.Identity.Org,
		DeviceType: config.Identity.DeviceType,
		DeviceID:   config.Identity.DeviceID,
		AuthMethod: config.Identity.AuthMethod,
		AuthKey:    config.Identity.AuthKey,
		AuthToken:  config.Identity.AuthToken,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid gateway identity")
	}
	logger.Info().Str("client_id", gwIdentity.ClientID()).Msg("Gateway identity resolved")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient, logger)
	err = mqttClient.Initialize(config.MQTT.Broker, gwIdentity.ClientID(),
		gwIdentity.Username(), gwIdentity.Password(), config.MQTT.CACertificate)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	gw := gateway.NewGatewayClient(gwIdentity, mqttClient, logger)
	gw.SetCommandCallback(func(cmd *models.Command) {
		event := logger.Info().
			Str("command", cmd.Name).
			Str("device_type", cmd.Type).
			Str("device_id", cmd.DeviceID).
			Time("timestamp", cmd.Timestamp)
		if len(cmd.Data) > 0 {
			event = event.RawJSON("data", cmd.Data)
		}
		event.Msg("Command received")
	})

	if err := gw.Connect(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to broker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The REST API client shares the gateway's identity and credentials.
	apiClient := api.NewClient(gwIdentity, logger)
	registered, err := apiClient.IsDeviceRegistered(ctx, gwIdentity.DeviceType(), gwIdentity.DeviceID())
	if err != nil {
		logger.Warn().Err(err).Msg("Could not verify gateway registration")
	} else {
		logger.Info().Bool("registered", registered).Msg("Gateway registration checked")
	}

	if config.Telemetry.Enabled {
		go runTelemetryLoop(ctx, gw, config, logger)
	}

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	cancel()
	mqttClient.Disconnect(250)
}

// runTelemetryLoop periodically publishes the gateway's own CPU and memory
// usage as a status event.
func runTelemetryLoop(ctx context.Context, gw *gateway.GatewayClient, config *utils.Config, logger zerolog.Logger) {
	event := config.Telemetry.Event
	if event == "" {
		event = constants.DefaultTelemetryEvent
	}
	interval := config.Telemetry.Interval
	if interval == 0 {
		interval = constants.DefaultTelemetryInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			telemetry := models.GatewayTelemetry{}

			if cpuPercentages, err := cpu.Percent(0, false); err != nil {
				logger.Error().Err(err).Msg("Failed to get CPU usage")
			} else if len(cpuPercentages) > 0 {
				telemetry.CPUPercent = cpuPercentages[0]
			}

			if vm, err := mem.VirtualMemory(); err != nil {
				logger.Error().Err(err).Msg("Failed to get memory usage")
			} else {
				telemetry.MemoryUsedPercent = vm.UsedPercent
			}

			if ok := gw.PublishGatewayEventWithQOS(event, telemetry, byte(config.Telemetry.QOS)); !ok {
				logger.Warn().Str("event", event).Msg("Telemetry event not delivered")
			}

		case <-ctx.Done():
			logger.Info().Msg("Telemetry loop stopping")
			return
		}
	}
}
