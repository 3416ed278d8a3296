package gateway

import (
	"fmt"
	"strings"

	"github.com/edgebound/iot-gateway-sdk/internal/constants"
)

// Command topics have the fixed shape
// iot-2/type/<deviceType>/id/<deviceId>/cmd/<command>/fmt/<format>.
const commandTopicSegments = 9

// CommandAddress holds the four variable segments of a command topic.
type CommandAddress struct {
	Type    string
	ID      string
	Command string
	Format  string
}

// DeviceEventTopic builds the publish topic for an event. Events are always
// published in JSON format.
func DeviceEventTopic(deviceType, deviceID, event string) string {
	return fmt.Sprintf("%s/type/%s/id/%s/evt/%s/fmt/json", constants.TopicPrefix, deviceType, deviceID, event)
}

// DeviceCommandTopic builds the subscription topic for commands addressed to
// a device.
func DeviceCommandTopic(deviceType, deviceID, command, format string) string {
	return fmt.Sprintf("%s/type/%s/id/%s/cmd/%s/fmt/%s", constants.TopicPrefix, deviceType, deviceID, command, format)
}

// ParseCommandTopic matches a topic against the command topic shape and
// extracts its variable segments. The boolean is false for any topic that is
// not a command in the expected shape; such topics are simply not for us.
func ParseCommandTopic(topic string) (CommandAddress, bool) {
	segments := strings.Split(topic, "/")
	if len(segments) != commandTopicSegments {
		return CommandAddress{}, false
	}
	if segments[0] != constants.TopicPrefix || segments[1] != "type" ||
		segments[3] != "id" || segments[5] != "cmd" || segments[7] != "fmt" {
		return CommandAddress{}, false
	}

	addr := CommandAddress{
		Type:    segments[2],
		ID:      segments[4],
		Command: segments[6],
		Format:  segments[8],
	}
	if addr.Type == "" || addr.ID == "" || addr.Command == "" || addr.Format == "" {
		return CommandAddress{}, false
	}
	return addr, true
}
