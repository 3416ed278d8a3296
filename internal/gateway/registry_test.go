package gateway_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgebound/iot-gateway-sdk/internal/gateway"
)

// TestTopicRegistry_RegisterOverwritesQOS verifies that re-registering a
// topic updates its QoS without duplicating the entry.
func TestTopicRegistry_RegisterOverwritesQOS(t *testing.T) {
	registry := gateway.NewTopicRegistry()

	registry.Register("iot-2/type/a/id/b/cmd/+/fmt/json", 0)
	registry.Register("iot-2/type/a/id/b/cmd/+/fmt/json", 2)

	assert.Equal(t, 1, registry.Len())
	entries := registry.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, byte(2), entries[0].QOS)
}

// TestTopicRegistry_EntriesPreserveRegistrationOrder verifies deterministic
// iteration order.
func TestTopicRegistry_EntriesPreserveRegistrationOrder(t *testing.T) {
	registry := gateway.NewTopicRegistry()

	topics := []string{
		"iot-2/type/a/id/1/cmd/+/fmt/json",
		"iot-2/type/b/id/2/cmd/+/fmt/json",
		"iot-2/type/c/id/3/cmd/+/fmt/json",
	}
	for i, topic := range topics {
		registry.Register(topic, byte(i))
	}

	// Overwriting the first topic's QoS must not move it.
	registry.Register(topics[0], 1)

	entries := registry.Entries()
	assert.Len(t, entries, 3)
	for i, topic := range topics {
		assert.Equal(t, topic, entries[i].Topic)
	}
	assert.Equal(t, byte(1), entries[0].QOS)
}

// TestTopicRegistry_ConcurrentAccess exercises registration interleaved with
// iteration, as happens when a caller subscribes during a reconnect replay.
func TestTopicRegistry_ConcurrentAccess(t *testing.T) {
	registry := gateway.NewTopicRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				topic := fmt.Sprintf("iot-2/type/t%d/id/d%d/cmd/+/fmt/json", n, j)
				registry.Register(topic, byte(j%3))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				registry.Entries()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, registry.Len())
	assert.Len(t, registry.Entries(), 800)
}
