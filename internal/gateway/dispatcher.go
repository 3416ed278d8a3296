package gateway

import (
	"sync"

	"github.com/edgebound/iot-gateway-sdk/internal/models"
)

// CommandHandler processes a decoded command. At most one handler is
// registered at a time; setting a new one replaces the previous one.
type CommandHandler func(cmd *models.Command)

// commandDispatcher holds the single mutable handler slot. Reads happen on
// the transport callback path, replacements on the caller's own goroutine.
type commandDispatcher struct {
	mu      sync.RWMutex
	handler CommandHandler
}

func (d *commandDispatcher) set(handler CommandHandler) {
	d.mu.Lock()
	d.handler = handler
	d.mu.Unlock()
}

func (d *commandDispatcher) registered() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handler != nil
}

// dispatch invokes the handler synchronously. It is a no-op when no handler
// is registered.
func (d *commandDispatcher) dispatch(cmd *models.Command) {
	d.mu.RLock()
	handler := d.handler
	d.mu.RUnlock()

	if handler != nil {
		handler(cmd)
	}
}
