package gateway

import (
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// TopicEntry pairs a subscribed topic with its desired QoS level.
type TopicEntry struct {
	Topic string
	QOS   byte
}

// TopicRegistry records every command subscription made over the life of the
// client. Entries are never removed; after a connection loss they are the
// source of truth for resubscription. Registering a topic that is already
// present overwrites its QoS instead of duplicating the entry.
type TopicRegistry struct {
	qos cmap.ConcurrentMap[string, byte]

	mu    sync.Mutex
	order []string
}

// NewTopicRegistry creates an empty registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		qos: cmap.New[byte](),
	}
}

// Register inserts the topic or, if it is already present, overwrites its QoS.
func (r *TopicRegistry) Register(topic string, qos byte) {
	if r.qos.SetIfAbsent(topic, qos) {
		r.mu.Lock()
		r.order = append(r.order, topic)
		r.mu.Unlock()
		return
	}
	r.qos.Set(topic, qos)
}

// Entries returns every registered topic with its current QoS, in
// registration order.
func (r *TopicRegistry) Entries() []TopicEntry {
	r.mu.Lock()
	topics := make([]string, len(r.order))
	copy(topics, r.order)
	r.mu.Unlock()

	entries := make([]TopicEntry, 0, len(topics))
	for _, topic := range topics {
		if qos, ok := r.qos.Get(topic); ok {
			entries = append(entries, TopicEntry{Topic: topic, QOS: qos})
		}
	}
	return entries
}

// Len returns the number of distinct registered topics.
func (r *TopicRegistry) Len() int {
	return r.qos.Count()
}
