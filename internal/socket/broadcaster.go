package socket

import (
	"encoding/json"
	"log"
	"time"
)

// Broadcaster turns domain events into workspace frames
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// Publish encodes an event once and pushes the identical payload to every
// open connection of the workspace. Delivery is fire-and-forget.
func (b *Broadcaster) Publish(workspaceID string, msgType MessageType, payload map[string]interface{}) {
	fields := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		fields[k] = v
	}
	fields["workspaceId"] = workspaceID

	data, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   fields,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("[Broadcaster] Error marshaling %s: %v", msgType, err)
		return
	}

	log.Printf("📡 Publish: workspace=%s, type=%s", workspaceID, msgType)
	b.hub.Fanout(workspaceID, data, nil)
}
