package broadcast

import (
	"encoding/json"
	"time"
	"tracking/internal/protocol/gt06"
)

// Event is the envelope pushed to live clients and published on the bus.
type Event struct {
	Type       gt06.Kind    `json:"type"`
	DeviceID   string       `json:"device_id,omitempty"`
	Serial     uint16       `json:"serial"`
	ReceivedAt time.Time    `json:"received_at"`
	Data       gt06.Message `json:"data"`
}

func NewEvent(msg gt06.Message, receivedAt time.Time) Event {
	return Event{
		Type:       msg.Kind(),
		DeviceID:   gt06.DeviceID(msg),
		Serial:     msg.Header().Serial,
		ReceivedAt: receivedAt.UTC(),
		Data:       msg,
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
