package broadcast

import (
	"tracking/internal/protocol/gt06"
	"tracking/internal/protocol/server"
)

// Fanout hands every message to each of its broadcasters in order.
type Fanout []server.Broadcaster

func (f Fanout) Publish(msg gt06.Message) {
	for _, b := range f {
		if b != nil {
			b.Publish(msg)
		}
	}
}
