package jobs

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"call_center_app_go/services"

	"gorm.io/gorm"
)

// Broadcaster delivers one message to every connected client
type Broadcaster interface {
	Broadcast(msg []byte) int
}

// BroadcastTranscribedCalls claims every transcribed call not yet delivered and
// pushes them to clients as one JSON array. Returns how many calls were claimed.
func BroadcastTranscribedCalls(db *gorm.DB, out Broadcaster) (claimed int, err error) {
	start := time.Now()
	defer func() { observe("broadcast", start, err) }()

	calls, err := services.ClaimUnprocessedCalls(db)
	if err != nil {
		return 0, err
	}
	if len(calls) == 0 {
		return 0, nil
	}

	payload, err := json.Marshal(calls)
	if err != nil {
		return 0, fmt.Errorf("failed to encode calls: %w", err)
	}

	clients := out.Broadcast(payload)
	callsBroadcastTotal.Add(float64(len(calls)))
	log.Printf("[WS] Broadcast %d calls to %d clients", len(calls), clients)
	return len(calls), nil
}
