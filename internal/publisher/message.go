package publisher

import (
	"encoding/json"
	"time"

	"github.com/yourusername/clever-exotics/internal/models"
)

// MessageType tags every published payload
const MessageType = "exotic_signal"

// SignalMessage is the wire envelope for a single signal
type SignalMessage struct {
	Type        string        `json:"type"`
	RaceID      string        `json:"race_id"`
	PublishedAt time.Time     `json:"published_at"`
	Signal      models.Signal `json:"signal"`
}

// NewSignalMessage wraps a signal for publication
func NewSignalMessage(raceID string, s models.Signal, now time.Time) SignalMessage {
	return SignalMessage{
		Type:        MessageType,
		RaceID:      raceID,
		PublishedAt: now.UTC(),
		Signal:      s,
	}
}

// Encode marshals the envelope to JSON
func (m SignalMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeSignalMessage parses a payload produced by Encode
func DecodeSignalMessage(data []byte) (SignalMessage, error) {
	var m SignalMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
