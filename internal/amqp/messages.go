package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change operations carried by RecordsChangedMessage.
const (
	OpInsert = "insert"
	OpDelete = "delete"
)

// RecordsChangedMessage announces a committed mutation. It carries only the
// record id; consumers reload the collection from the shared backend.
type RecordsChangedMessage struct {
	Op        string    `json:"op"`
	ID        int64     `json:"id"`
	Count     int       `json:"count"` // collection size after the change
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordsChangedMessage stamps a message with the current time.
func NewRecordsChangedMessage(op string, id int64, count int) *RecordsChangedMessage {
	return &RecordsChangedMessage{
		Op:        op,
		ID:        id,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordsChangedMessageFromJSON decodes and checks a message body.
func RecordsChangedMessageFromJSON(data []byte) (*RecordsChangedMessage, error) {
	var msg RecordsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op != OpInsert && msg.Op != OpDelete {
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
