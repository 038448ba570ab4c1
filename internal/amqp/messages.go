package amqp

import (
	"encoding/json"
	"time"
)

// Operations carried by an export message.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// ExportMessage asks the export worker to mirror one record change.
// It carries only identifiers, the worker fetches the full record from
// the store before writing it out.
type ExportMessage struct {
	OwnerID   string    `json:"owner_id"`
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportMessage(ownerID, kind, id, op string) *ExportMessage {
	return &ExportMessage{
		OwnerID:   ownerID,
		Kind:      kind,
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
