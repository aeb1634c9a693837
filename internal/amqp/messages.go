package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Export message kinds. An upsert tells the worker to (re)write the
// expense row in the ledger, a delete tells it to remove the row.
const (
	KindUpsert = "upsert"
	KindDelete = "delete"
)

// ExportMessage is a lightweight pointer to one expense. The worker
// fetches the full record from the database, so stale payloads are
// impossible.
type ExportMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUpsertMessage(id int64) *ExportMessage {
	return &ExportMessage{Kind: KindUpsert, ID: id, Timestamp: time.Now()}
}

func NewDeleteMessage(id int64) *ExportMessage {
	return &ExportMessage{Kind: KindDelete, ID: id, Timestamp: time.Now()}
}

func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind != KindUpsert && msg.Kind != KindDelete {
		return nil, fmt.Errorf("unknown message kind %q", msg.Kind)
	}
	return &msg, nil
}
