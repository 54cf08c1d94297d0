package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action tells the mirror worker what to do with a transaction row.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// MirrorMessage is the lightweight queue payload for mirroring one
// transaction to the spreadsheet. The worker fetches the full row from the
// store on upsert; delete carries only the identity because the row is
// already gone locally.
type MirrorMessage struct {
	Owner     int64     `json:"owner"`
	ID        int64     `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMirrorMessage(owner, id int64, action Action) *MirrorMessage {
	return &MirrorMessage{
		Owner:     owner,
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (m *MirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MirrorMessageFromJSON(data []byte) (*MirrorMessage, error) {
	var msg MirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Action != ActionUpsert && msg.Action != ActionDelete {
		return nil, fmt.Errorf("unknown mirror action %q", msg.Action)
	}
	return &msg, nil
}
