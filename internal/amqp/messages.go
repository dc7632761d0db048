package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeKind tells the consumer what happened to a cycle.
type ChangeKind string

const (
	CycleUpserted ChangeKind = "cycle.upserted"
	CycleUpdated  ChangeKind = "cycle.updated"
	CycleDeleted  ChangeKind = "cycle.deleted"
	LedgerChanged ChangeKind = "ledger.changed"
)

// CycleChangedMessage is a lightweight notification that a cycle or its
// ledger changed. It carries only identifiers; the consumer reloads the
// current state from the database. MonthKey is included so a deleted cycle
// can still be located in external sinks.
type CycleChangedMessage struct {
	Kind      ChangeKind `json:"kind"`
	UserID    int64      `json:"user_id"`
	CycleID   int64      `json:"cycle_id"`
	MonthKey  string     `json:"month_key"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewCycleChangedMessage(kind ChangeKind, userID, cycleID int64, monthKey string) *CycleChangedMessage {
	return &CycleChangedMessage{
		Kind:      kind,
		UserID:    userID,
		CycleID:   cycleID,
		MonthKey:  monthKey,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *CycleChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CycleChangedMessageFromJSON decodes a message and rejects ones missing
// the fields a consumer needs.
func CycleChangedMessageFromJSON(data []byte) (*CycleChangedMessage, error) {
	var msg CycleChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case CycleUpserted, CycleUpdated, CycleDeleted, LedgerChanged:
	default:
		return nil, fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	if msg.UserID <= 0 || msg.MonthKey == "" {
		return nil, fmt.Errorf("message missing user or month key")
	}
	return &msg, nil
}
