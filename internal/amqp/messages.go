package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

// Op is the mutation that changed the ledger.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

func (o Op) Valid() bool {
	switch o {
	case OpAdd, OpUpdate, OpDelete:
		return true
	}
	return false
}

// LedgerChangedMessage tells consumers that a month's totals are stale.
// It carries no amounts; the worker reloads the month from storage.
type LedgerChangedMessage struct {
	EntryID   string    `json:"entry_id"`
	Op        Op        `json:"op"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message stamped with the current time.
func NewLedgerChangedMessage(entryID uuid.UUID, op Op, month core.Month) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		EntryID:   entryID.String(),
		Op:        op,
		Month:     month.String(),
		Timestamp: time.Now().UTC(),
	}
}

// ReferenceMonth parses Month.
func (m *LedgerChangedMessage) ReferenceMonth() (core.Month, error) {
	return core.ParseMonth(m.Month)
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and validates a message. Messages
// that fail here can never be processed and should not be requeued.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Op.Valid() {
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	if _, err := msg.ReferenceMonth(); err != nil {
		return nil, err
	}
	return &msg, nil
}
