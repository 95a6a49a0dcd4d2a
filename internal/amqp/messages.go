package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event operations.
const (
	OpRuleAdded   = "rule_added"
	OpRuleRemoved = "rule_removed"
	OpBalanceSet  = "balance_set"
	OpReplaced    = "replaced"
)

// LedgerEventMessage notifies downstream consumers that the ledger changed.
// It carries only the operation, the affected rule id and the new revision;
// consumers fetch current state through the API.
type LedgerEventMessage struct {
	Op        string    `json:"op"`
	RuleID    string    `json:"rule_id,omitempty"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event for the given operation.
func NewLedgerEventMessage(op, ruleID string, revision uint64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Op:        op,
		RuleID:    ruleID,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
