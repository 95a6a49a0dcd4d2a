package amqp

import "testing"

func TestLedgerEventMessageJSON(t *testing.T) {
	msg := NewLedgerEventMessage(OpRuleAdded, "rule-1", 7)

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := LedgerEventMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Op != OpRuleAdded || back.RuleID != "rule-1" || back.Revision != 7 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestLedgerEventMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}
