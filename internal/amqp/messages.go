package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event names published to the audit queue.
const (
	EventIncomeRecorded    = "income_recorded"
	EventExpenseCreated    = "expense_created"
	EventLiabilityPaid     = "liability_paid"
	EventLiabilityUnpaid   = "liability_unpaid"
	EventLiabilitiesSeeded = "liabilities_seeded"
	EventRateActivated     = "rate_activated"
	EventAssetSaved        = "asset_saved"
	EventAssetDeleted      = "asset_deleted"
)

// LedgerEventMessage describes one mutation of the ledger. The notifier
// worker appends these to the audit spreadsheet.
type LedgerEventMessage struct {
	Event       string    `json:"event"`
	Entity      string    `json:"entity"`
	EntityID    string    `json:"entity_id"`
	Wallet      string    `json:"wallet,omitempty"`
	Month       string    `json:"month,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event stamped with the current time.
func NewLedgerEventMessage(event, entity, entityID string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:     event,
		Entity:    entity,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
