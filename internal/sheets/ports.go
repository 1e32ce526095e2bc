// Package sheets defines the outbound audit-trail port. The ledger appends
// one row per event to an external spreadsheet so the household has a
// tamper-evident history outside the database.
package sheets

import (
	"context"
	"time"
)

// AuditRow is one appended line of the audit trail.
type AuditRow struct {
	Timestamp   time.Time
	Event       string
	Entity      string
	EntityID    string
	Wallet      string
	Month       string
	AmountCents int64
	Description string
}

// AuditAppender appends rows to the audit sheet.
type AuditAppender interface {
	Append(ctx context.Context, row AuditRow) (rowRef string, err error)
}
