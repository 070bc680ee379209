package timebank

import "time"

type Kind string

const (
	KindCredit Kind = "CREDIT"
	KindDebit  Kind = "DEBIT"
)

type Origin string

const (
	OriginManual        Origin = "MANUAL"
	OriginJustification Origin = "JUSTIFICATION_APPROVED"
)

// LedgerEntry is a manual time-bank adjustment. Minutes are non-negative;
// the kind decides the sign of the contribution.
type LedgerEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	TenantID    string    `json:"tenantId"`
	Kind        Kind      `json:"kind"`
	Minutes     int       `json:"minutes"`
	Description string    `json:"description"`
	Origin      Origin    `json:"origin"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
}

// SignedMinutes is the entry's contribution to any balance sum.
func (e LedgerEntry) SignedMinutes() int {
	if e.Kind == KindDebit {
		return -e.Minutes
	}
	return e.Minutes
}
