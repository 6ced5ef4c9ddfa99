package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the redemption session lifecycle state.
// pending -> approved | rejected | expired; approved -> used.
// rejected, expired and used are terminal.
type SessionStatus string

const (
	SessionPending  SessionStatus = "pending"
	SessionApproved SessionStatus = "approved"
	SessionRejected SessionStatus = "rejected"
	SessionExpired  SessionStatus = "expired"
	SessionUsed     SessionStatus = "used"
)

// RedemptionSession is a short-lived, customer-approved authorization for a
// shop to debit RCN. MaxAmount snapshots the verifier decision at creation
// time; the decision is re-checked when the session is used.
type RedemptionSession struct {
	BaseModel
	CustomerAddress string        `gorm:"index" json:"customer_address"`
	ShopID          uuid.UUID     `gorm:"type:uuid;index" json:"shop_id"`
	Amount          int64         `json:"amount"`
	MaxAmount       int64         `json:"max_amount"`
	Status          SessionStatus `gorm:"index" json:"status"`
	ExpiresAt       time.Time     `gorm:"index" json:"expires_at"`
	ApprovedAt      *time.Time    `json:"approved_at"`
	UsedAt          *time.Time    `json:"used_at"`
	QRCode          string        `json:"qr_code"`
	Signature       string        `json:"signature"`
}
