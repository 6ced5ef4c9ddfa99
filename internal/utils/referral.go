package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewReferralCode generates a short shareable referral code.
func NewReferralCode() string {
	return "RCN-" + strings.ToUpper(uuid.NewString()[:8])
}
