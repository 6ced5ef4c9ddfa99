package rcn

import "time"

// SessionState mirrors the redemption session lifecycle for the pure
// transition checks. The services layer maps its persisted status here.
type SessionState string

const (
	SessionPending  SessionState = "pending"
	SessionApproved SessionState = "approved"
	SessionRejected SessionState = "rejected"
	SessionExpired  SessionState = "expired"
	SessionUsed     SessionState = "used"
)

// CanApprove checks the pending -> approved transition. A pending session
// past its expiry can never be approved; it must first be swept to expired.
func CanApprove(state SessionState, expiresAt, now time.Time) error {
	if state != SessionPending {
		return ExpiredState("session is not pending").WithDetail("status", string(state))
	}
	if !now.Before(expiresAt) {
		return ExpiredState("session has expired")
	}
	return nil
}

// CanReject checks the pending -> rejected transition. Rejection is the
// customer's cancellation path and is allowed right up to approval.
func CanReject(state SessionState) error {
	if state != SessionPending {
		return ExpiredState("session is not pending").WithDetail("status", string(state))
	}
	return nil
}

// CanUse checks the approved -> used transition. Used is reachable only from
// approved; the redemption decision is re-verified separately at use time.
func CanUse(state SessionState) error {
	switch state {
	case SessionApproved:
		return nil
	case SessionPending:
		return ExpiredState("session has not been approved by the customer")
	default:
		return ExpiredState("session is not approved").WithDetail("status", string(state))
	}
}

// BlocksNewSession reports whether an existing session for the same
// (customer, shop) pair forbids creating another: only a live pending
// session does.
func BlocksNewSession(state SessionState, expiresAt, now time.Time) bool {
	return state == SessionPending && now.Before(expiresAt)
}
