package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/rcn/internal/config"
	"github.com/example/rcn/internal/metrics"
	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/rcn"
)

// SessionService runs the redemption session state machine:
// pending -> approved/rejected/expired, approved -> used.
type SessionService struct {
	db      *gorm.DB
	cfg     *config.Config
	tokens  *TokenService
	monitor *MonitorService
}

func NewSessionService(db *gorm.DB, cfg *config.Config, tokens *TokenService, monitor *MonitorService) *SessionService {
	return &SessionService{db: db, cfg: cfg, tokens: tokens, monitor: monitor}
}

// Create opens a pending session for a shop to redeem amount from a
// customer. The verifier decision is snapshotted into MaxAmount and the
// requested amount must already fit it; at most one live pending session may
// exist per (customer, shop) pair.
func (s *SessionService) Create(ctx context.Context, shopID uuid.UUID, address string, amount int64) (*models.RedemptionSession, error) {
	address, err := rcn.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var session models.RedemptionSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The customer row lock serializes session creation for this
		// customer, so two concurrent creates cannot both pass the
		// one-pending-session check below.
		var customer models.Customer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&customer, "address = ?", address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return rcn.NotFound("customer not found")
			}
			return err
		}
		if !customer.Active {
			return rcn.Validation("customer account is deactivated")
		}

		now := time.Now()

		var open []models.RedemptionSession
		if err := tx.Where("customer_address = ? AND shop_id = ? AND status = ?",
			address, shopID, models.SessionPending).
			Find(&open).Error; err != nil {
			return err
		}
		for i := range open {
			if rcn.BlocksNewSession(rcn.SessionState(open[i].Status), open[i].ExpiresAt, now) {
				return rcn.Conflict("a pending redemption session already exists for this customer and shop")
			}
			// Dead pending sessions retire here, mirroring the sweep.
			if err := tx.Model(&open[i]).Update("status", models.SessionExpired).Error; err != nil {
				return err
			}
		}

		decision, err := verify(tx, address, shopID, amount)
		if err != nil {
			return err
		}
		if !decision.CanRedeem {
			if amount <= 0 {
				return rcn.Validation(decision.Message)
			}
			return rcn.LimitExceeded(decision.Message).
				WithDetail("max_redeemable", decision.MaxRedeemable).
				WithDetail("requested", amount)
		}

		session = models.RedemptionSession{
			CustomerAddress: address,
			ShopID:          shopID,
			Amount:          amount,
			MaxAmount:       decision.MaxRedeemable,
			Status:          models.SessionPending,
			ExpiresAt:       now.Add(s.cfg.SessionTTL),
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		session.QRCode = fmt.Sprintf("rcn:session:%s", session.ID)
		return tx.Model(&session).Update("qr_code", session.QRCode).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Approve records the customer's signature on a pending session. A session
// past its expiry can never be approved; it is swept to expired instead.
func (s *SessionService) Approve(ctx context.Context, id uuid.UUID, address, signature string) (*models.RedemptionSession, error) {
	address, err := rcn.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if signature == "" {
		return nil, rcn.Validation("signature is required")
	}

	var session models.RedemptionSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, id, &session); err != nil {
			return err
		}
		if session.CustomerAddress != address {
			return rcn.Unauthorized("session belongs to another customer")
		}

		now := time.Now()
		if err := rcn.CanApprove(rcn.SessionState(session.Status), session.ExpiresAt, now); err != nil {
			if session.Status == models.SessionPending && !now.Before(session.ExpiresAt) {
				session.Status = models.SessionExpired
				if uerr := tx.Model(&session).Update("status", session.Status).Error; uerr != nil {
					return uerr
				}
			}
			return err
		}

		session.Status = models.SessionApproved
		session.ApprovedAt = &now
		session.Signature = signature
		return tx.Model(&session).Updates(map[string]any{
			"status":      session.Status,
			"approved_at": session.ApprovedAt,
			"signature":   session.Signature,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Reject is the customer's cancellation path; terminal.
func (s *SessionService) Reject(ctx context.Context, id uuid.UUID, address string) (*models.RedemptionSession, error) {
	address, err := rcn.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var session models.RedemptionSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, id, &session); err != nil {
			return err
		}
		if session.CustomerAddress != address {
			return rcn.Unauthorized("session belongs to another customer")
		}
		if err := rcn.CanReject(rcn.SessionState(session.Status)); err != nil {
			return err
		}

		session.Status = models.SessionRejected
		return tx.Model(&session).Update("status", session.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Use completes an approved session: the redemption decision is re-verified
// under the customer row lock (balances may have moved since approval) and
// the ledger debit is written in the same transaction as the state change.
func (s *SessionService) Use(ctx context.Context, id uuid.UUID, shopID uuid.UUID) (*models.RedemptionSession, error) {
	var session models.RedemptionSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, id, &session); err != nil {
			return err
		}
		if session.ShopID != shopID {
			return rcn.Unauthorized("session belongs to another shop")
		}
		if err := rcn.CanUse(rcn.SessionState(session.Status)); err != nil {
			return err
		}

		customer, err := lockCustomer(tx, session.CustomerAddress)
		if err != nil {
			return err
		}

		decision, err := verify(tx, customer.Address, shopID, session.Amount)
		if err != nil {
			return err
		}
		if !decision.CanRedeem {
			return rcn.LimitExceeded("balance changed since approval: "+decision.Message).
				WithDetail("max_redeemable", decision.MaxRedeemable).
				WithDetail("requested", session.Amount)
		}

		now := time.Now()
		debit := models.Transaction{
			Type:            models.TransactionRedeem,
			CustomerAddress: customer.Address,
			ShopID:          &shopID,
			Amount:          session.Amount,
			Timestamp:       now,
			Status:          models.TransactionConfirmed,
			Metadata: models.Metadata{
				Kind:       models.MetaRedemption,
				Redemption: &models.RedemptionMeta{SessionID: session.ID, IsHomeShop: decision.IsHomeShop},
			}.Encode(),
		}
		if err := tx.Create(&debit).Error; err != nil {
			return err
		}

		session.Status = models.SessionUsed
		session.UsedAt = &now
		if err := tx.Model(&session).Updates(map[string]any{
			"status":  session.Status,
			"used_at": session.UsedAt,
		}).Error; err != nil {
			return err
		}

		metrics.TokensRedeemed.Add(float64(session.Amount))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session", session.ID.String()).
		Str("customer", session.CustomerAddress).
		Int64("amount", session.Amount).
		Msg("redemption completed")
	return &session, nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*models.RedemptionSession, error) {
	var session models.RedemptionSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rcn.NotFound("session not found")
		}
		return nil, err
	}
	return &session, nil
}

// ExpireOldSessions sweeps all pending sessions past their expiry. The
// UPDATE is idempotent and safe to run from multiple instances at once.
func (s *SessionService) ExpireOldSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.RedemptionSession{}).
		Where("status = ? AND expires_at <= ?", models.SessionPending, time.Now()).
		Update("status", models.SessionExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		metrics.SessionsExpired.Add(float64(res.RowsAffected))
		log.Info().Int64("count", res.RowsAffected).Msg("expired stale redemption sessions")
	}
	return res.RowsAffected, nil
}

// Sweep runs the expiry sweep on an interval until ctx is cancelled.
func (s *SessionService) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireOldSessions(ctx); err != nil {
				log.Error().Err(err).Msg("session sweep failed")
				s.monitor.Alert(ctx, "session_sweep_failure", "session sweep failed", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}
}

func lockSession(tx *gorm.DB, id uuid.UUID, session *models.RedemptionSession) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rcn.NotFound("session not found")
	}
	return err
}
