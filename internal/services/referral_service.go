package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/rcn"
)

// ReferralService pays referral bonuses. Completion is all-or-nothing: both
// credits and the status flip share one transaction, so a capacity-guard
// rejection on either side leaves the referral pending.
type ReferralService struct {
	db     *gorm.DB
	tokens *TokenService
}

func NewReferralService(db *gorm.DB, tokens *TokenService) *ReferralService {
	return &ReferralService{db: db, tokens: tokens}
}

// Register links a new customer to the referrer owning code. No bonus is
// paid yet; that happens on the referee's first repair.
func (s *ReferralService) Register(ctx context.Context, code, refereeAddress string) (*models.Referral, error) {
	refereeAddress, err := rcn.NormalizeAddress(refereeAddress)
	if err != nil {
		return nil, err
	}

	var referrer models.Customer
	if err := s.db.WithContext(ctx).First(&referrer, "referral_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rcn.NotFound("referral code not found")
		}
		return nil, err
	}
	if referrer.Address == refereeAddress {
		return nil, rcn.Validation("cannot refer yourself")
	}

	var existing models.Referral
	if err := s.db.WithContext(ctx).First(&existing, "referee_address = ?", refereeAddress).Error; err == nil {
		return nil, rcn.Conflict("customer was already referred")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	referral := models.Referral{
		ReferrerAddress: referrer.Address,
		RefereeAddress:  refereeAddress,
		Code:            code,
		Status:          models.ReferralPending,
	}
	if err := s.db.WithContext(ctx).Create(&referral).Error; err != nil {
		return nil, err
	}
	return &referral, nil
}

// CompleteResult reports the two credits of a completed referral.
type CompleteResult struct {
	Referral models.Referral
	Referrer models.TokenSource
	Referee  models.TokenSource
}

// Complete pays out a pending referral: referrer +25, referee +10, one
// logical transaction. Both credits pass the earning capacity guard.
func (s *ReferralService) Complete(ctx context.Context, refereeAddress string, shopID *uuid.UUID) (*CompleteResult, error) {
	refereeAddress, err := rcn.NormalizeAddress(refereeAddress)
	if err != nil {
		return nil, err
	}

	var (
		result   CompleteResult
		settleUs []*models.Transaction
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referral models.Referral
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&referral, "referee_address = ?", refereeAddress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rcn.NotFound("no referral found for this customer")
		}
		if err != nil {
			return err
		}
		if referral.Status != models.ReferralPending {
			return rcn.Conflict("referral already completed")
		}

		now := time.Now()
		meta := models.Metadata{
			Kind: models.MetaReferral,
			Referral: &models.ReferralMeta{
				ReferralID:      referral.ID,
				ReferrerAddress: referral.ReferrerAddress,
				RefereeAddress:  referral.RefereeAddress,
				ReferrerTokens:  rcn.ReferrerBonus,
				RefereeTokens:   rcn.RefereeBonus,
			},
		}

		referrerCredit, err := s.tokens.creditIn(tx, CreditRequest{
			CustomerAddress: referral.ReferrerAddress,
			SourceType:      models.SourceReferralBonus,
			ShopID:          shopID,
			Amount:          rcn.ReferrerBonus,
			Metadata:        meta,
		}, now)
		if err != nil {
			return err
		}

		refereeCredit, err := s.tokens.creditIn(tx, CreditRequest{
			CustomerAddress: referral.RefereeAddress,
			SourceType:      models.SourceReferralBonus,
			ShopID:          shopID,
			Amount:          rcn.RefereeBonus,
			Metadata:        meta,
		}, now)
		if err != nil {
			return err
		}

		referral.Status = models.ReferralCompleted
		referral.CompletedAt = &now
		if err := tx.Model(&referral).Updates(map[string]any{
			"status":       referral.Status,
			"completed_at": referral.CompletedAt,
		}).Error; err != nil {
			return err
		}

		result = CompleteResult{
			Referral: referral,
			Referrer: referrerCredit.Source,
			Referee:  refereeCredit.Source,
		}
		settleUs = append(settleUs, &referrerCredit.Transaction, &refereeCredit.Transaction)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, txn := range settleUs {
		s.tokens.settle(ctx, txn)
	}

	log.Info().
		Str("referrer", result.Referral.ReferrerAddress).
		Str("referee", result.Referral.RefereeAddress).
		Msg("referral completed")
	return &result, nil
}
