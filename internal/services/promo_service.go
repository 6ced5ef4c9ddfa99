package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/rcn"
)

// PromoService owns promo code issuance, validation and use. The business
// rule runs as a pure function over a snapshot of the code row; the usage
// counters advance with a compare-and-increment under the row lock.
type PromoService struct {
	db     *gorm.DB
	tokens *TokenService
}

func NewPromoService(db *gorm.DB, tokens *TokenService) *PromoService {
	return &PromoService{db: db, tokens: tokens}
}

// CreatePromoInput describes a new shop promo code.
type CreatePromoInput struct {
	Code             string
	BonusType        models.BonusType
	BonusValue       int64
	MaxBonus         *int64
	StartDate        time.Time
	EndDate          time.Time
	TotalUsageLimit  *int64
	PerCustomerLimit int64
}

// Create issues a promo code for a shop.
func (s *PromoService) Create(ctx context.Context, shopID uuid.UUID, in CreatePromoInput) (*models.PromoCode, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, rcn.Validation("promo code is required")
	}
	if in.BonusType != models.BonusFixed && in.BonusType != models.BonusPercentage {
		return nil, rcn.Validation("bonus type must be fixed or percentage")
	}
	if in.BonusValue <= 0 {
		return nil, rcn.Validation("bonus value must be positive")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, rcn.Validation("end date must be after start date")
	}
	if in.PerCustomerLimit <= 0 {
		in.PerCustomerLimit = 1
	}

	var existing models.PromoCode
	if err := s.db.WithContext(ctx).
		Where("shop_id = ? AND code = ?", shopID, code).
		First(&existing).Error; err == nil {
		return nil, rcn.Conflict("promo code already exists for this shop")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	promo := models.PromoCode{
		ShopID:           shopID,
		Code:             code,
		BonusType:        in.BonusType,
		BonusValue:       in.BonusValue,
		MaxBonus:         in.MaxBonus,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		TotalUsageLimit:  in.TotalUsageLimit,
		PerCustomerLimit: in.PerCustomerLimit,
		Active:           true,
	}
	if err := s.db.WithContext(ctx).Create(&promo).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// ValidationResult is the read-only promo check with a bonus preview.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Bonus      int64  `json:"bonus"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code"`
	BonusType  string `json:"bonus_type"`
	BonusValue int64  `json:"bonus_value"`
}

// Validate checks a promo code for a customer without consuming a use.
func (s *PromoService) Validate(ctx context.Context, shopID uuid.UUID, code, address string, baseReward int64) (*ValidationResult, error) {
	address, err := rcn.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	promo, err := findPromo(db, shopID, code)
	if err != nil {
		return nil, err
	}

	snap, err := snapshotPromo(db, promo, address)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Code:       promo.Code,
		BonusType:  string(promo.BonusType),
		BonusValue: promo.BonusValue,
	}
	if err := rcn.ValidatePromo(snap, time.Now()); err != nil {
		var e *rcn.Error
		if errors.As(err, &e) {
			result.Message = e.Message
			return result, nil
		}
		return nil, err
	}

	result.Valid = true
	result.Bonus = rcn.PromoBonus(snap, baseReward)
	return result, nil
}

// UseResult reports a consumed promo use and the credited bonus.
type UseResult struct {
	Use    models.PromoCodeUse `json:"use"`
	Credit *CreditResult       `json:"-"`
	Bonus  int64               `json:"bonus"`
}

// Use consumes a promo use: the use row insert, the counter increments and
// the capacity-guarded bonus credit all commit in one transaction.
func (s *PromoService) Use(ctx context.Context, shopID uuid.UUID, code, address string, baseReward int64) (*UseResult, error) {
	address, err := rcn.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if baseReward < 0 {
		return nil, rcn.Validation("base reward cannot be negative")
	}

	var result UseResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		promo, err := findPromoLocked(tx, shopID, code)
		if err != nil {
			return err
		}

		snap, err := snapshotPromo(tx, promo, address)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := rcn.ValidatePromo(snap, now); err != nil {
			return err
		}

		bonus := rcn.PromoBonus(snap, baseReward)
		if bonus <= 0 {
			return rcn.Validation("promo bonus computes to zero for this base reward")
		}

		credit, err := s.tokens.creditIn(tx, CreditRequest{
			CustomerAddress: address,
			SourceType:      models.SourcePromotion,
			ShopID:          &promo.ShopID,
			Amount:          bonus,
			Metadata: models.Metadata{
				Kind: models.MetaPromo,
				Promo: &models.PromoMeta{
					PromoCodeID: promo.ID,
					Code:        promo.Code,
					BaseReward:  baseReward,
					BonusAmount: bonus,
				},
			},
		}, now)
		if err != nil {
			return err
		}

		use := models.PromoCodeUse{
			PromoCodeID:     promo.ID,
			CustomerAddress: address,
			ShopID:          promo.ShopID,
			BaseReward:      baseReward,
			BonusAmount:     bonus,
			TotalReward:     baseReward + bonus,
			UsedAt:          now,
		}
		if err := tx.Create(&use).Error; err != nil {
			return err
		}

		// Counter increments stay 1:1 with use rows because both writes
		// share this transaction.
		if err := tx.Model(&models.PromoCode{}).
			Where("id = ?", promo.ID).
			Updates(map[string]any{
				"times_used":         gorm.Expr("times_used + 1"),
				"total_bonus_issued": gorm.Expr("total_bonus_issued + ?", bonus),
			}).Error; err != nil {
			return err
		}

		result = UseResult{Use: use, Credit: credit, Bonus: bonus}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Credit != nil && !result.Credit.Duplicate {
		s.tokens.settle(ctx, &result.Credit.Transaction)
	}

	log.Info().
		Str("code", strings.ToUpper(strings.TrimSpace(code))).
		Str("customer", address).
		Int64("bonus", result.Bonus).
		Msg("promo code used")
	return &result, nil
}

// ListByShop returns a shop's promo codes.
func (s *PromoService) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.PromoCode, error) {
	var promos []models.PromoCode
	err := s.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at desc").
		Find(&promos).Error
	return promos, err
}

func findPromo(tx *gorm.DB, shopID uuid.UUID, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := tx.Where("shop_id = ? AND code = ?", shopID, strings.ToUpper(strings.TrimSpace(code))).
		First(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rcn.NotFound("promo code not found")
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func findPromoLocked(tx *gorm.DB, shopID uuid.UUID, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shop_id = ? AND code = ?", shopID, strings.ToUpper(strings.TrimSpace(code))).
		First(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rcn.NotFound("promo code not found")
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func snapshotPromo(tx *gorm.DB, promo *models.PromoCode, address string) (rcn.PromoSnapshot, error) {
	var customerUses int64
	if err := tx.Model(&models.PromoCodeUse{}).
		Where("promo_code_id = ? AND customer_address = ?", promo.ID, address).
		Count(&customerUses).Error; err != nil {
		return rcn.PromoSnapshot{}, err
	}

	return rcn.PromoSnapshot{
		Active:            promo.Active,
		Fixed:             promo.BonusType == models.BonusFixed,
		BonusValue:        promo.BonusValue,
		MaxBonus:          promo.MaxBonus,
		StartDate:         promo.StartDate,
		EndDate:           promo.EndDate,
		TotalUsageLimit:   promo.TotalUsageLimit,
		PerCustomerLimit:  promo.PerCustomerLimit,
		TimesUsed:         promo.TimesUsed,
		CustomerTimesUsed: customerUses,
	}, nil
}
