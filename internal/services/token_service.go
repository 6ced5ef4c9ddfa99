package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/rcn/internal/config"
	"github.com/example/rcn/internal/metrics"
	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/rcn"
	"github.com/example/rcn/internal/utils"
)

// TokenService owns the provenance ledger: every credit passes through the
// earning capacity guard, every debit through the redemption verifier, and
// both run inside a row-locked database transaction on the customer.
type TokenService struct {
	db      *gorm.DB
	cfg     *config.Config
	minter  Minter
	monitor *MonitorService
}

// NewTokenService constructs the token service. The minter and monitor are
// injected capabilities, never reached through globals.
func NewTokenService(db *gorm.DB, cfg *config.Config, minter Minter, monitor *MonitorService) *TokenService {
	return &TokenService{db: db, cfg: cfg, minter: minter, monitor: monitor}
}

// CreditRequest describes one provenance-tagged credit event. Transfer marks
// an in-ecosystem move of existing tokens: no mint transaction is recorded
// and nothing is settled; the giver-side debit carries the audit entry.
type CreditRequest struct {
	CustomerAddress string
	SourceType      models.SourceType
	ShopID          *uuid.UUID
	Amount          int64
	TransactionID   string
	Metadata        models.Metadata
	Transfer        bool
}

// CreditResult reports the ledger entry written for a credit.
type CreditResult struct {
	Source      models.TokenSource
	Transaction models.Transaction
	Tier        rcn.Tier
	Duplicate   bool
}

// Credit applies a single guarded credit in its own transaction and settles
// it against the minter afterwards.
func (s *TokenService) Credit(ctx context.Context, req CreditRequest) (*CreditResult, error) {
	var res *CreditResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.creditIn(tx, req, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if !res.Duplicate {
		s.settle(ctx, &res.Transaction)
	}
	return res, nil
}

// creditIn is the transactional credit path shared by repairs, referrals,
// promos and gifts. The caller supplies the enclosing transaction; all
// writes here commit or roll back together.
func (s *TokenService) creditIn(tx *gorm.DB, req CreditRequest, now time.Time) (*CreditResult, error) {
	address, err := rcn.NormalizeAddress(req.CustomerAddress)
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, rcn.Validation("credit amount must be positive")
	}
	if req.TransactionID == "" {
		req.TransactionID = uuid.NewString()
	}

	customer, err := lockCustomer(tx, address)
	if err != nil {
		return nil, err
	}

	// Idempotency: a replayed transaction id returns the original entry.
	var existing models.TokenSource
	if err := tx.Where("transaction_id = ?", req.TransactionID).First(&existing).Error; err == nil {
		return &CreditResult{Source: existing, Tier: rcn.Tier(customer.Tier), Duplicate: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if req.SourceType.Earning() {
		counters, err := rcn.ApplyCredit(rcn.Counters{
			Daily:      customer.DailyEarnings,
			Monthly:    customer.MonthlyEarnings,
			LastEarned: customer.LastEarnedDate,
		}, req.Amount, now, s.cfg.DailyCap, s.cfg.MonthlyCap)
		if err != nil {
			countLimitRejection(err)
			return nil, err
		}
		customer.DailyEarnings = counters.Daily
		customer.MonthlyEarnings = counters.Monthly
		customer.LastEarnedDate = counters.LastEarned
	}

	source := models.TokenSource{
		CustomerAddress: address,
		SourceType:      req.SourceType,
		SourceShopID:    req.ShopID,
		Amount:          req.Amount,
		IsRedeemable:    req.SourceType.Redeemable(),
		TransactionID:   req.TransactionID,
		EarnedAt:        now,
	}
	if err := tx.Create(&source).Error; err != nil {
		return nil, err
	}

	if source.IsRedeemable {
		customer.LifetimeEarnings += req.Amount
	}
	customer.Tier = string(rcn.TierFor(customer.LifetimeEarnings))

	if source.IsRedeemable && req.ShopID != nil {
		home, err := homeShop(tx, address)
		if err != nil {
			return nil, err
		}
		customer.HomeShopID = home
	}

	if err := tx.Save(customer).Error; err != nil {
		return nil, err
	}

	result := CreditResult{Source: source, Tier: rcn.Tier(customer.Tier)}
	if !req.Transfer {
		txn := models.Transaction{
			Type:            models.TransactionMint,
			CustomerAddress: address,
			ShopID:          req.ShopID,
			Amount:          req.Amount,
			Timestamp:       now,
			Status:          models.TransactionPending,
			Metadata:        req.Metadata.Encode(),
		}
		if err := tx.Create(&txn).Error; err != nil {
			return nil, err
		}
		result.Transaction = txn
	}

	metrics.TokensCredited.WithLabelValues(string(req.SourceType)).Add(float64(req.Amount))

	return &result, nil
}

// settle pushes a committed mint to the external settlement layer and
// records the outcome on the transaction row. Settlement failure never
// unwinds ledger state; it is flagged for reconciliation instead.
func (s *TokenService) settle(ctx context.Context, txn *models.Transaction) {
	if txn == nil || txn.Type != models.TransactionMint {
		return
	}

	hash, err := s.minter.Mint(ctx, txn.CustomerAddress, txn.Amount)
	status := models.TransactionConfirmed
	if err != nil {
		status = models.TransactionFailed
		metrics.MintFailures.Inc()
		log.Error().Err(err).Str("customer", txn.CustomerAddress).Int64("amount", txn.Amount).Msg("mint settlement failed")
		s.monitor.Alert(ctx, "mint_failure:"+txn.CustomerAddress, "mint settlement failed", map[string]any{
			"customer": txn.CustomerAddress,
			"amount":   txn.Amount,
			"error":    err.Error(),
		})
	}

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]any{"status": status, "tx_hash": hash}).Error; err != nil {
		log.Error().Err(err).Str("transaction", txn.ID.String()).Msg("failed to record settlement status")
	}
	txn.Status = status
	txn.TxHash = hash
}

// Balance bundles the derived balance views for a customer.
type Balance struct {
	Address       string `json:"address"`
	EarnedBalance int64  `json:"earned_balance"`
	TotalBalance  int64  `json:"total_balance"`
	MarketBalance int64  `json:"market_balance"`
}

// Balances computes the earned/total/market breakdown from the ledger.
func (s *TokenService) Balances(ctx context.Context, address string) (*Balance, error) {
	address, err := rcn.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := ensureCustomer(db, address); err != nil {
		return nil, err
	}

	earned, total, err := ledgerBalances(db, address)
	if err != nil {
		return nil, err
	}

	return &Balance{
		Address:       address,
		EarnedBalance: earned,
		TotalBalance:  total,
		MarketBalance: total - earned,
	}, nil
}

// Verify produces the redemption decision for requested RCN at a shop.
func (s *TokenService) Verify(ctx context.Context, address string, shopID uuid.UUID, requested int64) (*rcn.Decision, error) {
	address, err := rcn.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return verify(s.db.WithContext(ctx), address, shopID, requested)
}

// verify runs against the supplied transaction so the session use path can
// re-check the decision under the same row locks as the debit.
func verify(tx *gorm.DB, address string, shopID uuid.UUID, requested int64) (*rcn.Decision, error) {
	var shop models.Shop
	if err := tx.First(&shop, "id = ?", shopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rcn.NotFound("shop not found")
		}
		return nil, err
	}
	if !shop.Active || !shop.Verified {
		return nil, rcn.Validation("shop is not active and verified")
	}

	if err := ensureCustomer(tx, address); err != nil {
		return nil, err
	}

	earned, err := earnedBalance(tx, address)
	if err != nil {
		return nil, err
	}
	home, err := homeShop(tx, address)
	if err != nil {
		return nil, err
	}

	decision := rcn.Decide(earned, home, shopID, requested)
	return &decision, nil
}

// Gift moves existing tokens between customers. The giver-side debit and the
// receiver-side credit commit together; nothing is minted. Gifted tokens are
// held but never redeemable and never establish a home shop.
func (s *TokenService) Gift(ctx context.Context, from, to string, amount int64, note string) (*CreditResult, error) {
	from, err := rcn.NormalizeAddress(from)
	if err != nil {
		return nil, err
	}
	to, err = rcn.NormalizeAddress(to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, rcn.Validation("cannot gift tokens to yourself")
	}
	if amount <= 0 {
		return nil, rcn.Validation("gift amount must be positive")
	}

	// The ledger is authoritative; the on-chain view only alerts on drift.
	if onchain, err := s.minter.GetBalance(ctx, from); err == nil && onchain > 0 && onchain < amount {
		s.monitor.Alert(ctx, "gift_balance_drift:"+from, "on-chain balance below gifted amount", map[string]any{
			"customer": from,
			"onchain":  onchain,
			"amount":   amount,
		})
	}

	var res *CreditResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCustomer(tx, from); err != nil {
			return err
		}

		_, total, err := ledgerBalances(tx, from)
		if err != nil {
			return err
		}
		if amount > total {
			return rcn.Validation("insufficient balance to gift").
				WithDetail("total_balance", total).
				WithDetail("requested", amount)
		}

		now := time.Now()
		meta := models.Metadata{
			Kind: models.MetaGift,
			Gift: &models.GiftMeta{FromAddress: from, ToAddress: to, Note: note},
		}

		debit := models.Transaction{
			Type:            models.TransactionGift,
			CustomerAddress: from,
			Amount:          amount,
			Timestamp:       now,
			Status:          models.TransactionConfirmed,
			Metadata:        meta.Encode(),
		}
		if err := tx.Create(&debit).Error; err != nil {
			return err
		}

		res, err = s.creditIn(tx, CreditRequest{
			CustomerAddress: to,
			SourceType:      models.SourceGift,
			Amount:          amount,
			Metadata:        meta,
			Transfer:        true,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RepairResult reports the credits issued for a completed repair.
type RepairResult struct {
	BaseReward models.TokenSource
	TierBonus  *models.TokenSource
	Tier       rcn.Tier
}

// RepairReward credits a completed repair: the value-based base reward plus
// the customer's tier bonus, as two provenance entries in one transaction.
func (s *TokenService) RepairReward(ctx context.Context, shopID uuid.UUID, address string, repairAmount int64) (*RepairResult, error) {
	address, err := rcn.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	base := rcn.RepairBaseReward(repairAmount)
	if base == 0 {
		return nil, rcn.Validation("repair amount below reward threshold").
			WithDetail("repair_amount", repairAmount)
	}

	var (
		result   RepairResult
		settleUs []*models.Transaction
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shop models.Shop
		if err := tx.First(&shop, "id = ?", shopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return rcn.NotFound("shop not found")
			}
			return err
		}
		if !shop.Active || !shop.Verified {
			return rcn.Validation("shop is not active and verified")
		}

		now := time.Now()
		customer, err := lockCustomer(tx, address)
		if err != nil {
			return err
		}
		oldTier := customer.Tier
		bonus := rcn.Tier(customer.Tier).Bonus()

		baseRes, err := s.creditIn(tx, CreditRequest{
			CustomerAddress: address,
			SourceType:      models.SourceShopRepair,
			ShopID:          &shopID,
			Amount:          base,
			Metadata: models.Metadata{
				Kind: models.MetaRepair,
				Repair: &models.RepairMeta{
					RepairAmount: repairAmount,
					BaseReward:   base,
					TierBonus:    bonus,
					OldTier:      oldTier,
				},
			},
		}, now)
		if err != nil {
			return err
		}
		result.BaseReward = baseRes.Source
		result.Tier = baseRes.Tier
		settleUs = append(settleUs, &baseRes.Transaction)

		// The tier bonus rides on the same caps; if it does not fit the whole
		// repair credit rolls back rather than paying a partial reward.
		bonusRes, err := s.creditIn(tx, CreditRequest{
			CustomerAddress: address,
			SourceType:      models.SourceTierBonus,
			ShopID:          &shopID,
			Amount:          bonus,
			Metadata: models.Metadata{
				Kind: models.MetaRepair,
				Repair: &models.RepairMeta{
					RepairAmount: repairAmount,
					BaseReward:   base,
					TierBonus:    bonus,
					OldTier:      oldTier,
					NewTier:      string(baseRes.Tier),
				},
			},
		}, now)
		if err != nil {
			return err
		}
		result.TierBonus = &bonusRes.Source
		result.Tier = bonusRes.Tier
		settleUs = append(settleUs, &bonusRes.Transaction)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, txn := range settleUs {
		s.settle(ctx, txn)
	}
	return &result, nil
}

// lockCustomer loads the customer row FOR UPDATE, creating it on first
// contact (customers come into existence on first registration or credit).
func lockCustomer(tx *gorm.DB, address string) (*models.Customer, error) {
	var customer models.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address = ?", address).
		First(&customer).Error
	if err == nil {
		if !customer.Active {
			return nil, rcn.Validation("customer account is deactivated")
		}
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = models.Customer{
		Address:      address,
		Tier:         string(rcn.TierBronze),
		ReferralCode: utils.NewReferralCode(),
		Active:       true,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func ensureCustomer(tx *gorm.DB, address string) error {
	var customer models.Customer
	if err := tx.Select("id", "active").First(&customer, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rcn.NotFound("customer not found")
		}
		return err
	}
	if !customer.Active {
		return rcn.Validation("customer account is deactivated")
	}
	return nil
}

// earnedBalance is the redeemable share of the ledger after all debits.
func earnedBalance(tx *gorm.DB, address string) (int64, error) {
	earned, _, err := ledgerBalances(tx, address)
	return earned, err
}

// ledgerBalances sums the ledger and derives the earned/total pair. Credits
// never double-count against debits because debits live in transactions, not
// token_sources.
func ledgerBalances(tx *gorm.DB, address string) (int64, int64, error) {
	var redeemable int64
	if err := tx.Model(&models.TokenSource{}).
		Where("customer_address = ? AND is_redeemable = ?", address, true).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&redeemable).Error; err != nil {
		return 0, 0, err
	}

	var all int64
	if err := tx.Model(&models.TokenSource{}).
		Where("customer_address = ?", address).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&all).Error; err != nil {
		return 0, 0, err
	}

	redeemDebits, err := debitTotal(tx, address, models.TransactionRedeem)
	if err != nil {
		return 0, 0, err
	}
	transferDebits, err := debitTotal(tx, address, models.TransactionGift)
	if err != nil {
		return 0, 0, err
	}

	earned, total := rcn.LedgerBalances(redeemable, all, redeemDebits, transferDebits)
	return earned, total, nil
}

func debitTotal(tx *gorm.DB, address string, txType models.TransactionType) (int64, error) {
	var debits int64
	err := tx.Model(&models.Transaction{}).
		Where("customer_address = ? AND type = ? AND status <> ?",
			address, txType, models.TransactionFailed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&debits).Error
	return debits, err
}

// homeShop resolves the shop with the greatest redeemable earnings. Ties go
// to the shop whose first redeemable credit is earliest, then by shop id.
func homeShop(tx *gorm.DB, address string) (*uuid.UUID, error) {
	var rows []struct {
		SourceShopID uuid.UUID
	}
	err := tx.Model(&models.TokenSource{}).
		Where("customer_address = ? AND is_redeemable = ? AND source_shop_id IS NOT NULL", address, true).
		Select("source_shop_id").
		Group("source_shop_id").
		Order("SUM(amount) DESC, MIN(earned_at) ASC, source_shop_id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].SourceShopID, nil
}

func countLimitRejection(err error) {
	var e *rcn.Error
	if !errors.As(err, &e) || e.Kind != rcn.KindLimitExceeded {
		return
	}
	window := "daily"
	if _, ok := e.Details["monthly_remaining"]; ok {
		window = "monthly"
	}
	metrics.LimitRejections.WithLabelValues(window).Inc()
}
