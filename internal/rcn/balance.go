package rcn

// LedgerBalances derives the earned and total balance from the ledger sums.
// Total is everything credited minus everything debited. Transfers draw down
// non-redeemable holdings first, so the earned balance is clamped to the
// total; the sum of all customers' totals is conserved across a transfer.
func LedgerBalances(redeemableCredits, allCredits, redeemDebits, transferDebits int64) (earned, total int64) {
	total = allCredits - redeemDebits - transferDebits
	earned = redeemableCredits - redeemDebits
	if earned > total {
		earned = total
	}
	return earned, total
}
