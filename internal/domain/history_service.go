package domain

import (
	"context"
	"fmt"
)

// historyWindow is the maximum number of ledger entries replayed when
// reconstructing balance history. Entries older than the window are
// silently unrepresented.
const historyWindow = 30

// HistoryService reconstructs balance-over-time series from the ledger.
// It is a pure reader: no exclusive locks, read-committed snapshots are
// acceptable.
type HistoryService struct {
	accounts AccountRepository
	ledger   LedgerRepository
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(accounts AccountRepository, ledger LedgerRepository) *HistoryService {
	return &HistoryService{
		accounts: accounts,
		ledger:   ledger,
	}
}

// HistoryFor replays the account's most recent ledger entries in
// chronological order, seeded with the fixed account-opening balance, and
// returns one running-balance point per entry. This is a reconstruction,
// not a persisted running total: history older than the replay window is
// not reflected.
func (s *HistoryService) HistoryFor(ctx context.Context, accountNumber int64) ([]BalancePoint, error) {
	if _, err := s.accounts.GetByNumber(ctx, accountNumber); err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	entries, err := s.ledger.RecentForAccount(ctx, accountNumber, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger entries: %w", err)
	}

	// Entries arrive newest first; replay oldest first.
	balance := OpeningBalance
	points := make([]BalancePoint, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		// Deposits carry the same number on both sides and count as credits.
		if entry.ToAccount == accountNumber {
			balance = balance.Add(entry.Amount)
		} else if entry.FromAccount == accountNumber {
			balance = balance.Sub(entry.Amount)
		}
		points = append(points, BalancePoint{
			Date:    entry.CreatedAt,
			Balance: balance.Round(2),
		})
	}
	return points, nil
}
