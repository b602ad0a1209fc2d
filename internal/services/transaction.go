package services

import (
	"context"
	"fmt"

	"bank-office/internal/cache"
	"bank-office/internal/models"
	"bank-office/internal/utils"
	"bank-office/internal/worker"
)

// TransactionService is the account ledger: deposits, withdrawals (which are
// transfers to a counterparty account), and transaction history. All balance
// mutation happens in the store's locked transactions; this layer does the
// cheap request validation, ownership checks for reads, and the post-commit
// cache work.
type TransactionService struct {
	ledger   LedgerStore
	accounts AccountStore
	cache    Cache
	pool     *worker.Pool
}

func NewTransactionService(ledger LedgerStore, accounts AccountStore) *TransactionService {
	return &TransactionService{
		ledger:   ledger,
		accounts: accounts,
	}
}

func (s *TransactionService) WithCache(c *cache.RedisCache) *TransactionService {
	if c != nil {
		s.cache = c
	}
	return s
}

func (s *TransactionService) WithWorkerPool(p *worker.Pool) *TransactionService {
	s.pool = p
	return s
}

func (s *TransactionService) Deposit(ctx context.Context, userID string, req models.DepositRequest) (*models.Transaction, int64, error) {
	utils.LogInfo("TransactionService", "deposit by user %s: %d to %s", userID, req.Amount, req.AccountNumber)

	if req.Amount <= 0 {
		return nil, 0, models.ErrInvalidAmount
	}

	record, newBalance, err := s.ledger.Deposit(ctx, userID, req.AccountNumber, req.Amount)
	if err != nil {
		utils.LogError("TransactionService", "deposit failed", err)
		return nil, 0, err
	}

	s.invalidateAsync(record.ID, cache.AccountKey(userID))
	return record, newBalance, nil
}

func (s *TransactionService) Withdraw(ctx context.Context, userID string, req models.WithdrawRequest) (*models.Transaction, int64, error) {
	utils.LogInfo("TransactionService", "withdrawal by user %s: %d from %s to %s",
		userID, req.Amount, req.AccountNumber, req.CounterpartyNumber)

	// Cheap rejections before touching the database; everything is
	// re-checked against the locked row inside the store transaction.
	if req.Amount <= 0 {
		return nil, 0, models.ErrInvalidAmount
	}
	if req.CounterpartyNumber == req.AccountNumber {
		return nil, 0, models.ErrSameAccount
	}

	record, newBalance, counterpartyOwner, err := s.ledger.Withdraw(ctx, userID, req)
	if err != nil {
		utils.LogError("TransactionService", "withdrawal failed", err)
		return nil, 0, err
	}

	// Both parties' cached balances are stale after a transfer.
	s.invalidateAsync(record.ID, cache.AccountKey(userID), cache.AccountKey(counterpartyOwner))
	return record, newBalance, nil
}

// History returns the caller's transactions, optionally narrowed to one of
// their accounts.
func (s *TransactionService) History(ctx context.Context, userID string, accountID *string) ([]models.Transaction, error) {
	if accountID != nil {
		account, err := s.accounts.GetByID(ctx, *accountID)
		if err != nil {
			return nil, err
		}
		if account.UserID != userID {
			utils.LogWarning("TransactionService", "user %s tried to read account %s history", userID, *accountID)
			return nil, models.ErrUnauthorizedAccess
		}
		return s.ledger.GetByAccountID(ctx, *accountID)
	}

	return s.ledger.GetByUserID(ctx, userID)
}

func (s *TransactionService) invalidateAsync(transactionID string, keys ...string) {
	if s.cache == nil {
		return
	}
	runAsync(s.pool, worker.Job{
		ID: fmt.Sprintf("cache-invalidate-%s", transactionID),
		Task: func() error {
			return s.cache.Delete(context.Background(), keys...)
		},
	})
}
