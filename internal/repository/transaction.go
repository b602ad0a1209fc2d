package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bank-office/internal/models"
	"bank-office/internal/utils"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Deposit credits an account and appends the transaction record in one
// atomic unit of work. The invariants are re-checked against the locked row.
func (r *TransactionRepository) Deposit(ctx context.Context, userID, accountNumber string, amount int64) (*models.Transaction, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("beginning deposit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := scanAccount(tx.QueryRow(ctx, accountSelect+" WHERE a.account_number = $1 FOR UPDATE OF a", accountNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, 0, ErrAccountNotFound
		}
		return nil, 0, fmt.Errorf("locking account for deposit: %w", mapTxError(err))
	}

	if account.UserID != userID {
		return nil, 0, models.ErrUnauthorizedAccess
	}
	if err := account.ValidateDeposit(amount); err != nil {
		return nil, 0, err
	}

	newBalance := account.Balance + amount
	_, err = tx.Exec(ctx, "UPDATE accounts SET balance = $1 WHERE id = $2", newBalance, account.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("crediting account: %w", mapTxError(err))
	}

	record, err := insertRecord(ctx, tx, account.ID, userID, &amount, nil, "")
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("committing deposit: %w", mapTxError(err))
	}

	utils.LogSuccess("TransactionRepo", "deposit %s: %d credited to %s", record.ID, amount, accountNumber)
	return record, newBalance, nil
}

// Withdraw debits the source account, credits the destination looked up by
// account number, and appends one withdrawal record, all in one transaction.
// Both rows are locked FOR UPDATE in ascending primary-key order so that two
// opposite transfers over the same pair of accounts cannot deadlock. If the
// destination does not exist the whole unit rolls back and the source is
// untouched. The destination owner's user id is returned so the caller can
// invalidate that party's cached balance too.
func (r *TransactionRepository) Withdraw(ctx context.Context, userID string, req models.WithdrawRequest) (*models.Transaction, int64, string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, "", fmt.Errorf("beginning withdrawal transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock every touched row first, in a fixed order.
	rows, err := tx.Query(ctx,
		"SELECT account_number FROM accounts WHERE account_number = ANY($1) ORDER BY id FOR UPDATE",
		[]string{req.AccountNumber, req.CounterpartyNumber},
	)
	if err != nil {
		return nil, 0, "", fmt.Errorf("locking accounts for withdrawal: %w", mapTxError(err))
	}
	locked := map[string]bool{}
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			rows.Close()
			return nil, 0, "", fmt.Errorf("scanning locked account: %w", err)
		}
		locked[number] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, "", fmt.Errorf("locking accounts for withdrawal: %w", mapTxError(err))
	}

	if !locked[req.AccountNumber] {
		return nil, 0, "", ErrAccountNotFound
	}

	account, err := scanAccount(tx.QueryRow(ctx, accountSelect+" WHERE a.account_number = $1", req.AccountNumber))
	if err != nil {
		return nil, 0, "", fmt.Errorf("reading source account: %w", mapTxError(err))
	}

	if account.UserID != userID {
		return nil, 0, "", models.ErrUnauthorizedAccess
	}
	if err := account.ValidateWithdrawal(req.Amount, req.PIN, req.CounterpartyNumber); err != nil {
		return nil, 0, "", err
	}
	if !locked[req.CounterpartyNumber] {
		// Nothing has been mutated yet; the rollback is a formality.
		return nil, 0, "", ErrDestinationNotFound
	}

	newBalance := account.Balance - req.Amount
	_, err = tx.Exec(ctx,
		"UPDATE accounts SET balance = balance - $1 WHERE account_number = $2",
		req.Amount, req.AccountNumber,
	)
	if err != nil {
		return nil, 0, "", fmt.Errorf("debiting source account: %w", mapTxError(err))
	}

	var counterpartyOwner string
	err = tx.QueryRow(ctx,
		"UPDATE accounts SET balance = balance + $1 WHERE account_number = $2 RETURNING user_id",
		req.Amount, req.CounterpartyNumber,
	).Scan(&counterpartyOwner)
	if err != nil {
		return nil, 0, "", fmt.Errorf("crediting destination account: %w", mapTxError(err))
	}

	record, err := insertRecord(ctx, tx, account.ID, userID, nil, &req.Amount, req.CounterpartyNumber)
	if err != nil {
		return nil, 0, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, "", fmt.Errorf("committing withdrawal: %w", mapTxError(err))
	}

	utils.LogSuccess("TransactionRepo", "withdrawal %s: %d moved %s -> %s",
		record.ID, req.Amount, req.AccountNumber, req.CounterpartyNumber)
	return record, newBalance, counterpartyOwner, nil
}

// insertRecord appends the immutable transaction record inside the caller's
// transaction. Exactly one of deposit/withdraw is non-nil; the schema CHECK
// enforces the same.
func insertRecord(ctx context.Context, tx pgx.Tx, accountID, userID string, deposit, withdraw *int64, counterparty string) (*models.Transaction, error) {
	record := &models.Transaction{
		ID:                 uuid.New().String(),
		AccountID:          accountID,
		UserID:             userID,
		DepositAmount:      deposit,
		WithdrawAmount:     withdraw,
		CounterpartyNumber: counterparty,
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO transactions (id, account_id, user_id, deposit_amount, withdraw_amount, counterparty_number)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING created_at
	`, record.ID, accountID, userID, deposit, withdraw, counterparty).Scan(&record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	return record, nil
}

func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT id, account_id, user_id, deposit_amount, withdraw_amount,
		       COALESCE(counterparty_number, ''), created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
}

func (r *TransactionRepository) GetByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT id, account_id, user_id, deposit_amount, withdraw_amount,
		       COALESCE(counterparty_number, ''), created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, arg string) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.AccountID, &t.UserID,
			&t.DepositAmount, &t.WithdrawAmount, &t.CounterpartyNumber, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
