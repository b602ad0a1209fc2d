package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bank-office/internal/models"
	"bank-office/internal/utils"
)

const accountNumberLength = 10

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountSelect = `
	SELECT a.id, a.user_id, a.product_id, a.branch_id, a.mobile_number,
	       a.date_of_birth, a.age, a.status, a.account_number, a.balance, a.pin,
	       a.photo_ref, a.pancard_ref, a.aadhaar_ref, a.created_at,
	       p.minimum_balance, p.daily_limit
	FROM accounts a
	JOIN account_products p ON a.product_id = p.id
`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	var number *string
	err := row.Scan(
		&a.ID, &a.UserID, &a.ProductID, &a.BranchID, &a.MobileNumber,
		&a.DateOfBirth, &a.Age, &a.Status, &number, &a.Balance, &a.PIN,
		&a.PhotoRef, &a.PancardRef, &a.AadhaarRef, &a.CreatedAt,
		&a.MinimumBalance, &a.DailyLimit,
	)
	if err != nil {
		return nil, err
	}
	if number != nil {
		a.AccountNumber = *number
	}
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.ID = uuid.New().String()
	account.Status = models.AccountPending

	query := `
		INSERT INTO accounts (id, user_id, product_id, branch_id, mobile_number,
		                      date_of_birth, age, status, balance, pin,
		                      photo_ref, pancard_ref, aadhaar_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11, $12)
		RETURNING created_at
	`

	utils.LogDB("CREATE ACCOUNT", fmt.Sprintf("opening account for user %s", account.UserID))

	err := r.db.QueryRow(ctx, query,
		account.ID, account.UserID, account.ProductID, account.BranchID,
		account.MobileNumber, account.DateOfBirth, account.Age, account.Status,
		account.PIN, account.PhotoRef, account.PancardRef, account.AadhaarRef,
	).Scan(&account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "accounts_user_id_key") {
			return models.ErrAlreadyHasAccount
		}
		return fmt.Errorf("opening account: %w", err)
	}

	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, accountSelect+" WHERE a.id = $1", accountID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, accountSelect+" WHERE a.user_id = $1", userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting account by user: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, accountSelect+" WHERE a.account_number = $1", accountNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting account by number: %w", err)
	}
	return account, nil
}

// UpdateDetails rewrites the editable profile columns of an account. The
// caller has already merged unchanged fields and re-checked the product's
// minimum age.
func (r *AccountRepository) UpdateDetails(ctx context.Context, accountID, mobileNumber string, dateOfBirth time.Time, age int) error {
	utils.LogDB("UPDATE ACCOUNT", fmt.Sprintf("editing details of account %s", accountID))

	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET mobile_number = $1, date_of_birth = $2, age = $3
		WHERE id = $4
	`, mobileNumber, dateOfBirth, age, accountID)
	if err != nil {
		return fmt.Errorf("updating account details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.Query(ctx, accountSelect+" ORDER BY a.created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// Approve transitions a pending account to Approved and assigns an account
// number if none exists. Re-approval of an already approved account is a
// no-op that never reassigns the existing number. The generated flag tells
// the caller whether a number was issued by this call.
func (r *AccountRepository) Approve(ctx context.Context, accountID string) (account *models.Account, generated bool, err error) {
	const maxAttempts = 10

	for attempt := 0; attempt < maxAttempts; attempt++ {
		account, generated, err = r.approveOnce(ctx, accountID)
		if isUniqueViolation(err, "accounts_account_number_key") {
			// Lost a number collision race to a concurrent approval.
			utils.LogWarning("AccountRepo", "account number collision on approve, attempt %d/%d", attempt+1, maxAttempts)
			continue
		}
		return account, generated, mapTxError(err)
	}

	return nil, false, errors.New("could not assign a unique account number")
}

func (r *AccountRepository) approveOnce(ctx context.Context, accountID string) (*models.Account, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("beginning approval transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := scanAccount(tx.QueryRow(ctx, accountSelect+" WHERE a.id = $1 FOR UPDATE OF a", accountID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, ErrAccountNotFound
		}
		return nil, false, fmt.Errorf("locking account for approval: %w", err)
	}

	if account.Status == models.AccountApproved && account.AccountNumber != "" {
		// Idempotent re-approval.
		return account, false, nil
	}
	if !account.Status.CanTransitionTo(models.AccountApproved) {
		return nil, false, models.ErrInvalidTransition
	}

	generated := false
	if account.AccountNumber == "" {
		number, err := r.generateAccountNumber(ctx, tx)
		if err != nil {
			return nil, false, err
		}
		account.AccountNumber = number
		generated = true
	}

	_, err = tx.Exec(ctx,
		"UPDATE accounts SET status = $1, account_number = $2 WHERE id = $3",
		models.AccountApproved, account.AccountNumber, accountID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("approving account: %w", err)
	}
	account.Status = models.AccountApproved

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing approval: %w", err)
	}

	utils.LogSuccess("AccountRepo", "account %s approved (number %s)", accountID, account.AccountNumber)
	return account, generated, nil
}

// generateAccountNumber draws a fixed-length numeric string and re-draws on
// collision. The unique constraint is the final arbiter under concurrent
// approvals; Approve retries when the insert itself loses the race.
func (r *AccountRepository) generateAccountNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	const maxAttempts = 10

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(accountNumberLength), nil)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generating random account number: %w", err)
		}
		number := fmt.Sprintf("%0*d", accountNumberLength, n)

		var exists bool
		err = tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)", number,
		).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("checking account number uniqueness: %w", err)
		}
		if !exists {
			return number, nil
		}

		utils.LogWarning("AccountRepo", "account number collision %s, attempt %d/%d", number, attempt+1, maxAttempts)
	}

	return "", errors.New("could not generate a unique account number")
}
