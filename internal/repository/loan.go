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

type LoanRepository struct {
	db *pgxpool.Pool
}

func NewLoanRepository(db *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{db: db}
}

const loanSelect = `
	SELECT id, user_id, product_id, amount, remaining_balance, status,
	       COALESCE(proof_of_identity, ''), COALESCE(address_proof, ''), created_at
	FROM loan_applications
`

func scanLoan(row pgx.Row) (*models.LoanApplication, error) {
	var l models.LoanApplication
	err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Amount, &l.RemainingBalance,
		&l.Status, &l.ProofOfIdentity, &l.AddressProof, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateApplication inserts a new loan application. Admission (an approved
// account exists and no other application of the applicant is in a
// non-terminal state) is decided inside the same transaction. The open-loan
// rule is a derived query, not a flag on the user; the count is only a
// friendly fast path, since two concurrent applications can both see zero
// open loans before either commits. The partial unique index on open
// applications is the final arbiter, and losing to it maps to the same
// ErrDuplicateLoan the count produces.
func (r *LoanRepository) CreateApplication(ctx context.Context, app *models.LoanApplication) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning loan application transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var hasAccount bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1 AND status = $2)",
		app.UserID, models.AccountApproved,
	).Scan(&hasAccount)
	if err != nil {
		return fmt.Errorf("checking account existence: %w", err)
	}
	if !hasAccount {
		return models.ErrNoAccount
	}

	var openLoans int
	err = tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM loan_applications WHERE user_id = $1 AND status = ANY($2)",
		app.UserID, []string{string(models.LoanPending), string(models.LoanApproved)},
	).Scan(&openLoans)
	if err != nil {
		return fmt.Errorf("counting open loans: %w", err)
	}
	if openLoans > 0 {
		return models.ErrDuplicateLoan
	}

	app.ID = uuid.New().String()
	app.Status = models.LoanPending
	app.RemainingBalance = app.Amount

	err = tx.QueryRow(ctx, `
		INSERT INTO loan_applications (id, user_id, product_id, amount, remaining_balance,
		                               status, proof_of_identity, address_proof)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, app.ID, app.UserID, app.ProductID, app.Amount, app.RemainingBalance,
		app.Status, app.ProofOfIdentity, app.AddressProof,
	).Scan(&app.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "loan_applications_open_per_user") {
			return models.ErrDuplicateLoan
		}
		return fmt.Errorf("creating loan application: %w", mapTxError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing loan application: %w", mapTxError(err))
	}

	utils.LogSuccess("LoanRepo", "loan application %s created for user %s (amount %d)", app.ID, app.UserID, app.Amount)
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, loanID string) (*models.LoanApplication, error) {
	loan, err := scanLoan(r.db.QueryRow(ctx, loanSelect+" WHERE id = $1", loanID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("getting loan application: %w", err)
	}
	return loan, nil
}

func (r *LoanRepository) GetByUserID(ctx context.Context, userID string) ([]models.LoanApplication, error) {
	return r.queryLoans(ctx, loanSelect+" WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (r *LoanRepository) List(ctx context.Context) ([]models.LoanApplication, error) {
	return r.queryLoans(ctx, loanSelect+" ORDER BY created_at DESC")
}

func (r *LoanRepository) queryLoans(ctx context.Context, query string, args ...any) ([]models.LoanApplication, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting loan applications: %w", err)
	}
	defer rows.Close()

	var loans []models.LoanApplication
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning loan application: %w", err)
		}
		loans = append(loans, *loan)
	}
	return loans, rows.Err()
}

// SetStatus performs a staff-driven status transition under the explicit
// transition table. Invalid transitions (Fully Repaid -> Approved and the
// like) are rejected before anything is written.
func (r *LoanRepository) SetStatus(ctx context.Context, loanID string, next models.LoanStatus) (*models.LoanApplication, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning status transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	loan, err := scanLoan(tx.QueryRow(ctx, loanSelect+" WHERE id = $1 FOR UPDATE", loanID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("locking loan application: %w", mapTxError(err))
	}

	if !loan.Status.CanTransitionTo(next) {
		return nil, models.ErrInvalidTransition
	}

	_, err = tx.Exec(ctx, "UPDATE loan_applications SET status = $1 WHERE id = $2", next, loanID)
	if err != nil {
		return nil, fmt.Errorf("updating loan status: %w", mapTxError(err))
	}
	loan.Status = next

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing status change: %w", mapTxError(err))
	}

	utils.LogSuccess("LoanRepo", "loan %s transitioned to %s", loanID, next)
	return loan, nil
}

// Repay applies one repayment to every approved loan of the user in a single
// transaction: all loan rows are locked FOR UPDATE in ascending id order, the
// plan is computed against the locked values, and either every loan is
// decremented (with Fully Repaid transitions where remaining hits zero) and
// one repayment record appended, or nothing changes at all.
func (r *LoanRepository) Repay(ctx context.Context, userID string, amount int64) (*models.LoanRepayment, []models.RepaymentChange, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning repayment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		loanSelect+" WHERE user_id = $1 AND status = $2 ORDER BY id FOR UPDATE",
		userID, models.LoanApproved,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("locking approved loans: %w", mapTxError(err))
	}
	var loans []models.LoanApplication
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scanning approved loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("locking approved loans: %w", mapTxError(err))
	}

	changes, err := models.PlanRepayment(loans, amount)
	if err != nil {
		return nil, nil, err
	}

	for _, change := range changes {
		if change.FullyRepaid {
			_, err = tx.Exec(ctx,
				"UPDATE loan_applications SET remaining_balance = $1, status = $2 WHERE id = $3",
				change.NewRemaining, models.LoanFullyRepaid, change.LoanID,
			)
		} else {
			_, err = tx.Exec(ctx,
				"UPDATE loan_applications SET remaining_balance = $1 WHERE id = $2",
				change.NewRemaining, change.LoanID,
			)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("applying repayment to loan %s: %w", change.LoanID, mapTxError(err))
		}
	}

	repayment := &models.LoanRepayment{
		ID:     uuid.New().String(),
		UserID: userID,
		LoanID: changes[0].LoanID,
		Amount: amount,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO loan_repayments (id, user_id, loan_id, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING paid_at, created_at
	`, repayment.ID, userID, repayment.LoanID, amount).Scan(&repayment.PaidAt, &repayment.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("recording repayment: %w", mapTxError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing repayment: %w", mapTxError(err))
	}

	utils.LogSuccess("LoanRepo", "repayment %s: %d applied across %d loan(s) for user %s",
		repayment.ID, amount, len(changes), userID)
	return repayment, changes, nil
}

func (r *LoanRepository) GetRepaymentsByUser(ctx context.Context, userID string) ([]models.LoanRepayment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, loan_id, amount, paid_at, created_at
		FROM loan_repayments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("getting repayments: %w", err)
	}
	defer rows.Close()

	var repayments []models.LoanRepayment
	for rows.Next() {
		var p models.LoanRepayment
		if err := rows.Scan(&p.ID, &p.UserID, &p.LoanID, &p.Amount, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning repayment: %w", err)
		}
		repayments = append(repayments, p)
	}
	return repayments, rows.Err()
}
