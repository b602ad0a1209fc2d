package services

import (
	"context"
	"time"

	"bank-office/internal/models"
	"bank-office/internal/utils"
	"bank-office/internal/worker"
)

// Store interfaces the services orchestrate over. The pgx repositories are
// the production implementations; tests substitute function-field fakes.

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, accountID string) (*models.Account, error)
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Approve(ctx context.Context, accountID string) (account *models.Account, generated bool, err error)
	UpdateDetails(ctx context.Context, accountID, mobileNumber string, dateOfBirth time.Time, age int) error
}

type LedgerStore interface {
	Deposit(ctx context.Context, userID, accountNumber string, amount int64) (*models.Transaction, int64, error)
	Withdraw(ctx context.Context, userID string, req models.WithdrawRequest) (record *models.Transaction, balance int64, counterpartyOwner string, err error)
	GetByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Transaction, error)
}

type LoanStore interface {
	CreateApplication(ctx context.Context, app *models.LoanApplication) error
	GetByID(ctx context.Context, loanID string) (*models.LoanApplication, error)
	GetByUserID(ctx context.Context, userID string) ([]models.LoanApplication, error)
	List(ctx context.Context) ([]models.LoanApplication, error)
	SetStatus(ctx context.Context, loanID string, next models.LoanStatus) (*models.LoanApplication, error)
	Repay(ctx context.Context, userID string, amount int64) (*models.LoanRepayment, []models.RepaymentChange, error)
	GetRepaymentsByUser(ctx context.Context, userID string) ([]models.LoanRepayment, error)
}

type CatalogStore interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	ListAccountProducts(ctx context.Context) ([]models.AccountProduct, error)
	GetAccountProduct(ctx context.Context, id string) (*models.AccountProduct, error)
	ListLoanProducts(ctx context.Context) ([]models.LoanProduct, error)
	GetLoanProduct(ctx context.Context, id string) (*models.LoanProduct, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Cache is the slice of the Redis client the services use. Tests substitute
// an in-memory recorder.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type PlanningStore interface {
	CreatePlan(ctx context.Context, plan *models.BudgetPlan) error
	GetPlan(ctx context.Context, planID string) (*models.BudgetPlan, error)
	ListPlans(ctx context.Context, userID string) ([]models.BudgetPlan, error)
	UpdatePlan(ctx context.Context, plan *models.BudgetPlan) error
	DeletePlan(ctx context.Context, planID string) error
	CreateExpense(ctx context.Context, expense *models.Expense) error
	ListExpenses(ctx context.Context, planID string) ([]models.Expense, error)
	CreateGoal(ctx context.Context, goal *models.SavingsGoal) error
	ListGoals(ctx context.Context, userID string) ([]models.SavingsGoal, error)
	DeleteGoal(ctx context.Context, goalID string) error
}

// runAsync submits a side-effect job to the pool, falling back to running it
// inline when no pool is attached or the queue is full. Jobs run strictly
// after the transaction that spawned them has committed.
func runAsync(pool *worker.Pool, job worker.Job) {
	if pool == nil {
		if err := job.Task(); err != nil {
			utils.LogWarning("Services", "inline job %s failed: %v", job.ID, err)
		}
		return
	}
	if err := pool.Submit(job); err != nil {
		utils.LogWarning("Services", "worker queue unavailable, running job %s inline", job.ID)
		if err := job.Task(); err != nil {
			utils.LogWarning("Services", "inline job %s failed: %v", job.ID, err)
		}
	}
}
