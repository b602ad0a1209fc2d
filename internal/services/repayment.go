package services

import (
	"context"
	"fmt"

	"bank-office/internal/cache"
	"bank-office/internal/models"
	"bank-office/internal/notify"
	"bank-office/internal/utils"
	"bank-office/internal/worker"
)

// RepaymentService applies repayments across the caller's approved loans.
// The all-or-nothing fan-out and the Fully Repaid transition happen inside
// the store's locked transaction; this layer handles the cheap checks and
// the post-commit side effects.
type RepaymentService struct {
	loans    LoanStore
	users    UserStore
	cache    Cache
	pool     *worker.Pool
	notifier notify.Notifier
}

func NewRepaymentService(loans LoanStore, users UserStore, notifier notify.Notifier) *RepaymentService {
	return &RepaymentService{
		loans:    loans,
		users:    users,
		notifier: notifier,
	}
}

func (s *RepaymentService) WithCache(c *cache.RedisCache) *RepaymentService {
	if c != nil {
		s.cache = c
	}
	return s
}

func (s *RepaymentService) WithWorkerPool(p *worker.Pool) *RepaymentService {
	s.pool = p
	return s
}

func (s *RepaymentService) Repay(ctx context.Context, userID string, req models.RepayRequest) (*models.LoanRepayment, []models.RepaymentChange, error) {
	utils.LogInfo("RepaymentService", "repayment by user %s: %d", userID, req.Amount)

	if req.Amount <= 0 {
		return nil, nil, models.ErrInvalidAmount
	}

	repayment, changes, err := s.loans.Repay(ctx, userID, req.Amount)
	if err != nil {
		utils.LogError("RepaymentService", "repayment failed", err)
		return nil, nil, err
	}

	if s.cache != nil {
		runAsync(s.pool, worker.Job{
			ID: "cache-repay-" + repayment.ID,
			Task: func() error {
				return s.cache.Delete(context.Background(), cache.UserLoansKey(userID))
			},
		})
	}

	for _, change := range changes {
		if !change.FullyRepaid {
			continue
		}
		if recipient := s.payerEmail(ctx, userID); recipient != "" {
			loanID := change.LoanID
			runAsync(s.pool, worker.Job{
				ID: "loan-repaid-notify-" + loanID,
				Task: func() error {
					return s.notifier.Send(context.Background(), recipient,
						"Loan Fully Repaid",
						fmt.Sprintf("Your loan %s has been fully repaid.", loanID))
				},
				RetryOn: func(error) bool { return false },
			})
		}
	}

	utils.LogSuccess("RepaymentService", "repayment %s applied to %d loan(s)", repayment.ID, len(changes))
	return repayment, changes, nil
}

func (s *RepaymentService) ListRepayments(ctx context.Context, userID string) ([]models.LoanRepayment, error) {
	return s.loans.GetRepaymentsByUser(ctx, userID)
}

func (s *RepaymentService) payerEmail(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		utils.LogWarning("RepaymentService", "could not resolve email for user %s: %v", userID, err)
		return ""
	}
	return user.Email
}
