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

// LoanService covers the loan catalog, payment quotes, applications and the
// staff approval workflow. Repayments live in RepaymentService.
type LoanService struct {
	loans    LoanStore
	catalog  CatalogStore
	users    UserStore
	cache    Cache
	pool     *worker.Pool
	notifier notify.Notifier
}

func NewLoanService(loans LoanStore, catalog CatalogStore, users UserStore, notifier notify.Notifier) *LoanService {
	return &LoanService{
		loans:    loans,
		catalog:  catalog,
		users:    users,
		notifier: notifier,
	}
}

func (s *LoanService) WithCache(c *cache.RedisCache) *LoanService {
	if c != nil {
		s.cache = c
	}
	return s
}

func (s *LoanService) WithWorkerPool(p *worker.Pool) *LoanService {
	s.pool = p
	return s
}

func (s *LoanService) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	if s.cachedList(ctx, cache.BranchesKey(), &branches) {
		return branches, nil
	}

	branches, err := s.catalog.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	s.storeList(ctx, cache.BranchesKey(), branches)
	return branches, nil
}

func (s *LoanService) ListAccountProducts(ctx context.Context) ([]models.AccountProduct, error) {
	var products []models.AccountProduct
	if s.cachedList(ctx, cache.AccountProductsKey(), &products) {
		return products, nil
	}

	products, err := s.catalog.ListAccountProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.storeList(ctx, cache.AccountProductsKey(), products)
	return products, nil
}

func (s *LoanService) ListLoanProducts(ctx context.Context) ([]models.LoanProduct, error) {
	var products []models.LoanProduct
	if s.cachedList(ctx, cache.LoanProductsKey(), &products) {
		return products, nil
	}

	products, err := s.catalog.ListLoanProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.storeList(ctx, cache.LoanProductsKey(), products)
	return products, nil
}

// Quote computes the fixed monthly payment for a prospective loan without
// filing anything.
func (s *LoanService) Quote(ctx context.Context, req models.LoanQuoteRequest) (*models.LoanResponse, error) {
	product, err := s.catalog.GetLoanProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateLoanApplication(product, req.Amount); err != nil {
		return nil, err
	}

	monthly, err := models.MonthlyPayment(req.Amount, product.InterestRate, product.TermYears)
	if err != nil {
		return nil, err
	}

	return &models.LoanResponse{
		Application: models.LoanApplication{
			ProductID:        req.ProductID,
			Amount:           req.Amount,
			RemainingBalance: req.Amount,
		},
		Product:        *product,
		MonthlyPayment: monthly,
	}, nil
}

// Apply files a loan application. Admission rules (the applicant must hold an
// approved account and have no open application) are enforced inside the
// store transaction.
func (s *LoanService) Apply(ctx context.Context, userID string, req models.LoanApplyRequest) (*models.LoanResponse, error) {
	utils.LogInfo("LoanService", "loan application from user %s: %d of product %s", userID, req.Amount, req.ProductID)

	product, err := s.catalog.GetLoanProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateLoanApplication(product, req.Amount); err != nil {
		utils.LogWarning("LoanService", "loan application from %s rejected: %v", userID, err)
		return nil, err
	}

	app := &models.LoanApplication{
		UserID:           userID,
		ProductID:        req.ProductID,
		Amount:           req.Amount,
		RemainingBalance: req.Amount,
		ProofOfIdentity:  req.ProofOfIdentity,
		AddressProof:     req.AddressProof,
	}

	if err := s.loans.CreateApplication(ctx, app); err != nil {
		utils.LogError("LoanService", "loan application failed", err)
		return nil, err
	}

	s.invalidateLoansAsync(userID, "loan-apply-"+app.ID)

	monthly, err := models.MonthlyPayment(app.Amount, product.InterestRate, product.TermYears)
	if err != nil {
		return nil, err
	}

	utils.LogSuccess("LoanService", "loan %s filed for user %s (status: %s)", app.ID, userID, app.Status)
	return &models.LoanResponse{
		Application:    *app,
		Product:        *product,
		MonthlyPayment: monthly,
	}, nil
}

// Get returns one application; non-staff callers may only read their own.
func (s *LoanService) Get(ctx context.Context, loanID, userID string, isStaff bool) (*models.LoanResponse, error) {
	app, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !isStaff && app.UserID != userID {
		utils.LogWarning("LoanService", "user %s tried to read loan %s", userID, loanID)
		return nil, models.ErrUnauthorizedAccess
	}

	return s.withProduct(ctx, app)
}

// ListMine returns the caller's applications, preferring the cache.
func (s *LoanService) ListMine(ctx context.Context, userID string) ([]models.LoanApplication, error) {
	if s.cache != nil {
		var cached []models.LoanApplication
		err := s.cache.GetJSON(ctx, cache.UserLoansKey(userID), &cached)
		if err == nil {
			utils.LogDebug("Cache", "HIT loans for user %s", userID)
			return cached, nil
		}
		if !cache.IsMiss(err) {
			utils.LogWarning("Cache", "cache read failed: %v", err)
		}
	}

	loans, err := s.loans.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.UserLoansKey(userID), loans, cache.UserLoansTTL); err != nil {
			utils.LogWarning("Cache", "cache write failed: %v", err)
		}
	}

	return loans, nil
}

// ListAll is staff-only; the handler gates it.
func (s *LoanService) ListAll(ctx context.Context) ([]models.LoanApplication, error) {
	return s.loans.List(ctx)
}

// SetStatus applies a staff decision on a pending application. Only Approved
// and Rejected are accepted here; Fully Repaid is reached exclusively through
// repayment. The applicant notification runs after commit.
func (s *LoanService) SetStatus(ctx context.Context, loanID, newStatus string) (*models.LoanApplication, error) {
	var next models.LoanStatus
	switch newStatus {
	case string(models.LoanApproved):
		next = models.LoanApproved
	case string(models.LoanRejected):
		next = models.LoanRejected
	default:
		return nil, models.ErrInvalidTransition
	}

	app, err := s.loans.SetStatus(ctx, loanID, next)
	if err != nil {
		utils.LogError("LoanService", fmt.Sprintf("status change of loan %s failed", loanID), err)
		return nil, err
	}

	s.invalidateLoansAsync(app.UserID, "loan-status-"+loanID)

	if recipient := s.applicantEmail(ctx, app.UserID); recipient != "" {
		runAsync(s.pool, worker.Job{
			ID: "loan-status-notify-" + loanID,
			Task: func() error {
				return s.notifier.Send(context.Background(), recipient,
					"Loan Status Change Notification",
					fmt.Sprintf("Your loan application status has been changed to %s.", app.Status))
			},
			RetryOn: func(error) bool { return false },
		})
	}

	utils.LogSuccess("LoanService", "loan %s moved to %s", loanID, app.Status)
	return app, nil
}

func (s *LoanService) withProduct(ctx context.Context, app *models.LoanApplication) (*models.LoanResponse, error) {
	product, err := s.catalog.GetLoanProduct(ctx, app.ProductID)
	if err != nil {
		return nil, err
	}

	monthly, err := models.MonthlyPayment(app.Amount, product.InterestRate, product.TermYears)
	if err != nil {
		return nil, err
	}

	return &models.LoanResponse{
		Application:    *app,
		Product:        *product,
		MonthlyPayment: monthly,
	}, nil
}

func (s *LoanService) applicantEmail(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		utils.LogWarning("LoanService", "could not resolve email for user %s: %v", userID, err)
		return ""
	}
	return user.Email
}

func (s *LoanService) cachedList(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		utils.LogDebug("Cache", "HIT %s", key)
		return true
	}
	if !cache.IsMiss(err) {
		utils.LogWarning("Cache", "cache read failed: %v", err)
	}
	return false
}

func (s *LoanService) storeList(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, cache.CatalogTTL); err != nil {
		utils.LogWarning("Cache", "cache write failed: %v", err)
	}
}

func (s *LoanService) invalidateLoansAsync(userID, jobID string) {
	if s.cache == nil {
		return
	}
	runAsync(s.pool, worker.Job{
		ID: "cache-" + jobID,
		Task: func() error {
			return s.cache.Delete(context.Background(), cache.UserLoansKey(userID))
		},
	})
}
