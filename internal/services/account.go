package services

import (
	"context"
	"fmt"
	"time"

	"bank-office/internal/cache"
	"bank-office/internal/models"
	"bank-office/internal/notify"
	"bank-office/internal/utils"
	"bank-office/internal/worker"
)

type AccountService struct {
	accounts   AccountStore
	catalog    CatalogStore
	users      UserStore
	cache      Cache
	pool       *worker.Pool
	notifier   notify.Notifier
	staffEmail string
}

func NewAccountService(accounts AccountStore, catalog CatalogStore, users UserStore, notifier notify.Notifier, staffEmail string) *AccountService {
	return &AccountService{
		accounts:   accounts,
		catalog:    catalog,
		users:      users,
		notifier:   notifier,
		staffEmail: staffEmail,
	}
}

func (s *AccountService) WithCache(c *cache.RedisCache) *AccountService {
	if c != nil {
		s.cache = c
	}
	return s
}

func (s *AccountService) WithWorkerPool(p *worker.Pool) *AccountService {
	s.pool = p
	return s
}

// OpenAccount files a new account application. The account starts Pending
// with no account number and a zero balance; staff approval issues the
// number.
func (s *AccountService) OpenAccount(ctx context.Context, userID string, req models.OpenAccountRequest) (*models.Account, error) {
	utils.LogInfo("AccountService", "account application from user %s", userID)

	product, err := s.catalog.GetAccountProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateOpening(product, req.Age, req.PIN); err != nil {
		utils.LogWarning("AccountService", "account application from %s rejected: %v", userID, err)
		return nil, err
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("invalid date of birth: %w", err)
	}

	account := &models.Account{
		UserID:       userID,
		ProductID:    req.ProductID,
		BranchID:     req.BranchID,
		MobileNumber: req.MobileNumber,
		DateOfBirth:  dob,
		Age:          req.Age,
		PIN:          req.PIN,
		PhotoRef:     req.PhotoRef,
		PancardRef:   req.PancardRef,
		AadhaarRef:   req.AadhaarRef,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		utils.LogError("AccountService", "account application failed", err)
		return nil, err
	}

	s.notifyAsync("account-application-"+account.ID, s.staffEmail,
		"New account application",
		fmt.Sprintf("A new account application has been submitted.\nApplicant: %s\nBranch: %s\nAccount type: %s",
			userID, req.BranchID, req.ProductID))

	utils.LogSuccess("AccountService", "account %s filed for user %s (status: %s)", account.ID, userID, account.Status)
	return account, nil
}

// MyAccount returns the caller's account, preferring the cache.
func (s *AccountService) MyAccount(ctx context.Context, userID string) (*models.Account, error) {
	if s.cache != nil {
		var cached models.Account
		err := s.cache.GetJSON(ctx, cache.AccountKey(userID), &cached)
		if err == nil {
			utils.LogDebug("Cache", "HIT account for user %s", userID)
			return &cached, nil
		}
		if !cache.IsMiss(err) {
			utils.LogWarning("Cache", "cache read failed: %v", err)
		}
	}

	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.AccountKey(userID), account, cache.AccountTTL); err != nil {
			utils.LogWarning("Cache", "cache write failed: %v", err)
		}
	}

	return account, nil
}

// UpdateAccount edits the caller's own account details. Zero-valued request
// fields keep their current values; an age change is re-checked against the
// product's minimum age before anything is written.
func (s *AccountService) UpdateAccount(ctx context.Context, userID string, req models.UpdateAccountRequest) (*models.Account, error) {
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.MobileNumber != "" {
		account.MobileNumber = req.MobileNumber
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("invalid date of birth: %w", err)
		}
		account.DateOfBirth = dob
	}
	if req.Age != 0 {
		account.Age = req.Age
	}

	product, err := s.catalog.GetAccountProduct(ctx, account.ProductID)
	if err != nil {
		return nil, err
	}
	if account.Age < product.MinimumAge {
		utils.LogWarning("AccountService", "account edit by %s rejected: below minimum age", userID)
		return nil, models.ErrBelowMinimumAge
	}

	if err := s.accounts.UpdateDetails(ctx, account.ID, account.MobileNumber, account.DateOfBirth, account.Age); err != nil {
		utils.LogError("AccountService", "account edit failed", err)
		return nil, err
	}

	s.invalidateAsync(userID, "account-update-"+account.ID)

	utils.LogSuccess("AccountService", "account %s details updated by owner %s", account.ID, userID)
	return account, nil
}

// ListAccounts is staff-only; the handler gates it.
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.accounts.List(ctx)
}

// ApproveAccount transitions a pending account to Approved, issuing an
// account number on first approval. Re-approval never reassigns an existing
// number. The owner notification is dispatched only after the transaction
// has committed.
func (s *AccountService) ApproveAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, generated, err := s.accounts.Approve(ctx, accountID)
	if err != nil {
		utils.LogError("AccountService", fmt.Sprintf("approval of account %s failed", accountID), err)
		return nil, err
	}

	s.invalidateAsync(account.UserID, "account-approve-"+accountID)

	if generated {
		recipient := s.ownerEmail(ctx, account.UserID)
		s.notifyAsync("account-approved-"+accountID, recipient,
			"Account Status Change Notification",
			fmt.Sprintf("Your account status has been changed to %s. Your account number is %s.",
				account.Status, account.AccountNumber))
	}

	return account, nil
}

func (s *AccountService) ownerEmail(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		utils.LogWarning("AccountService", "could not resolve email for user %s: %v", userID, err)
		return ""
	}
	return user.Email
}

func (s *AccountService) notifyAsync(jobID, recipient, subject, body string) {
	if recipient == "" {
		return
	}
	runAsync(s.pool, worker.Job{
		ID: jobID,
		Task: func() error {
			return s.notifier.Send(context.Background(), recipient, subject, body)
		},
		// Notifications are best-effort; one shot is enough.
		RetryOn: func(error) bool { return false },
	})
}

func (s *AccountService) invalidateAsync(userID, jobID string) {
	if s.cache == nil {
		return
	}
	runAsync(s.pool, worker.Job{
		ID: "cache-" + jobID,
		Task: func() error {
			return s.cache.Delete(context.Background(), cache.AccountKey(userID))
		},
	})
}
