package services

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"bank-office/internal/models"
)

// Function-field fakes for the store interfaces. Tests set only the fields
// they need; calling an unset field panics and points at the missing stub.

type fakeAccountStore struct {
	CreateFn        func(ctx context.Context, account *models.Account) error
	GetByIDFn       func(ctx context.Context, accountID string) (*models.Account, error)
	GetByUserIDFn   func(ctx context.Context, userID string) (*models.Account, error)
	GetByNumberFn   func(ctx context.Context, accountNumber string) (*models.Account, error)
	ListFn          func(ctx context.Context) ([]models.Account, error)
	ApproveFn       func(ctx context.Context, accountID string) (*models.Account, bool, error)
	UpdateDetailsFn func(ctx context.Context, accountID, mobileNumber string, dateOfBirth time.Time, age int) error
}

func (f *fakeAccountStore) Create(ctx context.Context, account *models.Account) error {
	return f.CreateFn(ctx, account)
}

func (f *fakeAccountStore) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	return f.GetByIDFn(ctx, accountID)
}

func (f *fakeAccountStore) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	return f.GetByUserIDFn(ctx, userID)
}

func (f *fakeAccountStore) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return f.GetByNumberFn(ctx, accountNumber)
}

func (f *fakeAccountStore) List(ctx context.Context) ([]models.Account, error) {
	return f.ListFn(ctx)
}

func (f *fakeAccountStore) Approve(ctx context.Context, accountID string) (*models.Account, bool, error) {
	return f.ApproveFn(ctx, accountID)
}

func (f *fakeAccountStore) UpdateDetails(ctx context.Context, accountID, mobileNumber string, dateOfBirth time.Time, age int) error {
	return f.UpdateDetailsFn(ctx, accountID, mobileNumber, dateOfBirth, age)
}

type fakeLedgerStore struct {
	DepositFn        func(ctx context.Context, userID, accountNumber string, amount int64) (*models.Transaction, int64, error)
	WithdrawFn       func(ctx context.Context, userID string, req models.WithdrawRequest) (*models.Transaction, int64, string, error)
	GetByAccountIDFn func(ctx context.Context, accountID string) ([]models.Transaction, error)
	GetByUserIDFn    func(ctx context.Context, userID string) ([]models.Transaction, error)
}

func (f *fakeLedgerStore) Deposit(ctx context.Context, userID, accountNumber string, amount int64) (*models.Transaction, int64, error) {
	return f.DepositFn(ctx, userID, accountNumber, amount)
}

func (f *fakeLedgerStore) Withdraw(ctx context.Context, userID string, req models.WithdrawRequest) (*models.Transaction, int64, string, error) {
	return f.WithdrawFn(ctx, userID, req)
}

func (f *fakeLedgerStore) GetByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return f.GetByAccountIDFn(ctx, accountID)
}

func (f *fakeLedgerStore) GetByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	return f.GetByUserIDFn(ctx, userID)
}

type fakeLoanStore struct {
	CreateApplicationFn   func(ctx context.Context, app *models.LoanApplication) error
	GetByIDFn             func(ctx context.Context, loanID string) (*models.LoanApplication, error)
	GetByUserIDFn         func(ctx context.Context, userID string) ([]models.LoanApplication, error)
	ListFn                func(ctx context.Context) ([]models.LoanApplication, error)
	SetStatusFn           func(ctx context.Context, loanID string, next models.LoanStatus) (*models.LoanApplication, error)
	RepayFn               func(ctx context.Context, userID string, amount int64) (*models.LoanRepayment, []models.RepaymentChange, error)
	GetRepaymentsByUserFn func(ctx context.Context, userID string) ([]models.LoanRepayment, error)
}

func (f *fakeLoanStore) CreateApplication(ctx context.Context, app *models.LoanApplication) error {
	return f.CreateApplicationFn(ctx, app)
}

func (f *fakeLoanStore) GetByID(ctx context.Context, loanID string) (*models.LoanApplication, error) {
	return f.GetByIDFn(ctx, loanID)
}

func (f *fakeLoanStore) GetByUserID(ctx context.Context, userID string) ([]models.LoanApplication, error) {
	return f.GetByUserIDFn(ctx, userID)
}

func (f *fakeLoanStore) List(ctx context.Context) ([]models.LoanApplication, error) {
	return f.ListFn(ctx)
}

func (f *fakeLoanStore) SetStatus(ctx context.Context, loanID string, next models.LoanStatus) (*models.LoanApplication, error) {
	return f.SetStatusFn(ctx, loanID, next)
}

func (f *fakeLoanStore) Repay(ctx context.Context, userID string, amount int64) (*models.LoanRepayment, []models.RepaymentChange, error) {
	return f.RepayFn(ctx, userID, amount)
}

func (f *fakeLoanStore) GetRepaymentsByUser(ctx context.Context, userID string) ([]models.LoanRepayment, error) {
	return f.GetRepaymentsByUserFn(ctx, userID)
}

type fakeCatalogStore struct {
	ListBranchesFn        func(ctx context.Context) ([]models.Branch, error)
	ListAccountProductsFn func(ctx context.Context) ([]models.AccountProduct, error)
	GetAccountProductFn   func(ctx context.Context, id string) (*models.AccountProduct, error)
	ListLoanProductsFn    func(ctx context.Context) ([]models.LoanProduct, error)
	GetLoanProductFn      func(ctx context.Context, id string) (*models.LoanProduct, error)
}

func (f *fakeCatalogStore) ListBranches(ctx context.Context) ([]models.Branch, error) {
	return f.ListBranchesFn(ctx)
}

func (f *fakeCatalogStore) ListAccountProducts(ctx context.Context) ([]models.AccountProduct, error) {
	return f.ListAccountProductsFn(ctx)
}

func (f *fakeCatalogStore) GetAccountProduct(ctx context.Context, id string) (*models.AccountProduct, error) {
	return f.GetAccountProductFn(ctx, id)
}

func (f *fakeCatalogStore) ListLoanProducts(ctx context.Context) ([]models.LoanProduct, error) {
	return f.ListLoanProductsFn(ctx)
}

func (f *fakeCatalogStore) GetLoanProduct(ctx context.Context, id string) (*models.LoanProduct, error) {
	return f.GetLoanProductFn(ctx, id)
}

type fakeUserStore struct {
	GetByIDFn func(ctx context.Context, id string) (*models.User, error)
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.GetByIDFn(ctx, id)
}

// fakeCache never holds anything; every read is a miss, and the keys handed
// to Delete are recorded so tests can assert on invalidation.
type fakeCache struct {
	mu      sync.Mutex
	deleted []string
}

func (c *fakeCache) GetJSON(_ context.Context, _ string, _ interface{}) error {
	return redis.Nil
}

func (c *fakeCache) SetJSON(_ context.Context, _ string, _ interface{}, _ time.Duration) error {
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, keys...)
	return nil
}

func (c *fakeCache) deletedKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

// recordingNotifier captures sent notifications. Send is safe for
// concurrent use; the inline runAsync fallback keeps tests synchronous.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

type sentNotification struct {
	Recipient string
	Subject   string
	Body      string
}

func (n *recordingNotifier) Send(_ context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{recipient, subject, body})
	return nil
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}
