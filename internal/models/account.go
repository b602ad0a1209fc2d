package models

import "time"

type AccountStatus string

const (
	AccountPending  AccountStatus = "Pending"
	AccountApproved AccountStatus = "Approved"
	AccountRejected AccountStatus = "Rejected"
)

// accountTransitions is the explicit transition table for account statuses.
// Rejected is reachable in the schema but no staff endpoint drives it.
var accountTransitions = map[AccountStatus][]AccountStatus{
	AccountPending:  {AccountApproved, AccountRejected},
	AccountApproved: {},
	AccountRejected: {},
}

func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	for _, allowed := range accountTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Branch is a bank branch an account is opened at.
type Branch struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	District string `json:"district"`
	Name     string `json:"branch_name"`
}

// AccountProduct is an account type definition shared by many accounts.
// It carries the invariants the ledger enforces per account.
type AccountProduct struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"` // Personal, NRI, Business
	MinimumBalance int64  `json:"minimum_balance"`
	MinimumAge     int    `json:"minimum_age"`
	DailyLimit     int64  `json:"daily_limit"`
	Eligibility    string `json:"eligibility"`
	Details        string `json:"details"`
}

type Account struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	ProductID     string        `json:"product_id"`
	BranchID      string        `json:"branch_id"`
	MobileNumber  string        `json:"mobile_number"`
	DateOfBirth   time.Time     `json:"date_of_birth"`
	Age           int           `json:"age"`
	Status        AccountStatus `json:"status"`
	AccountNumber string        `json:"account_number,omitempty"` // empty until approved
	Balance       int64         `json:"balance"`
	PIN           string        `json:"-"`
	PhotoRef      string        `json:"photo_ref,omitempty"` // opaque document references
	PancardRef    string        `json:"pancard_ref,omitempty"`
	AadhaarRef    string        `json:"aadhaar_ref,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`

	// Denormalized product limits, populated on reads that need them.
	MinimumBalance int64 `json:"-"`
	DailyLimit     int64 `json:"-"`
}

// ValidateDeposit checks a deposit against an account. Deposits have no
// upper bound.
func (a *Account) ValidateDeposit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Status != AccountApproved {
		return ErrAccountNotApproved
	}
	return nil
}

// ValidateWithdrawal applies the withdrawal invariants in their fixed order
// and returns the first violated one. The caller must have populated the
// product limits and must hold the row lock if the result drives a mutation.
func (a *Account) ValidateWithdrawal(amount int64, pin, destinationNumber string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Status != AccountApproved {
		return ErrAccountNotApproved
	}
	if destinationNumber == a.AccountNumber {
		return ErrSameAccount
	}
	if amount > a.DailyLimit {
		return ErrDailyLimitExceeded
	}
	if pin != a.PIN {
		return ErrWrongPIN
	}
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	if a.Balance-amount < a.MinimumBalance {
		// Rejected outright; no compensating credit is performed.
		return ErrBelowMinimumBalance
	}
	return nil
}

// ValidateOpening checks an account application against the product it asks
// for.
func ValidateOpening(product *AccountProduct, age int, pin string) error {
	if age < product.MinimumAge {
		return ErrBelowMinimumAge
	}
	if len(pin) != 6 {
		return ErrInvalidPIN
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}

type OpenAccountRequest struct {
	ProductID    string `json:"product_id"`
	BranchID     string `json:"branch_id"`
	MobileNumber string `json:"mobile_number"`
	DateOfBirth  string `json:"date_of_birth"` // YYYY-MM-DD
	Age          int    `json:"age"`
	PIN          string `json:"pin"`
	PhotoRef     string `json:"photo_ref"`
	PancardRef   string `json:"pancard_ref"`
	AadhaarRef   string `json:"aadhaar_ref"`
}

// UpdateAccountRequest edits contact and identity details on an existing
// account. Zero-valued fields are left unchanged.
type UpdateAccountRequest struct {
	MobileNumber string `json:"mobile_number"`
	DateOfBirth  string `json:"date_of_birth"` // YYYY-MM-DD
	Age          int    `json:"age"`
}

type AccountResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number,omitempty"`
	Status        string `json:"status"`
	Balance       int64  `json:"balance"`
	ProductID     string `json:"product_id"`
	BranchID      string `json:"branch_id"`
	CreatedAt     string `json:"created_at"`
}

func NewAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Status:        string(a.Status),
		Balance:       a.Balance,
		ProductID:     a.ProductID,
		BranchID:      a.BranchID,
		CreatedAt:     a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
