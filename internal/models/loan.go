package models

import (
	"math"
	"time"
)

type LoanStatus string

const (
	LoanPending     LoanStatus = "Pending"
	LoanApproved    LoanStatus = "Approved"
	LoanRejected    LoanStatus = "Rejected"
	LoanFullyRepaid LoanStatus = "Fully Repaid"
)

// loanTransitions is the explicit transition table. Pending moves are
// staff-driven; Approved -> Fully Repaid happens when a repayment brings the
// remaining balance to zero. Rejected and Fully Repaid are terminal.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:     {LoanApproved, LoanRejected},
	LoanApproved:    {LoanFullyRepaid},
	LoanRejected:    {},
	LoanFullyRepaid: {},
}

func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined for s. An
// applicant is admitted to a new loan only when all their applications are
// in a terminal state.
func (s LoanStatus) Terminal() bool {
	return len(loanTransitions[s]) == 0
}

// LoanProduct is a loan offering; interest rate is percent per year.
type LoanProduct struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Category         string  `json:"category"`
	InterestRate     float64 `json:"interest_rate"`
	TermYears        int     `json:"term_years"`
	MaximumAmount    int64   `json:"maximum_amount"`
	RequiredDocument string  `json:"required_document"`
	Details          string  `json:"details"`
}

type LoanApplication struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	ProductID        string     `json:"product_id"`
	Amount           int64      `json:"amount"`
	RemainingBalance int64      `json:"remaining_balance"`
	Status           LoanStatus `json:"status"`
	ProofOfIdentity  string     `json:"proof_of_identity,omitempty"`
	AddressProof     string     `json:"address_proof,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type LoanRepayment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	LoanID    string    `json:"loan_id"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	CreatedAt time.Time `json:"created_at"`
}

// MonthlyPayment computes the fixed monthly payment for a loan:
// M = P*r*(1+r)^n / ((1+r)^n - 1), with r the monthly rate and n the number
// of payments. A zero rate degenerates to P/n; the closed form divides by
// zero there.
func MonthlyPayment(principal int64, annualRatePercent float64, years int) (float64, error) {
	if years <= 0 {
		return 0, ErrInvalidLoanProduct
	}
	p := float64(principal)
	n := float64(years * 12)
	r := annualRatePercent / (12 * 100)
	if r == 0 {
		return p / n, nil
	}
	growth := math.Pow(1+r, n)
	return p * r * growth / (growth - 1), nil
}

// ValidateLoanApplication checks a requested amount against the product.
func ValidateLoanApplication(product *LoanProduct, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if product.TermYears <= 0 {
		return ErrInvalidLoanProduct
	}
	if amount > product.MaximumAmount {
		return ErrLoanAmountTooHigh
	}
	return nil
}

// RepaymentChange is one loan's planned new state after a repayment.
type RepaymentChange struct {
	LoanID       string
	NewRemaining int64
	FullyRepaid  bool
}

// PlanRepayment computes the effect of applying amount to every approved
// loan, all-or-nothing: if any loan's remaining balance would go negative,
// no change is planned. The processor must not assume exactly one approved
// loan even though admission restricts applicants to one open application.
func PlanRepayment(loans []LoanApplication, amount int64) ([]RepaymentChange, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(loans) == 0 {
		return nil, ErrNoApprovedLoan
	}

	changes := make([]RepaymentChange, 0, len(loans))
	for _, loan := range loans {
		remaining := loan.RemainingBalance - amount
		if remaining < 0 {
			return nil, ErrRepaymentExceedsBalance
		}
		changes = append(changes, RepaymentChange{
			LoanID:       loan.ID,
			NewRemaining: remaining,
			FullyRepaid:  remaining == 0,
		})
	}
	return changes, nil
}

type LoanApplyRequest struct {
	ProductID       string `json:"product_id"`
	Amount          int64  `json:"amount"`
	ProofOfIdentity string `json:"proof_of_identity"`
	AddressProof    string `json:"address_proof"`
}

type RepayRequest struct {
	Amount int64 `json:"amount"`
}

type LoanQuoteRequest struct {
	ProductID string `json:"product_id"`
	Amount    int64  `json:"amount"`
}

type LoanResponse struct {
	Application    LoanApplication `json:"loan_application"`
	Product        LoanProduct     `json:"loan_detail"`
	MonthlyPayment float64         `json:"monthly_payment"`
}

type StatusChangeRequest struct {
	ID        string `json:"id"`
	NewStatus string `json:"new_status"`
}
