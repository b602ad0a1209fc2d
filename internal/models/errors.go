package models

import "errors"

// Business-rule errors. Every validation failure is detected before any
// mutation and returned to the caller as one of these values; infrastructure
// failures live in the repository package.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrSameAccount         = errors.New("source and destination accounts are the same")
	ErrDailyLimitExceeded  = errors.New("amount exceeds the daily transaction limit for this account type")
	ErrWrongPIN            = errors.New("wrong PIN")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrBelowMinimumBalance = errors.New("withdrawal would leave the balance below the account type minimum")

	ErrAccountNotApproved = errors.New("account is not approved")
	ErrBelowMinimumAge    = errors.New("applicant does not meet the minimum age for this account type")
	ErrAlreadyHasAccount  = errors.New("user already has an account")
	ErrNoAccount          = errors.New("user has no approved account")
	ErrInvalidPIN         = errors.New("PIN must be exactly 6 digits")

	ErrDuplicateLoan           = errors.New("applicant already has an open loan application")
	ErrNoApprovedLoan          = errors.New("no approved loan found for repayment")
	ErrRepaymentExceedsBalance = errors.New("repayment amount exceeds the remaining loan balance")
	ErrLoanAmountTooHigh       = errors.New("loan amount exceeds the maximum for this product")
	ErrInvalidLoanProduct      = errors.New("loan product term must be at least one year")
	ErrInvalidTransition       = errors.New("status transition is not allowed")

	ErrUnauthorizedAccess = errors.New("no access to this resource")
)
