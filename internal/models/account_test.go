package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func approvedAccount() *Account {
	return &Account{
		AccountNumber:  "1111111111",
		Status:         AccountApproved,
		Balance:        10000,
		PIN:            "123456",
		MinimumBalance: 500,
		DailyLimit:     25000,
	}
}

func TestValidateDeposit(t *testing.T) {
	a := approvedAccount()

	assert.NoError(t, a.ValidateDeposit(100))
	assert.ErrorIs(t, a.ValidateDeposit(0), ErrInvalidAmount)
	assert.ErrorIs(t, a.ValidateDeposit(-10), ErrInvalidAmount)

	a.Status = AccountPending
	assert.ErrorIs(t, a.ValidateDeposit(100), ErrAccountNotApproved)
}

func TestValidateWithdrawal(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		a := approvedAccount()
		assert.NoError(t, a.ValidateWithdrawal(1000, "123456", "2222222222"))
	})

	t.Run("every rule returns its own error", func(t *testing.T) {
		cases := []struct {
			name    string
			mutate  func(*Account)
			amount  int64
			pin     string
			dest    string
			wantErr error
		}{
			{"non-positive amount", nil, 0, "123456", "2222222222", ErrInvalidAmount},
			{"account not approved", func(a *Account) { a.Status = AccountPending }, 1000, "123456", "2222222222", ErrAccountNotApproved},
			{"same account", nil, 1000, "123456", "1111111111", ErrSameAccount},
			{"over daily limit", nil, 25001, "123456", "2222222222", ErrDailyLimitExceeded},
			{"wrong pin", nil, 1000, "000000", "2222222222", ErrWrongPIN},
			{"insufficient funds", nil, 20000, "123456", "2222222222", ErrInsufficientFunds},
			{"below minimum balance", nil, 9800, "123456", "2222222222", ErrBelowMinimumBalance},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				a := approvedAccount()
				if tc.mutate != nil {
					tc.mutate(a)
				}
				assert.ErrorIs(t, a.ValidateWithdrawal(tc.amount, tc.pin, tc.dest), tc.wantErr)
			})
		}
	})

	t.Run("status is checked before the pin", func(t *testing.T) {
		a := approvedAccount()
		a.Status = AccountPending
		// Wrong pin too, but the status violation wins.
		assert.ErrorIs(t, a.ValidateWithdrawal(1000, "000000", "2222222222"), ErrAccountNotApproved)
	})

	t.Run("daily limit is checked before the pin", func(t *testing.T) {
		a := approvedAccount()
		assert.ErrorIs(t, a.ValidateWithdrawal(25001, "000000", "2222222222"), ErrDailyLimitExceeded)
	})

	t.Run("withdrawal down to exactly the minimum is allowed", func(t *testing.T) {
		a := approvedAccount()
		assert.NoError(t, a.ValidateWithdrawal(9500, "123456", "2222222222"))
	})
}

func TestValidateOpening(t *testing.T) {
	product := &AccountProduct{MinimumAge: 18}

	assert.NoError(t, ValidateOpening(product, 18, "123456"))
	assert.ErrorIs(t, ValidateOpening(product, 17, "123456"), ErrBelowMinimumAge)
	assert.ErrorIs(t, ValidateOpening(product, 30, "12345"), ErrInvalidPIN)
	assert.ErrorIs(t, ValidateOpening(product, 30, "1234567"), ErrInvalidPIN)
	assert.ErrorIs(t, ValidateOpening(product, 30, "12345a"), ErrInvalidPIN)
	assert.ErrorIs(t, ValidateOpening(product, 30, ""), ErrInvalidPIN)
}

func TestAccountStatusTransitions(t *testing.T) {
	assert.True(t, AccountPending.CanTransitionTo(AccountApproved))
	assert.True(t, AccountPending.CanTransitionTo(AccountRejected))
	assert.False(t, AccountApproved.CanTransitionTo(AccountPending))
	assert.False(t, AccountApproved.CanTransitionTo(AccountRejected))
	assert.False(t, AccountRejected.CanTransitionTo(AccountApproved))
}
