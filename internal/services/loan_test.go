package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-office/internal/models"
)

func personalLoanProduct() *models.LoanProduct {
	return &models.LoanProduct{
		ID:            "loan-personal",
		Name:          "Personal Loan",
		InterestRate:  12.0,
		TermYears:     10,
		MaximumAmount: 1000000,
	}
}

func loanCatalog() *fakeCatalogStore {
	return &fakeCatalogStore{
		GetLoanProductFn: func(_ context.Context, id string) (*models.LoanProduct, error) {
			return personalLoanProduct(), nil
		},
	}
}

func TestLoanQuote(t *testing.T) {
	svc := NewLoanService(&fakeLoanStore{}, loanCatalog(), &fakeUserStore{}, &recordingNotifier{})

	quote, err := svc.Quote(context.Background(), models.LoanQuoteRequest{
		ProductID: "loan-personal",
		Amount:    120000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1721.65, quote.MonthlyPayment, 0.01)
	assert.Equal(t, int64(120000), quote.Application.RemainingBalance)

	_, err = svc.Quote(context.Background(), models.LoanQuoteRequest{
		ProductID: "loan-personal",
		Amount:    2000000,
	})
	assert.ErrorIs(t, err, models.ErrLoanAmountTooHigh)
}

func TestLoanApply(t *testing.T) {
	t.Run("files the application with full remaining balance", func(t *testing.T) {
		loans := &fakeLoanStore{
			CreateApplicationFn: func(_ context.Context, app *models.LoanApplication) error {
				app.ID = "loan-1"
				app.Status = models.LoanPending
				return nil
			},
		}
		svc := NewLoanService(loans, loanCatalog(), &fakeUserStore{}, &recordingNotifier{})

		resp, err := svc.Apply(context.Background(), "user-1", models.LoanApplyRequest{
			ProductID: "loan-personal",
			Amount:    120000,
		})
		require.NoError(t, err)
		assert.Equal(t, models.LoanPending, resp.Application.Status)
		assert.Equal(t, int64(120000), resp.Application.RemainingBalance)
		assert.Greater(t, resp.MonthlyPayment, 0.0)
	})

	t.Run("admission conflicts pass through", func(t *testing.T) {
		loans := &fakeLoanStore{
			CreateApplicationFn: func(_ context.Context, _ *models.LoanApplication) error {
				return models.ErrDuplicateLoan
			},
		}
		svc := NewLoanService(loans, loanCatalog(), &fakeUserStore{}, &recordingNotifier{})

		_, err := svc.Apply(context.Background(), "user-1", models.LoanApplyRequest{
			ProductID: "loan-personal",
			Amount:    120000,
		})
		assert.ErrorIs(t, err, models.ErrDuplicateLoan)
	})

	t.Run("amount over product maximum never reaches the store", func(t *testing.T) {
		svc := NewLoanService(&fakeLoanStore{}, loanCatalog(), &fakeUserStore{}, &recordingNotifier{})

		_, err := svc.Apply(context.Background(), "user-1", models.LoanApplyRequest{
			ProductID: "loan-personal",
			Amount:    5000000,
		})
		assert.ErrorIs(t, err, models.ErrLoanAmountTooHigh)
	})
}

func TestLoanGetOwnership(t *testing.T) {
	loans := &fakeLoanStore{
		GetByIDFn: func(_ context.Context, loanID string) (*models.LoanApplication, error) {
			return &models.LoanApplication{ID: loanID, UserID: "owner", ProductID: "loan-personal", Amount: 120000}, nil
		},
	}
	svc := NewLoanService(loans, loanCatalog(), &fakeUserStore{}, &recordingNotifier{})

	_, err := svc.Get(context.Background(), "loan-1", "intruder", false)
	assert.ErrorIs(t, err, models.ErrUnauthorizedAccess)

	resp, err := svc.Get(context.Background(), "loan-1", "owner", false)
	require.NoError(t, err)
	assert.Equal(t, "loan-1", resp.Application.ID)

	// Staff may read any application.
	resp, err = svc.Get(context.Background(), "loan-1", "reviewer", true)
	require.NoError(t, err)
	assert.Equal(t, "loan-1", resp.Application.ID)
}

func TestLoanSetStatus(t *testing.T) {
	users := &fakeUserStore{
		GetByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "applicant@example.com"}, nil
		},
	}

	t.Run("approval notifies the applicant", func(t *testing.T) {
		loans := &fakeLoanStore{
			SetStatusFn: func(_ context.Context, loanID string, next models.LoanStatus) (*models.LoanApplication, error) {
				assert.Equal(t, models.LoanApproved, next)
				return &models.LoanApplication{ID: loanID, UserID: "user-1", Status: next}, nil
			},
		}
		notifier := &recordingNotifier{}
		svc := NewLoanService(loans, loanCatalog(), users, notifier)

		loan, err := svc.SetStatus(context.Background(), "loan-1", "Approved")
		require.NoError(t, err)
		assert.Equal(t, models.LoanApproved, loan.Status)

		sent := notifier.all()
		require.Len(t, sent, 1)
		assert.Equal(t, "applicant@example.com", sent[0].Recipient)
		assert.Contains(t, sent[0].Body, "Approved")
	})

	t.Run("only staff decisions are accepted as targets", func(t *testing.T) {
		svc := NewLoanService(&fakeLoanStore{}, loanCatalog(), users, &recordingNotifier{})

		_, err := svc.SetStatus(context.Background(), "loan-1", "Fully Repaid")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		_, err = svc.SetStatus(context.Background(), "loan-1", "Pending")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		_, err = svc.SetStatus(context.Background(), "loan-1", "garbage")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("illegal transitions surface from the store", func(t *testing.T) {
		loans := &fakeLoanStore{
			SetStatusFn: func(_ context.Context, _ string, _ models.LoanStatus) (*models.LoanApplication, error) {
				return nil, models.ErrInvalidTransition
			},
		}
		svc := NewLoanService(loans, loanCatalog(), users, &recordingNotifier{})

		_, err := svc.SetStatus(context.Background(), "loan-1", "Rejected")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestRepaymentService(t *testing.T) {
	users := &fakeUserStore{
		GetByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "payer@example.com"}, nil
		},
	}

	t.Run("rejects a non-positive amount before the store", func(t *testing.T) {
		svc := NewRepaymentService(&fakeLoanStore{}, users, &recordingNotifier{})

		_, _, err := svc.Repay(context.Background(), "user-1", models.RepayRequest{Amount: 0})
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("full payoff notifies the payer", func(t *testing.T) {
		loans := &fakeLoanStore{
			RepayFn: func(_ context.Context, userID string, amount int64) (*models.LoanRepayment, []models.RepaymentChange, error) {
				return &models.LoanRepayment{ID: "rep-1", UserID: userID, Amount: amount},
					[]models.RepaymentChange{{LoanID: "loan-1", NewRemaining: 0, FullyRepaid: true}}, nil
			},
		}
		notifier := &recordingNotifier{}
		svc := NewRepaymentService(loans, users, notifier)

		repayment, changes, err := svc.Repay(context.Background(), "user-1", models.RepayRequest{Amount: 2500})
		require.NoError(t, err)
		assert.Equal(t, "rep-1", repayment.ID)
		require.Len(t, changes, 1)
		assert.True(t, changes[0].FullyRepaid)

		sent := notifier.all()
		require.Len(t, sent, 1)
		assert.Equal(t, "payer@example.com", sent[0].Recipient)
	})

	t.Run("partial repayment stays quiet", func(t *testing.T) {
		loans := &fakeLoanStore{
			RepayFn: func(_ context.Context, userID string, amount int64) (*models.LoanRepayment, []models.RepaymentChange, error) {
				return &models.LoanRepayment{ID: "rep-2"},
					[]models.RepaymentChange{{LoanID: "loan-1", NewRemaining: 1000}}, nil
			},
		}
		notifier := &recordingNotifier{}
		svc := NewRepaymentService(loans, users, notifier)

		_, _, err := svc.Repay(context.Background(), "user-1", models.RepayRequest{Amount: 500})
		require.NoError(t, err)
		assert.Empty(t, notifier.all())
	})

	t.Run("overpayment error passes through", func(t *testing.T) {
		loans := &fakeLoanStore{
			RepayFn: func(_ context.Context, _ string, _ int64) (*models.LoanRepayment, []models.RepaymentChange, error) {
				return nil, nil, models.ErrRepaymentExceedsBalance
			},
		}
		svc := NewRepaymentService(loans, users, &recordingNotifier{})

		_, _, err := svc.Repay(context.Background(), "user-1", models.RepayRequest{Amount: 10000})
		assert.ErrorIs(t, err, models.ErrRepaymentExceedsBalance)
	})
}
