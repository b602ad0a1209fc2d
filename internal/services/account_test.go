package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-office/internal/cache"
	"bank-office/internal/models"
)

func savingsProduct() *models.AccountProduct {
	return &models.AccountProduct{
		ID:             "acc-savings",
		Name:           "Savings Account",
		MinimumBalance: 500,
		MinimumAge:     18,
		DailyLimit:     25000,
	}
}

func openRequest() models.OpenAccountRequest {
	return models.OpenAccountRequest{
		ProductID:   "acc-savings",
		BranchID:    "br-ka-blr-01",
		DateOfBirth: "1990-04-01",
		Age:         36,
		PIN:         "123456",
	}
}

func TestOpenAccount(t *testing.T) {
	catalog := &fakeCatalogStore{
		GetAccountProductFn: func(_ context.Context, id string) (*models.AccountProduct, error) {
			return savingsProduct(), nil
		},
	}
	notifier := &recordingNotifier{}

	t.Run("creates a pending account and notifies staff", func(t *testing.T) {
		var created *models.Account
		accounts := &fakeAccountStore{
			CreateFn: func(_ context.Context, a *models.Account) error {
				a.ID = "acc-1"
				a.Status = models.AccountPending
				created = a
				return nil
			},
		}

		svc := NewAccountService(accounts, catalog, &fakeUserStore{}, notifier, "staff@bank.local")
		account, err := svc.OpenAccount(context.Background(), "user-1", openRequest())
		require.NoError(t, err)

		assert.Equal(t, models.AccountPending, account.Status)
		assert.Empty(t, account.AccountNumber)
		assert.Equal(t, created, account)

		sent := notifier.all()
		require.Len(t, sent, 1)
		assert.Equal(t, "staff@bank.local", sent[0].Recipient)
	})

	t.Run("rejects applicants below the product minimum age", func(t *testing.T) {
		svc := NewAccountService(&fakeAccountStore{}, catalog, &fakeUserStore{}, &recordingNotifier{}, "")

		req := openRequest()
		req.Age = 17
		_, err := svc.OpenAccount(context.Background(), "user-1", req)
		assert.ErrorIs(t, err, models.ErrBelowMinimumAge)
	})

	t.Run("rejects a malformed pin", func(t *testing.T) {
		svc := NewAccountService(&fakeAccountStore{}, catalog, &fakeUserStore{}, &recordingNotifier{}, "")

		req := openRequest()
		req.PIN = "12ab56"
		_, err := svc.OpenAccount(context.Background(), "user-1", req)
		assert.ErrorIs(t, err, models.ErrInvalidPIN)
	})

	t.Run("surfaces the one-account-per-user conflict", func(t *testing.T) {
		accounts := &fakeAccountStore{
			CreateFn: func(_ context.Context, _ *models.Account) error {
				return models.ErrAlreadyHasAccount
			},
		}
		svc := NewAccountService(accounts, catalog, &fakeUserStore{}, &recordingNotifier{}, "")

		_, err := svc.OpenAccount(context.Background(), "user-1", openRequest())
		assert.ErrorIs(t, err, models.ErrAlreadyHasAccount)
	})
}

func TestApproveAccount(t *testing.T) {
	users := &fakeUserStore{
		GetByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "owner@example.com"}, nil
		},
	}

	t.Run("first approval notifies the owner with the new number", func(t *testing.T) {
		accounts := &fakeAccountStore{
			ApproveFn: func(_ context.Context, accountID string) (*models.Account, bool, error) {
				return &models.Account{
					ID:            accountID,
					UserID:        "user-1",
					Status:        models.AccountApproved,
					AccountNumber: "4815162342",
				}, true, nil
			},
		}
		notifier := &recordingNotifier{}
		svc := NewAccountService(accounts, &fakeCatalogStore{}, users, notifier, "")

		account, err := svc.ApproveAccount(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.Equal(t, models.AccountApproved, account.Status)

		sent := notifier.all()
		require.Len(t, sent, 1)
		assert.Equal(t, "owner@example.com", sent[0].Recipient)
		assert.Contains(t, sent[0].Body, "4815162342")
	})

	t.Run("repeated approval does not renotify", func(t *testing.T) {
		accounts := &fakeAccountStore{
			ApproveFn: func(_ context.Context, accountID string) (*models.Account, bool, error) {
				return &models.Account{
					ID:            accountID,
					UserID:        "user-1",
					Status:        models.AccountApproved,
					AccountNumber: "4815162342",
				}, false, nil
			},
		}
		notifier := &recordingNotifier{}
		svc := NewAccountService(accounts, &fakeCatalogStore{}, users, notifier, "")

		_, err := svc.ApproveAccount(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.Empty(t, notifier.all())
	})

	t.Run("approval failure is passed through", func(t *testing.T) {
		accounts := &fakeAccountStore{
			ApproveFn: func(_ context.Context, _ string) (*models.Account, bool, error) {
				return nil, false, models.ErrInvalidTransition
			},
		}
		svc := NewAccountService(accounts, &fakeCatalogStore{}, users, &recordingNotifier{}, "")

		_, err := svc.ApproveAccount(context.Background(), "acc-1")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestUpdateAccount(t *testing.T) {
	catalog := &fakeCatalogStore{
		GetAccountProductFn: func(_ context.Context, id string) (*models.AccountProduct, error) {
			return savingsProduct(), nil
		},
	}
	existing := func() *models.Account {
		return &models.Account{
			ID:           "acc-1",
			UserID:       "user-1",
			ProductID:    "acc-savings",
			MobileNumber: "9000000001",
			DateOfBirth:  time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC),
			Age:          36,
			Status:       models.AccountApproved,
		}
	}

	t.Run("merges only the provided fields and persists", func(t *testing.T) {
		accounts := &fakeAccountStore{
			GetByUserIDFn: func(_ context.Context, _ string) (*models.Account, error) {
				return existing(), nil
			},
			UpdateDetailsFn: func(_ context.Context, accountID, mobileNumber string, dateOfBirth time.Time, age int) error {
				assert.Equal(t, "acc-1", accountID)
				assert.Equal(t, "9000000002", mobileNumber)
				assert.Equal(t, time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC), dateOfBirth)
				assert.Equal(t, 36, age)
				return nil
			},
		}
		svc := NewAccountService(accounts, catalog, &fakeUserStore{}, &recordingNotifier{}, "")

		account, err := svc.UpdateAccount(context.Background(), "user-1", models.UpdateAccountRequest{
			MobileNumber: "9000000002",
		})
		require.NoError(t, err)
		assert.Equal(t, "9000000002", account.MobileNumber)
		assert.Equal(t, 36, account.Age)
	})

	t.Run("re-checks the product minimum age on an age change", func(t *testing.T) {
		accounts := &fakeAccountStore{
			GetByUserIDFn: func(_ context.Context, _ string) (*models.Account, error) {
				return existing(), nil
			},
			UpdateDetailsFn: func(_ context.Context, _, _ string, _ time.Time, _ int) error {
				t.Fatal("no write should happen for an under-age edit")
				return nil
			},
		}
		svc := NewAccountService(accounts, catalog, &fakeUserStore{}, &recordingNotifier{}, "")

		_, err := svc.UpdateAccount(context.Background(), "user-1", models.UpdateAccountRequest{Age: 17})
		assert.ErrorIs(t, err, models.ErrBelowMinimumAge)
	})

	t.Run("rejects a malformed date of birth", func(t *testing.T) {
		accounts := &fakeAccountStore{
			GetByUserIDFn: func(_ context.Context, _ string) (*models.Account, error) {
				return existing(), nil
			},
		}
		svc := NewAccountService(accounts, catalog, &fakeUserStore{}, &recordingNotifier{}, "")

		_, err := svc.UpdateAccount(context.Background(), "user-1", models.UpdateAccountRequest{
			DateOfBirth: "01-04-1990",
		})
		assert.Error(t, err)
	})

	t.Run("drops the owner's cached account after an edit", func(t *testing.T) {
		accounts := &fakeAccountStore{
			GetByUserIDFn: func(_ context.Context, _ string) (*models.Account, error) {
				return existing(), nil
			},
			UpdateDetailsFn: func(_ context.Context, _, _ string, _ time.Time, _ int) error {
				return nil
			},
		}
		svc := NewAccountService(accounts, catalog, &fakeUserStore{}, &recordingNotifier{}, "")
		recorder := &fakeCache{}
		svc.cache = recorder

		_, err := svc.UpdateAccount(context.Background(), "user-1", models.UpdateAccountRequest{
			MobileNumber: "9000000002",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{cache.AccountKey("user-1")}, recorder.deletedKeys())
	})
}

func TestMyAccountWithoutCache(t *testing.T) {
	accounts := &fakeAccountStore{
		GetByUserIDFn: func(_ context.Context, userID string) (*models.Account, error) {
			return &models.Account{ID: "acc-1", UserID: userID}, nil
		},
	}
	svc := NewAccountService(accounts, &fakeCatalogStore{}, &fakeUserStore{}, &recordingNotifier{}, "")

	account, err := svc.MyAccount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)
}
