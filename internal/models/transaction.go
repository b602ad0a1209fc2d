package models

import "time"

// Transaction is an immutable record of a balance-affecting operation.
// Exactly one of DepositAmount/WithdrawAmount is set; the schema enforces it
// with a CHECK constraint. Records are never updated or deleted.
type Transaction struct {
	ID                 string    `json:"id"`
	AccountID          string    `json:"account_id"`
	UserID             string    `json:"user_id"`
	DepositAmount      *int64    `json:"deposit_amount,omitempty"`
	WithdrawAmount     *int64    `json:"withdraw_amount,omitempty"`
	CounterpartyNumber string    `json:"counterparty_account_number,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type DepositRequest struct {
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
}

type WithdrawRequest struct {
	AccountNumber      string `json:"account_number"`
	Amount             int64  `json:"amount"`
	PIN                string `json:"pin"`
	CounterpartyNumber string `json:"counterparty_account_number"`
}

type TransactionListResponse struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	AccountID    string        `json:"account_id,omitempty"`
}
