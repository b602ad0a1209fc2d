package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"bank-office/internal/models"
	"bank-office/internal/services"
	"bank-office/internal/utils"
)

type TransactionHandler struct {
	service *services.TransactionService
}

func NewTransactionHandler(service *services.TransactionService) *TransactionHandler {
	utils.LogSuccess("TransactionHandler", "transaction handler initialized")
	return &TransactionHandler{service: service}
}

// Deposit handles POST /transactions/deposit. Anyone authenticated may pay
// into any approved account they own.
func (h *TransactionHandler) Deposit(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/transactions/deposit", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/transactions/deposit", userID)

	var req models.DepositRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("TransactionHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/transactions/deposit", startTime, "invalid request body")
		return
	}

	transaction, newBalance, err := h.service.Deposit(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/transactions/deposit", startTime, err)
		return
	}

	utils.LogSuccess("TransactionHandler", fmt.Sprintf("deposit recorded: %s", transaction.ID))

	writeJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"message":     "deposit successful",
		"transaction": transaction,
		"balance":     newBalance,
	})
	utils.LogResponse("/transactions/deposit", fasthttp.StatusCreated, time.Since(startTime))
}

// Withdraw handles POST /transactions/withdraw. A withdrawal moves money to
// the counterparty account named in the request.
func (h *TransactionHandler) Withdraw(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/transactions/withdraw", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/transactions/withdraw", userID)

	var req models.WithdrawRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("TransactionHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/transactions/withdraw", startTime, "invalid request body")
		return
	}

	transaction, newBalance, err := h.service.Withdraw(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/transactions/withdraw", startTime, err)
		return
	}

	utils.LogSuccess("TransactionHandler", fmt.Sprintf("withdrawal recorded: %s", transaction.ID))

	writeJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"message":     "withdrawal successful",
		"transaction": transaction,
		"balance":     newBalance,
	})
	utils.LogResponse("/transactions/withdraw", fasthttp.StatusCreated, time.Since(startTime))
}

// History handles GET /transactions. An optional account_id query argument
// narrows the listing to one of the caller's accounts.
func (h *TransactionHandler) History(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/transactions", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/transactions", userID)

	var accountID *string
	if raw := string(ctx.QueryArgs().Peek("account_id")); raw != "" {
		accountID = &raw
	}

	transactions, err := h.service.History(ctx, userID, accountID)
	if err != nil {
		writeError(ctx, "/transactions", startTime, err)
		return
	}

	resp := models.TransactionListResponse{
		Transactions: transactions,
		Total:        len(transactions),
	}
	if accountID != nil {
		resp.AccountID = *accountID
	}

	writeJSON(ctx, fasthttp.StatusOK, resp)
	utils.LogResponse("/transactions", fasthttp.StatusOK, time.Since(startTime))
}
