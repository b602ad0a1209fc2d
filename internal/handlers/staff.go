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

// StaffHandler groups the back-office endpoints: pending application review
// and status decisions. Every route here sits behind RequireStaff.
type StaffHandler struct {
	accounts *services.AccountService
	loans    *services.LoanService
}

func NewStaffHandler(accounts *services.AccountService, loans *services.LoanService) *StaffHandler {
	utils.LogSuccess("StaffHandler", "staff handler initialized")
	return &StaffHandler{
		accounts: accounts,
		loans:    loans,
	}
}

// ListAccounts handles GET /staff/accounts.
func (h *StaffHandler) ListAccounts(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/staff/accounts", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/staff/accounts", userID)

	accounts, err := h.accounts.ListAccounts(ctx)
	if err != nil {
		writeError(ctx, "/staff/accounts", startTime, err)
		return
	}

	responses := make([]models.AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, models.NewAccountResponse(&accounts[i]))
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"accounts": responses,
		"total":    len(responses),
	})
	utils.LogResponse("/staff/accounts", fasthttp.StatusOK, time.Since(startTime))
}

// ApproveAccount handles POST /staff/accounts/{id}/approve. Approval issues
// the account number; repeating the call is a no-op.
func (h *StaffHandler) ApproveAccount(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/staff/accounts/{id}/approve", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/staff/accounts/{id}/approve", userID)

	accountID, ok := ctx.UserValue("id").(string)
	if !ok || accountID == "" {
		writeBadRequest(ctx, "/staff/accounts/{id}/approve", startTime, "missing account id")
		return
	}

	account, err := h.accounts.ApproveAccount(ctx, accountID)
	if err != nil {
		writeError(ctx, "/staff/accounts/{id}/approve", startTime, err)
		return
	}

	utils.LogSuccess("StaffHandler", fmt.Sprintf("account approved: %s by %s", accountID, userID))

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"message": "account approved",
		"account": models.NewAccountResponse(account),
	})
	utils.LogResponse("/staff/accounts/{id}/approve", fasthttp.StatusOK, time.Since(startTime))
}

// ListLoans handles GET /staff/loans.
func (h *StaffHandler) ListLoans(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/staff/loans", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/staff/loans", userID)

	loans, err := h.loans.ListAll(ctx)
	if err != nil {
		writeError(ctx, "/staff/loans", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"loans": loans,
		"total": len(loans),
	})
	utils.LogResponse("/staff/loans", fasthttp.StatusOK, time.Since(startTime))
}

// SetLoanStatus handles POST /staff/loans/status with a body naming the
// application and the decision (Approved or Rejected).
func (h *StaffHandler) SetLoanStatus(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/staff/loans/status", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/staff/loans/status", userID)

	var req models.StatusChangeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("StaffHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/staff/loans/status", startTime, "invalid request body")
		return
	}

	if req.ID == "" || req.NewStatus == "" {
		writeBadRequest(ctx, "/staff/loans/status", startTime, "id and new_status are required")
		return
	}

	loan, err := h.loans.SetStatus(ctx, req.ID, req.NewStatus)
	if err != nil {
		writeError(ctx, "/staff/loans/status", startTime, err)
		return
	}

	utils.LogSuccess("StaffHandler", fmt.Sprintf("loan %s moved to %s by %s", loan.ID, loan.Status, userID))

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"message": "loan status updated",
		"loan":    loan,
	})
	utils.LogResponse("/staff/loans/status", fasthttp.StatusOK, time.Since(startTime))
}
