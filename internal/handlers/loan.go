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

type LoanHandler struct {
	service    *services.LoanService
	repayments *services.RepaymentService
}

func NewLoanHandler(service *services.LoanService, repayments *services.RepaymentService) *LoanHandler {
	utils.LogSuccess("LoanHandler", "loan handler initialized")
	return &LoanHandler{
		service:    service,
		repayments: repayments,
	}
}

// Products handles GET /products/loans.
func (h *LoanHandler) Products(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()
	utils.LogRequest("GET", "/products/loans", "anonymous")

	products, err := h.service.ListLoanProducts(ctx)
	if err != nil {
		writeError(ctx, "/products/loans", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"loan_products": products})
	utils.LogResponse("/products/loans", fasthttp.StatusOK, time.Since(startTime))
}

// Quote handles POST /loans/quote.
func (h *LoanHandler) Quote(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/loans/quote", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/loans/quote", userID)

	var req models.LoanQuoteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("LoanHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/loans/quote", startTime, "invalid request body")
		return
	}

	quote, err := h.service.Quote(ctx, req)
	if err != nil {
		writeError(ctx, "/loans/quote", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, quote)
	utils.LogResponse("/loans/quote", fasthttp.StatusOK, time.Since(startTime))
}

// Apply handles POST /loans.
func (h *LoanHandler) Apply(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/loans", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/loans", userID)

	var req models.LoanApplyRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("LoanHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/loans", startTime, "invalid request body")
		return
	}

	resp, err := h.service.Apply(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/loans", startTime, err)
		return
	}

	utils.LogSuccess("LoanHandler", fmt.Sprintf("loan application filed: %s", resp.Application.ID))

	writeJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"message": "loan application submitted",
		"loan":    resp,
	})
	utils.LogResponse("/loans", fasthttp.StatusCreated, time.Since(startTime))
}

// Mine handles GET /loans.
func (h *LoanHandler) Mine(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/loans", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/loans", userID)

	loans, err := h.service.ListMine(ctx, userID)
	if err != nil {
		writeError(ctx, "/loans", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"loans": loans,
		"total": len(loans),
	})
	utils.LogResponse("/loans", fasthttp.StatusOK, time.Since(startTime))
}

// Get handles GET /loans/{id}.
func (h *LoanHandler) Get(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/loans/{id}", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/loans/{id}", userID)

	loanID, ok := ctx.UserValue("id").(string)
	if !ok || loanID == "" {
		writeBadRequest(ctx, "/loans/{id}", startTime, "missing loan id")
		return
	}

	isStaff, _ := ctx.UserValue("is_staff").(bool)

	resp, err := h.service.Get(ctx, loanID, userID, isStaff)
	if err != nil {
		writeError(ctx, "/loans/{id}", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, resp)
	utils.LogResponse("/loans/{id}", fasthttp.StatusOK, time.Since(startTime))
}

// Repay handles POST /loans/repay. The amount is applied to every approved
// loan the caller holds, or to none at all.
func (h *LoanHandler) Repay(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/loans/repay", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/loans/repay", userID)

	var req models.RepayRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("LoanHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/loans/repay", startTime, "invalid request body")
		return
	}

	repayment, changes, err := h.repayments.Repay(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/loans/repay", startTime, err)
		return
	}

	utils.LogSuccess("LoanHandler", fmt.Sprintf("repayment recorded: %s", repayment.ID))

	writeJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"message":   "repayment successful",
		"repayment": repayment,
		"loans":     changes,
	})
	utils.LogResponse("/loans/repay", fasthttp.StatusCreated, time.Since(startTime))
}

// Repayments handles GET /loans/repayments.
func (h *LoanHandler) Repayments(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/loans/repayments", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/loans/repayments", userID)

	repayments, err := h.repayments.ListRepayments(ctx, userID)
	if err != nil {
		writeError(ctx, "/loans/repayments", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"repayments": repayments,
		"total":      len(repayments),
	})
	utils.LogResponse("/loans/repayments", fasthttp.StatusOK, time.Since(startTime))
}
