package handlers

import (
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"

	"bank-office/internal/models"
	"bank-office/internal/services"
	"bank-office/internal/utils"
)

type AccountHandler struct {
	service *services.AccountService
	catalog *services.LoanService
}

func NewAccountHandler(service *services.AccountService, catalog *services.LoanService) *AccountHandler {
	utils.LogSuccess("AccountHandler", "account handler initialized")
	return &AccountHandler{
		service: service,
		catalog: catalog,
	}
}

// Open handles POST /accounts. The account is created Pending; a staff
// member approves it and the account number is issued then.
func (h *AccountHandler) Open(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/accounts", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/accounts", userID)

	var req models.OpenAccountRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("AccountHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/accounts", startTime, "invalid request body")
		return
	}

	account, err := h.service.OpenAccount(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/accounts", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"message": "account application submitted",
		"account": models.NewAccountResponse(account),
	})
	utils.LogResponse("/accounts", fasthttp.StatusCreated, time.Since(startTime))
}

// Mine handles GET /accounts/me.
func (h *AccountHandler) Mine(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/accounts/me", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/accounts/me", userID)

	account, err := h.service.MyAccount(ctx, userID)
	if err != nil {
		writeError(ctx, "/accounts/me", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, models.NewAccountResponse(account))
	utils.LogResponse("/accounts/me", fasthttp.StatusOK, time.Since(startTime))
}

// Update handles PUT /accounts/me. Owners edit their own contact details;
// zero-valued fields are left as they are.
func (h *AccountHandler) Update(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/accounts/me", startTime)
	if !ok {
		return
	}
	utils.LogRequest("PUT", "/accounts/me", userID)

	var req models.UpdateAccountRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("AccountHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/accounts/me", startTime, "invalid request body")
		return
	}

	account, err := h.service.UpdateAccount(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/accounts/me", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"message": "account details updated",
		"account": models.NewAccountResponse(account),
	})
	utils.LogResponse("/accounts/me", fasthttp.StatusOK, time.Since(startTime))
}

// Branches handles GET /branches.
func (h *AccountHandler) Branches(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()
	utils.LogRequest("GET", "/branches", "anonymous")

	branches, err := h.catalog.ListBranches(ctx)
	if err != nil {
		writeError(ctx, "/branches", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"branches": branches})
	utils.LogResponse("/branches", fasthttp.StatusOK, time.Since(startTime))
}

// AccountProducts handles GET /products/accounts.
func (h *AccountHandler) AccountProducts(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()
	utils.LogRequest("GET", "/products/accounts", "anonymous")

	products, err := h.catalog.ListAccountProducts(ctx)
	if err != nil {
		writeError(ctx, "/products/accounts", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"account_products": products})
	utils.LogResponse("/products/accounts", fasthttp.StatusOK, time.Since(startTime))
}
