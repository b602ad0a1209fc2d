package handlers

import (
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"

	"bank-office/internal/models"
	"bank-office/internal/services"
	"bank-office/internal/utils"
)

type PlanningHandler struct {
	service *services.PlanningService
}

func NewPlanningHandler(service *services.PlanningService) *PlanningHandler {
	utils.LogSuccess("PlanningHandler", "planning handler initialized")
	return &PlanningHandler{service: service}
}

// CreatePlan handles POST /planning/budgets.
func (h *PlanningHandler) CreatePlan(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/budgets", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/planning/budgets", userID)

	var req models.BudgetPlanRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeBadRequest(ctx, "/planning/budgets", startTime, "invalid request body")
		return
	}

	plan, err := h.service.CreatePlan(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/planning/budgets", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusCreated, plan)
	utils.LogResponse("/planning/budgets", fasthttp.StatusCreated, time.Since(startTime))
}

// ListPlans handles GET /planning/budgets.
func (h *PlanningHandler) ListPlans(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/budgets", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/planning/budgets", userID)

	plans, err := h.service.ListPlans(ctx, userID)
	if err != nil {
		writeError(ctx, "/planning/budgets", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"plans": plans,
		"total": len(plans),
	})
	utils.LogResponse("/planning/budgets", fasthttp.StatusOK, time.Since(startTime))
}

// UpdatePlan handles PUT /planning/budgets/{id}.
func (h *PlanningHandler) UpdatePlan(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/budgets/{id}", startTime)
	if !ok {
		return
	}
	utils.LogRequest("PUT", "/planning/budgets/{id}", userID)

	planID, ok := ctx.UserValue("id").(string)
	if !ok || planID == "" {
		writeBadRequest(ctx, "/planning/budgets/{id}", startTime, "missing plan id")
		return
	}

	var req models.BudgetPlanRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeBadRequest(ctx, "/planning/budgets/{id}", startTime, "invalid request body")
		return
	}

	plan, err := h.service.UpdatePlan(ctx, userID, planID, req)
	if err != nil {
		writeError(ctx, "/planning/budgets/{id}", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, plan)
	utils.LogResponse("/planning/budgets/{id}", fasthttp.StatusOK, time.Since(startTime))
}

// DeletePlan handles DELETE /planning/budgets/{id}.
func (h *PlanningHandler) DeletePlan(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/budgets/{id}", startTime)
	if !ok {
		return
	}
	utils.LogRequest("DELETE", "/planning/budgets/{id}", userID)

	planID, ok := ctx.UserValue("id").(string)
	if !ok || planID == "" {
		writeBadRequest(ctx, "/planning/budgets/{id}", startTime, "missing plan id")
		return
	}

	if err := h.service.DeletePlan(ctx, userID, planID); err != nil {
		writeError(ctx, "/planning/budgets/{id}", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"message": "plan deleted"})
	utils.LogResponse("/planning/budgets/{id}", fasthttp.StatusOK, time.Since(startTime))
}

// RecordExpense handles POST /planning/expenses.
func (h *PlanningHandler) RecordExpense(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/expenses", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/planning/expenses", userID)

	var req models.ExpenseRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeBadRequest(ctx, "/planning/expenses", startTime, "invalid request body")
		return
	}

	expense, err := h.service.RecordExpense(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/planning/expenses", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusCreated, expense)
	utils.LogResponse("/planning/expenses", fasthttp.StatusCreated, time.Since(startTime))
}

// ListExpenses handles GET /planning/budgets/{id}/expenses.
func (h *PlanningHandler) ListExpenses(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/budgets/{id}/expenses", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/planning/budgets/{id}/expenses", userID)

	planID, ok := ctx.UserValue("id").(string)
	if !ok || planID == "" {
		writeBadRequest(ctx, "/planning/budgets/{id}/expenses", startTime, "missing plan id")
		return
	}

	expenses, err := h.service.ListExpenses(ctx, userID, planID)
	if err != nil {
		writeError(ctx, "/planning/budgets/{id}/expenses", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"total":    len(expenses),
	})
	utils.LogResponse("/planning/budgets/{id}/expenses", fasthttp.StatusOK, time.Since(startTime))
}

// CreateGoal handles POST /planning/goals.
func (h *PlanningHandler) CreateGoal(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/goals", startTime)
	if !ok {
		return
	}
	utils.LogRequest("POST", "/planning/goals", userID)

	var req models.SavingsGoalRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeBadRequest(ctx, "/planning/goals", startTime, "invalid request body")
		return
	}

	goal, err := h.service.CreateGoal(ctx, userID, req)
	if err != nil {
		writeError(ctx, "/planning/goals", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusCreated, goal)
	utils.LogResponse("/planning/goals", fasthttp.StatusCreated, time.Since(startTime))
}

// ListGoals handles GET /planning/goals.
func (h *PlanningHandler) ListGoals(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/goals", startTime)
	if !ok {
		return
	}
	utils.LogRequest("GET", "/planning/goals", userID)

	goals, err := h.service.ListGoals(ctx, userID)
	if err != nil {
		writeError(ctx, "/planning/goals", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"goals": goals,
		"total": len(goals),
	})
	utils.LogResponse("/planning/goals", fasthttp.StatusOK, time.Since(startTime))
}

// DeleteGoal handles DELETE /planning/goals/{id}.
func (h *PlanningHandler) DeleteGoal(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	userID, ok := authedUser(ctx, "/planning/goals/{id}", startTime)
	if !ok {
		return
	}
	utils.LogRequest("DELETE", "/planning/goals/{id}", userID)

	goalID, ok := ctx.UserValue("id").(string)
	if !ok || goalID == "" {
		writeBadRequest(ctx, "/planning/goals/{id}", startTime, "missing goal id")
		return
	}

	if err := h.service.DeleteGoal(ctx, userID, goalID); err != nil {
		writeError(ctx, "/planning/goals/{id}", startTime, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"message": "goal deleted"})
	utils.LogResponse("/planning/goals/{id}", fasthttp.StatusOK, time.Since(startTime))
}
