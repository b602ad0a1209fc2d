package services

import (
	"context"
	"time"

	"bank-office/internal/models"
	"bank-office/internal/utils"
)

// PlanningService manages personal budget plans, expense records and savings
// goals. Everything here is owner-scoped; staff have no special access.
type PlanningService struct {
	planning PlanningStore
	accounts AccountStore
}

func NewPlanningService(planning PlanningStore, accounts AccountStore) *PlanningService {
	return &PlanningService{
		planning: planning,
		accounts: accounts,
	}
}

func (s *PlanningService) CreatePlan(ctx context.Context, userID string, req models.BudgetPlanRequest) (*models.BudgetPlan, error) {
	if req.Amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	plan := &models.BudgetPlan{
		UserID:   userID,
		Category: req.Category,
		Amount:   req.Amount,
	}
	if err := s.planning.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanningService) ListPlans(ctx context.Context, userID string) ([]models.BudgetPlan, error) {
	return s.planning.ListPlans(ctx, userID)
}

func (s *PlanningService) UpdatePlan(ctx context.Context, userID, planID string, req models.BudgetPlanRequest) (*models.BudgetPlan, error) {
	if req.Amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	plan.Category = req.Category
	plan.Amount = req.Amount
	if err := s.planning.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanningService) DeletePlan(ctx context.Context, userID, planID string) error {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return err
	}
	return s.planning.DeletePlan(ctx, planID)
}

// RecordExpense books an expense against one of the caller's plans.
func (s *PlanningService) RecordExpense(ctx context.Context, userID string, req models.ExpenseRequest) (*models.Expense, error) {
	if req.Amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	if _, err := s.ownedPlan(ctx, userID, req.PlanID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		PlanID: req.PlanID,
		Amount: req.Amount,
		Note:   req.Note,
	}
	if err := s.planning.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *PlanningService) ListExpenses(ctx context.Context, userID, planID string) ([]models.Expense, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.planning.ListExpenses(ctx, planID)
}

// CreateGoal binds a savings goal to the caller's own account; completion is
// later evaluated against that account's balance.
func (s *PlanningService) CreateGoal(ctx context.Context, userID string, req models.SavingsGoalRequest) (*models.SavingsGoal, error) {
	if req.TargetAmount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	goal := &models.SavingsGoal{
		UserID:       userID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		AccountID:    account.ID,
	}
	if req.Deadline != "" {
		deadline, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			return nil, err
		}
		goal.Deadline = &deadline
	}

	if err := s.planning.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *PlanningService) ListGoals(ctx context.Context, userID string) ([]models.SavingsGoal, error) {
	return s.planning.ListGoals(ctx, userID)
}

func (s *PlanningService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	goals, err := s.planning.ListGoals(ctx, userID)
	if err != nil {
		return err
	}
	for _, g := range goals {
		if g.ID == goalID {
			return s.planning.DeleteGoal(ctx, goalID)
		}
	}
	return models.ErrUnauthorizedAccess
}

func (s *PlanningService) ownedPlan(ctx context.Context, userID, planID string) (*models.BudgetPlan, error) {
	plan, err := s.planning.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != userID {
		utils.LogWarning("PlanningService", "user %s tried to access plan %s", userID, planID)
		return nil, models.ErrUnauthorizedAccess
	}
	return plan, nil
}
