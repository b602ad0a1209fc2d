package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bank-office/internal/models"
)

type PlanningRepository struct {
	db *pgxpool.Pool
}

func NewPlanningRepository(db *pgxpool.Pool) *PlanningRepository {
	return &PlanningRepository{db: db}
}

func (r *PlanningRepository) CreatePlan(ctx context.Context, plan *models.BudgetPlan) error {
	plan.ID = uuid.New().String()

	err := r.db.QueryRow(ctx, `
		INSERT INTO budget_plans (id, user_id, category, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, plan.ID, plan.UserID, plan.Category, plan.Amount).Scan(&plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating budget plan: %w", err)
	}
	return nil
}

const planSelect = `
	SELECT b.id, b.user_id, b.category, b.amount,
	       COALESCE((SELECT SUM(e.amount) FROM expenses e WHERE e.plan_id = b.id), 0),
	       b.created_at
	FROM budget_plans b
`

func (r *PlanningRepository) GetPlan(ctx context.Context, planID string) (*models.BudgetPlan, error) {
	var p models.BudgetPlan
	err := r.db.QueryRow(ctx, planSelect+" WHERE b.id = $1", planID).Scan(
		&p.ID, &p.UserID, &p.Category, &p.Amount, &p.Spent, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("getting budget plan: %w", err)
	}
	return &p, nil
}

func (r *PlanningRepository) ListPlans(ctx context.Context, userID string) ([]models.BudgetPlan, error) {
	rows, err := r.db.Query(ctx, planSelect+" WHERE b.user_id = $1 ORDER BY b.created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing budget plans: %w", err)
	}
	defer rows.Close()

	var plans []models.BudgetPlan
	for rows.Next() {
		var p models.BudgetPlan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Category, &p.Amount, &p.Spent, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning budget plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *PlanningRepository) UpdatePlan(ctx context.Context, plan *models.BudgetPlan) error {
	result, err := r.db.Exec(ctx,
		"UPDATE budget_plans SET category = $1, amount = $2 WHERE id = $3",
		plan.Category, plan.Amount, plan.ID,
	)
	if err != nil {
		return fmt.Errorf("updating budget plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PlanningRepository) DeletePlan(ctx context.Context, planID string) error {
	result, err := r.db.Exec(ctx, "DELETE FROM budget_plans WHERE id = $1", planID)
	if err != nil {
		return fmt.Errorf("deleting budget plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PlanningRepository) CreateExpense(ctx context.Context, expense *models.Expense) error {
	expense.ID = uuid.New().String()

	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (id, plan_id, amount, note)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, expense.ID, expense.PlanID, expense.Amount, expense.Note).Scan(&expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating expense: %w", err)
	}
	return nil
}

func (r *PlanningRepository) ListExpenses(ctx context.Context, planID string) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, plan_id, amount, COALESCE(note, ''), created_at
		FROM expenses
		WHERE plan_id = $1
		ORDER BY created_at DESC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.PlanID, &e.Amount, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *PlanningRepository) CreateGoal(ctx context.Context, goal *models.SavingsGoal) error {
	goal.ID = uuid.New().String()

	err := r.db.QueryRow(ctx, `
		INSERT INTO savings_goals (id, user_id, name, target_amount, account_id, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, goal.ID, goal.UserID, goal.Name, goal.TargetAmount, goal.AccountID, goal.Deadline,
	).Scan(&goal.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating savings goal: %w", err)
	}
	return nil
}

// ListGoals returns the user's goals with completion evaluated against the
// account's current balance at read time.
func (r *PlanningRepository) ListGoals(ctx context.Context, userID string) ([]models.SavingsGoal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT g.id, g.user_id, g.name, g.target_amount, g.account_id, g.deadline,
		       (a.balance >= g.target_amount), g.created_at
		FROM savings_goals g
		JOIN accounts a ON g.account_id = a.id
		WHERE g.user_id = $1
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing savings goals: %w", err)
	}
	defer rows.Close()

	var goals []models.SavingsGoal
	for rows.Next() {
		var g models.SavingsGoal
		err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.AccountID,
			&g.Deadline, &g.Completed, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning savings goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *PlanningRepository) DeleteGoal(ctx context.Context, goalID string) error {
	result, err := r.db.Exec(ctx, "DELETE FROM savings_goals WHERE id = $1", goalID)
	if err != nil {
		return fmt.Errorf("deleting savings goal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}
