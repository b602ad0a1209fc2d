package models

import "time"

// Personal finance planning records. Owner-scoped, no locking subtleties.

type BudgetPlan struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Amount    int64     `json:"amount"`
	Spent     int64     `json:"spent"` // sum of recorded expenses
	CreatedAt time.Time `json:"created_at"`
}

type Expense struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	Amount    int64     `json:"amount"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SavingsGoal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	TargetAmount int64      `json:"target_amount"`
	AccountID    string     `json:"account_id"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"created_at"`
}

type BudgetPlanRequest struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

type ExpenseRequest struct {
	PlanID string `json:"plan_id"`
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

type SavingsGoalRequest struct {
	Name         string `json:"name"`
	TargetAmount int64  `json:"target_amount"`
	Deadline     string `json:"deadline"` // YYYY-MM-DD, optional
}
