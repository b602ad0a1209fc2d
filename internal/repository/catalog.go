package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bank-office/internal/models"
)

// CatalogRepository serves the static product definitions: branches, account
// products, loan products. These are seeded by migrations and read-only at
// runtime, which is what makes them safe to cache aggressively.
type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListBranches(ctx context.Context) ([]models.Branch, error) {
	rows, err := r.db.Query(ctx, "SELECT id, state, district, branch_name FROM branches ORDER BY branch_name")
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.State, &b.District, &b.Name); err != nil {
			return nil, fmt.Errorf("scanning branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

const accountProductSelect = `
	SELECT id, name, category, minimum_balance, minimum_age, daily_limit, eligibility, details
	FROM account_products
`

func (r *CatalogRepository) ListAccountProducts(ctx context.Context) ([]models.AccountProduct, error) {
	rows, err := r.db.Query(ctx, accountProductSelect+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing account products: %w", err)
	}
	defer rows.Close()

	var products []models.AccountProduct
	for rows.Next() {
		var p models.AccountProduct
		err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.MinimumBalance, &p.MinimumAge,
			&p.DailyLimit, &p.Eligibility, &p.Details)
		if err != nil {
			return nil, fmt.Errorf("scanning account product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *CatalogRepository) GetAccountProduct(ctx context.Context, id string) (*models.AccountProduct, error) {
	var p models.AccountProduct
	err := r.db.QueryRow(ctx, accountProductSelect+" WHERE id = $1", id).Scan(
		&p.ID, &p.Name, &p.Category, &p.MinimumBalance, &p.MinimumAge,
		&p.DailyLimit, &p.Eligibility, &p.Details,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("getting account product: %w", err)
	}
	return &p, nil
}

const loanProductSelect = `
	SELECT id, name, category, interest_rate, term_years, maximum_amount, required_document, details
	FROM loan_products
`

func (r *CatalogRepository) ListLoanProducts(ctx context.Context) ([]models.LoanProduct, error) {
	rows, err := r.db.Query(ctx, loanProductSelect+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing loan products: %w", err)
	}
	defer rows.Close()

	var products []models.LoanProduct
	for rows.Next() {
		var p models.LoanProduct
		err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.InterestRate, &p.TermYears,
			&p.MaximumAmount, &p.RequiredDocument, &p.Details)
		if err != nil {
			return nil, fmt.Errorf("scanning loan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *CatalogRepository) GetLoanProduct(ctx context.Context, id string) (*models.LoanProduct, error) {
	var p models.LoanProduct
	err := r.db.QueryRow(ctx, loanProductSelect+" WHERE id = $1", id).Scan(
		&p.ID, &p.Name, &p.Category, &p.InterestRate, &p.TermYears,
		&p.MaximumAmount, &p.RequiredDocument, &p.Details,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("getting loan product: %w", err)
	}
	return &p, nil
}
