package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/repository"
)

type hostingTierRepository struct {
	db *sql.DB
}

func NewHostingTierRepository(db *sql.DB) repository.HostingTierRepository {
	return &hostingTierRepository{db: db}
}

func (r *hostingTierRepository) Create(ctx context.Context, t *domain.HostingTier) error {
	query := `INSERT INTO hosting_tiers (id, price_per_month, months, max_months, enabled) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, t.ID, int64(t.PricePerMonth), t.Months, t.MaxMonths, t.Enabled)
	if isUniqueViolation(err) {
		return fmt.Errorf("hosting tier %d already exists", t.ID)
	}
	return err
}

func (r *hostingTierRepository) GetByID(ctx context.Context, id int32) (*domain.HostingTier, error) {
	t := &domain.HostingTier{ID: id}
	query := `SELECT price_per_month, months, max_months, enabled FROM hosting_tiers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.PricePerMonth, &t.Months, &t.MaxMonths, &t.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hosting tier %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *hostingTierRepository) Update(ctx context.Context, t *domain.HostingTier) error {
	query := `UPDATE hosting_tiers SET price_per_month=$1, months=$2, max_months=$3, enabled=$4 WHERE id=$5`
	res, err := r.db.ExecContext(ctx, query, int64(t.PricePerMonth), t.Months, t.MaxMonths, t.Enabled, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("hosting tier %d: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *hostingTierRepository) List(ctx context.Context) ([]domain.HostingTier, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, price_per_month, months, max_months, enabled FROM hosting_tiers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.HostingTier
	for rows.Next() {
		var t domain.HostingTier
		if err := rows.Scan(&t.ID, &t.PricePerMonth, &t.Months, &t.MaxMonths, &t.Enabled); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}
