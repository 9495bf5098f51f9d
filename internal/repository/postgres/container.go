package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/repository"
)

type containerRepository struct {
	db *sql.DB
}

func NewContainerRepository(db *sql.DB) repository.ContainerRepository {
	return &containerRepository{db: db}
}

func (r *containerRepository) Create(ctx context.Context, c *domain.Container) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO containers (id, owner, name, created_on) VALUES (nextval('container_ids'), $1, $2, $3) RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, query, string(c.Owner), c.Name, c.CreatedAt).Scan(&id); err != nil {
		return err
	}

	memberQuery := `INSERT INTO container_members (collection, token_id, container_id, position) VALUES ($1, $2, $3, $4)`
	for i, m := range c.Members {
		if _, err := tx.ExecContext(ctx, memberQuery, string(m.Collection), int64(m.TokenID), id, i); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", domain.ErrAssetAlreadyContained, m)
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *containerRepository) GetByID(ctx context.Context, id uint64) (*domain.Container, error) {
	c := &domain.Container{ID: id}
	query := `SELECT owner, name, created_on FROM containers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, int64(id)).Scan(&c.Owner, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("container %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT collection, token_id FROM container_members WHERE container_id = $1 ORDER BY position`, int64(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var collection string
		var tokenID int64
		if err := rows.Scan(&collection, &tokenID); err != nil {
			return nil, err
		}
		c.Members = append(c.Members, domain.NewAssetRef(domain.Address(collection), uint64(tokenID)))
	}
	return c, rows.Err()
}

func (r *containerRepository) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM container_members WHERE container_id = $1`, int64(id)); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM containers WHERE id = $1`, int64(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("container %d: %w", id, domain.ErrNotFound)
	}
	return tx.Commit()
}

func (r *containerRepository) ContainerOf(ctx context.Context, asset domain.AssetRef) (uint64, bool, error) {
	var id int64
	query := `SELECT container_id FROM container_members WHERE collection = $1 AND token_id = $2`
	err := r.db.QueryRowContext(ctx, query, string(asset.Collection), int64(asset.TokenID)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint64(id), true, nil
}
