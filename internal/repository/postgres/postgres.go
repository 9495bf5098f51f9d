package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"landrent-backend/internal/logger"
	"landrent-backend/internal/repository"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
	repository.AssetStateRepository
	repository.ContainerRepository
	repository.HostingTierRepository
	repository.SettlementRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		AssetStateRepository:  NewAssetStateRepository(db),
		ContainerRepository:   NewContainerRepository(db),
		HostingTierRepository: NewHostingTierRepository(db),
		SettlementRepository:  NewSettlementRepository(db),
	}
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("migrate", "schema.sql")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("migrate", 0, err)
	return err
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// jsonSlot encodes a nullable record slot for a JSONB column.
func jsonSlot[T any](v *T) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanSlot[T any](raw []byte) (*T, error) {
	if raw == nil {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return v, nil
}
