package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"assistance/internal/apperr"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// uniqueViolation — код ошибки Postgres для нарушения уникального ограничения
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound переводит sql.ErrNoRows в ошибку таксономии
func notFound(err error, entity string, ref any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity, ref)
	}
	return err
}

// inTx выполняет fn в одной транзакции: либо все изменения и уведомления
// фиксируются вместе, либо ничего
func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
