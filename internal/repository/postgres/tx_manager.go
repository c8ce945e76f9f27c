package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sanitation-complaints/internal/domain/repository"
	"go.uber.org/zap"
)

type txManager struct {
	db *DB
}

func NewTxManager(db *DB) repository.TxManager {
	return &txManager{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return m.db.dbError("begin_tx", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return m.db.dbError("commit_tx", err)
	}
	return nil
}
