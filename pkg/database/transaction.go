package database

import (
	"context"

	"gorm.io/gorm"
)

// TxFunc is the body of a transaction. tx is bound to the transaction and
// must not be used after the function returns.
type TxFunc func(tx *gorm.DB) error

// Transactor runs a function inside a single database transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn TxFunc) error
}

// TxManager implements Transactor on a gorm connection.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a transaction manager over db.
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// InTransaction begins a transaction, runs fn and commits if fn returns nil.
// The transaction is rolled back when fn returns an error or panics; the
// panic is re-raised after rollback.
func (m *TxManager) InTransaction(ctx context.Context, fn TxFunc) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

// DB returns the underlying connection.
func (m *TxManager) DB() *gorm.DB {
	return m.db
}
