package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Transactor runs units of work inside a database transaction.
// The open transaction travels in the context, so repository calls made
// with that context join it instead of grabbing a new connection.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor bound to the given DB connection.
func NewTransactor(database *gorm.DB) *Transactor {
	return &Transactor{db: database}
}

// WithinTx executes fn in a transaction. Nested calls reuse the outer one.
// Returning an error from fn rolls the transaction back.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or base bound to ctx.
func conn(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return base.WithContext(ctx)
}
