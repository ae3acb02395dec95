package domain

import (
	"context"
)

// UnitOfWork manages database transactions.
type UnitOfWork interface {
	// Do executes the given function within a transaction.
	// If the function returns an error, the transaction is rolled back.
	// Nested calls join the outer transaction.
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// AfterCommit runs fn once the transaction carried by ctx commits, or
	// immediately when ctx carries no transaction. Hooks of a rolled back
	// transaction are discarded.
	AfterCommit(ctx context.Context, fn func(ctx context.Context))
}
