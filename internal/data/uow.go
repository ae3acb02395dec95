package data

import (
	"context"
	"fmt"

	"link-shortener/internal/domain"

	"entgo.io/ent/dialect"
	"github.com/go-kratos/kratos/v2/log"
)

// Compile-time interface check
var _ domain.UnitOfWork = (*unitOfWork)(nil)

type txKey struct{}

// txState is the transaction carried in a context together with the hooks
// to run once it commits.
type txState struct {
	tx    dialect.Tx
	hooks []func(ctx context.Context)
}

// unitOfWork implements domain.UnitOfWork on top of the SQL driver.
type unitOfWork struct {
	data *Data
	log  *log.Helper
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(data *Data, logger log.Logger) domain.UnitOfWork {
	return &unitOfWork{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Do executes the function within a database transaction.
func (u *unitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if stateFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := u.data.db.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	state := &txState{tx: tx}
	txCtx := context.WithValue(ctx, txKey{}, state)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			u.log.WithContext(ctx).Errorf("rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, hook := range state.hooks {
		hook(ctx)
	}

	return nil
}

// AfterCommit defers fn until the transaction in ctx commits.
func (u *unitOfWork) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if state := stateFromContext(ctx); state != nil {
		state.hooks = append(state.hooks, fn)
		return
	}
	fn(ctx)
}

// TxFromContext retrieves the transaction from context.
func TxFromContext(ctx context.Context) dialect.Tx {
	if state := stateFromContext(ctx); state != nil {
		return state.tx
	}
	return nil
}

func stateFromContext(ctx context.Context) *txState {
	state, _ := ctx.Value(txKey{}).(*txState)
	return state
}
