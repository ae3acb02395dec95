package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"link-shortener/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// errServerOutcome aborts the transaction of a mutation that rendered a
// server error, which is never memorized.
var errServerOutcome = errors.New("server error outcome")

// IdempotencyKey scopes a client token to its tenant.
type IdempotencyKey struct {
	TenantID string
	Token    string
}

// Enabled reports whether the request opted in to deduplication.
func (k IdempotencyKey) Enabled() bool {
	return k.TenantID != "" && k.Token != ""
}

// MutationFunc executes a mutation and renders its outcome. An error aborts
// the mutation without memorizing anything.
type MutationFunc func(ctx context.Context) (*Response, error)

// Coordinator makes retried mutations observe a single recorded outcome.
type Coordinator struct {
	records domain.IdempotencyRepository
	uow     domain.UnitOfWork
	log     *log.Helper
	now     func() time.Time
}

// NewCoordinator creates a new idempotency Coordinator.
func NewCoordinator(records domain.IdempotencyRepository, uow domain.UnitOfWork, logger log.Logger) *Coordinator {
	return &Coordinator{
		records: records,
		uow:     uow,
		log:     log.NewHelper(logger),
		now:     time.Now,
	}
}

// Execute runs fn at most once per key. A recorded outcome is replayed
// verbatim. Otherwise fn runs in a transaction together with the insert of
// its outcome, so that when concurrent duplicates race only the winner's
// effects commit and every loser replays the winner's record.
func (c *Coordinator) Execute(ctx context.Context, key IdempotencyKey, fn MutationFunc) (*Response, error) {
	if !key.Enabled() {
		return fn(ctx)
	}

	if resp, err := c.replay(ctx, key); err != nil || resp != nil {
		return resp, err
	}

	var resp *Response
	err := c.uow.Do(ctx, func(ctx context.Context) error {
		r, err := fn(ctx)
		if err != nil {
			return err
		}
		resp = r
		if r.IsServerError() {
			return errServerOutcome
		}
		record := domain.NewIdempotencyRecord(key.TenantID, key.Token, r.StatusCode, r.Body, c.now())
		return c.records.CreateIfAbsent(ctx, record)
	})

	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerOutcome):
		return c.replayOr(ctx, key, resp, nil)
	case errors.Is(err, domain.ErrIdempotencyRecordExists):
		c.log.WithContext(ctx).Infof("idempotency race lost for tenant %s, replaying recorded outcome", key.TenantID)
		winner, err := c.replay(ctx, key)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, fmt.Errorf("idempotency record for tenant %s vanished", key.TenantID)
		}
		return winner, nil
	default:
		return c.replayOr(ctx, key, nil, err)
	}
}

// replayOr returns the recorded outcome for key when a concurrent duplicate
// committed one while this attempt was failing, and the local failure
// otherwise.
func (c *Coordinator) replayOr(ctx context.Context, key IdempotencyKey, resp *Response, failure error) (*Response, error) {
	winner, err := c.replay(ctx, key)
	if err != nil || winner == nil {
		return resp, failure
	}
	c.log.WithContext(ctx).Infof("idempotency record for tenant %s committed concurrently, replaying it", key.TenantID)
	return winner, nil
}

func (c *Coordinator) replay(ctx context.Context, key IdempotencyKey) (*Response, error) {
	record, err := c.records.Find(ctx, key.TenantID, key.Token)
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency record: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return &Response{
		StatusCode: record.ResponseStatus,
		Body:       record.ResponseBody,
		Replayed:   true,
	}, nil
}
