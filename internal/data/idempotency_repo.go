package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"link-shortener/internal/domain"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/go-kratos/kratos/v2/log"
)

// Compile-time interface check
var _ domain.IdempotencyRepository = (*idempotencyRepo)(nil)

var idempotencyColumns = []string{"id", "tenant_id", "token", "response_status", "response_body", "created_at"}

// idempotencyRepo implements domain.IdempotencyRepository interface.
type idempotencyRepo struct {
	data *Data
	log  *log.Helper
}

// NewIdempotencyRepo creates a new idempotency ledger.
func NewIdempotencyRepo(data *Data, logger log.Logger) domain.IdempotencyRepository {
	return &idempotencyRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Find returns the record for (tenantID, token), or nil if none exists.
func (r *idempotencyRepo) Find(ctx context.Context, tenantID, token string) (*domain.IdempotencyRecord, error) {
	query, args := entsql.Dialect(r.data.Dialect()).
		Select(idempotencyColumns...).
		From(entsql.Table(IdempotencyRecordsTable.Name)).
		Where(entsql.And(
			entsql.EQ("tenant_id", tenantID),
			entsql.EQ("token", token),
		)).
		Query()

	var rows entsql.Rows
	if err := r.data.conn(ctx).Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("find idempotency record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("find idempotency record: %w", err)
		}
		return nil, nil
	}

	var (
		rec       domain.IdempotencyRecord
		body      []byte
		createdAt time.Time
	)
	if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.Token, &rec.ResponseStatus, &body, &createdAt); err != nil {
		return nil, fmt.Errorf("scan idempotency record: %w", err)
	}
	rec.ResponseBody = body
	rec.CreatedAt = createdAt.UTC()

	return &rec, nil
}

// CreateIfAbsent inserts the record unless (tenant, token) is already taken.
func (r *idempotencyRepo) CreateIfAbsent(ctx context.Context, rec *domain.IdempotencyRecord) error {
	body := []byte(rec.ResponseBody)
	if body == nil {
		body = []byte{}
	}

	query, args := entsql.Dialect(r.data.Dialect()).
		Insert(IdempotencyRecordsTable.Name).
		Columns(idempotencyColumns...).
		Values(
			rec.ID,
			rec.TenantID,
			rec.Token,
			rec.ResponseStatus,
			body,
			rec.CreatedAt.UTC(),
		).
		OnConflict(entsql.ConflictColumns("tenant_id", "token"), entsql.DoNothing()).
		Query()

	var res sql.Result
	if err := r.data.conn(ctx).Exec(ctx, query, args, &res); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return domain.ErrIdempotencyRecordExists
		}
		return fmt.Errorf("insert idempotency record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	if n == 0 {
		r.log.WithContext(ctx).Debugf("idempotency record for tenant %s already recorded", rec.TenantID)
		return domain.ErrIdempotencyRecordExists
	}
	return nil
}
