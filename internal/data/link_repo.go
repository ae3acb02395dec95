package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"link-shortener/internal/domain"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/go-kratos/kratos/v2/log"
)

// Compile-time interface check
var _ domain.LinkRepository = (*linkRepo)(nil)

const (
	linkFieldID          = "id"
	linkFieldTenantID    = "tenant_id"
	linkFieldShortCode   = "short_code"
	linkFieldDestination = "destination"
	linkFieldStatus      = "status"
	linkFieldClickCount  = "click_count"
	linkFieldExpiresAt   = "expires_at"
	linkFieldCreatedAt   = "created_at"
	linkFieldUpdatedAt   = "updated_at"
)

var linkColumns = []string{
	linkFieldID,
	linkFieldTenantID,
	linkFieldShortCode,
	linkFieldDestination,
	linkFieldStatus,
	linkFieldClickCount,
	linkFieldExpiresAt,
	linkFieldCreatedAt,
	linkFieldUpdatedAt,
}

// linkRepo implements domain.LinkRepository interface.
type linkRepo struct {
	data *Data
	log  *log.Helper
}

// NewLinkRepo creates a new link repository.
func NewLinkRepo(data *Data, logger log.Logger) domain.LinkRepository {
	return &linkRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *linkRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.data.Dialect())
}

// Insert creates the link unless the short code is already taken. Only the
// short code conflict maps to domain.ErrAliasInUse; any other constraint
// violation is a store error.
func (r *linkRepo) Insert(ctx context.Context, l *domain.Link) error {
	query, args := r.builder().
		Insert(LinksTable.Name).
		Columns(linkColumns...).
		Values(
			l.ID(),
			l.TenantID(),
			l.ShortCode().String(),
			l.Destination().String(),
			string(l.Status()),
			l.ClickCount(),
			nullableTime(l.ExpiresAt()),
			l.CreatedAt(),
			l.UpdatedAt(),
		).
		OnConflict(entsql.ConflictColumns(linkFieldShortCode), entsql.DoNothing()).
		Query()

	var res sql.Result
	if err := r.data.conn(ctx).Exec(ctx, query, args, &res); err != nil {
		r.log.WithContext(ctx).Errorf("insert link %s: %v", l.ShortCode(), err)
		return fmt.Errorf("insert link: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	if n == 0 {
		return domain.ErrAliasInUse
	}
	return nil
}

// FindByCode retrieves a link by its short code.
func (r *linkRepo) FindByCode(ctx context.Context, code domain.ShortCode) (*domain.Link, error) {
	query, args := r.builder().
		Select(linkColumns...).
		From(entsql.Table(LinksTable.Name)).
		Where(entsql.EQ(linkFieldShortCode, code.String())).
		Query()

	links, err := r.queryLinks(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("find link %s: %w", code, err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	return links[0], nil
}

// SoftDisable transitions an active link owned by tenantID to disabled.
func (r *linkRepo) SoftDisable(ctx context.Context, code domain.ShortCode, tenantID string) (bool, error) {
	query, args := r.builder().
		Update(LinksTable.Name).
		Set(linkFieldStatus, string(domain.LinkStatusDisabled)).
		Set(linkFieldUpdatedAt, time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ(linkFieldShortCode, code.String()),
			entsql.EQ(linkFieldTenantID, tenantID),
			entsql.EQ(linkFieldStatus, string(domain.LinkStatusActive)),
		)).
		Query()

	n, err := r.exec(ctx, query, args)
	if err != nil {
		return false, fmt.Errorf("disable link %s: %w", code, err)
	}
	return n == 1, nil
}

// IncrementClicks atomically increments the click count.
func (r *linkRepo) IncrementClicks(ctx context.Context, code domain.ShortCode) error {
	query, args := r.builder().
		Update(LinksTable.Name).
		Add(linkFieldClickCount, 1).
		Where(entsql.EQ(linkFieldShortCode, code.String())).
		Query()

	if _, err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("increment clicks %s: %w", code, err)
	}
	return nil
}

// SweepExpired expires every active link whose expiry is before now.
func (r *linkRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	query, args := r.builder().
		Update(LinksTable.Name).
		Set(linkFieldStatus, string(domain.LinkStatusExpired)).
		Set(linkFieldUpdatedAt, now).
		Where(entsql.And(
			entsql.EQ(linkFieldStatus, string(domain.LinkStatusActive)),
			entsql.NotNull(linkFieldExpiresAt),
			entsql.LT(linkFieldExpiresAt, now),
		)).
		Query()

	n, err := r.exec(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("sweep expired links: %w", err)
	}
	return n, nil
}

// ListByTenant retrieves a tenant's links with pagination, newest first.
func (r *linkRepo) ListByTenant(ctx context.Context, tenantID string, page, pageSize int) ([]*domain.Link, int, error) {
	offset := (page - 1) * pageSize

	query, args := r.builder().
		Select(linkColumns...).
		From(entsql.Table(LinksTable.Name)).
		Where(entsql.EQ(linkFieldTenantID, tenantID)).
		OrderBy(entsql.Desc(linkFieldCreatedAt), entsql.Desc(linkFieldID)).
		Limit(pageSize).
		Offset(offset).
		Query()

	links, err := r.queryLinks(ctx, query, args)
	if err != nil {
		return nil, 0, fmt.Errorf("list links: %w", err)
	}

	countQuery, countArgs := r.builder().
		Select().
		Count().
		From(entsql.Table(LinksTable.Name)).
		Where(entsql.EQ(linkFieldTenantID, tenantID)).
		Query()

	var rows entsql.Rows
	if err := r.data.conn(ctx).Query(ctx, countQuery, countArgs, &rows); err != nil {
		return nil, 0, fmt.Errorf("count links: %w", err)
	}
	defer rows.Close()

	total, err := entsql.ScanInt(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("count links: %w", err)
	}

	return links, total, nil
}

func (r *linkRepo) exec(ctx context.Context, query string, args []any) (int64, error) {
	var res sql.Result
	if err := r.data.conn(ctx).Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *linkRepo) queryLinks(ctx context.Context, query string, args []any) ([]*domain.Link, error) {
	var rows entsql.Rows
	if err := r.data.conn(ctx).Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*domain.Link
	for rows.Next() {
		var (
			id, tenantID, shortCode, destination, status string
			clickCount                                   int64
			expiresAt                                    sql.NullTime
			createdAt, updatedAt                         time.Time
		)
		if err := rows.Scan(&id, &tenantID, &shortCode, &destination, &status, &clickCount, &expiresAt, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		links = append(links, r.rowToDomain(id, tenantID, shortCode, destination, status, clickCount, expiresAt, createdAt, updatedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

// rowToDomain converts a links row to a domain Link. Stored values were
// validated on the way in, so construction errors are not expected here.
func (r *linkRepo) rowToDomain(
	id, tenantID, shortCode, destination, status string,
	clickCount int64,
	expiresAt sql.NullTime,
	createdAt, updatedAt time.Time,
) *domain.Link {
	code, _ := domain.NewShortCode(shortCode)
	dest, _ := domain.NewDestination(destination)

	var expires *time.Time
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		expires = &t
	}

	return domain.ReconstructLink(
		id,
		tenantID,
		code,
		dest,
		domain.LinkStatus(status),
		clickCount,
		expires,
		createdAt.UTC(),
		updatedAt.UTC(),
	)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
