package biz

import (
	"context"
	"time"

	"link-shortener/internal/domain"
	"link-shortener/internal/domain/event"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// EventPublisher publishes domain events to in-process subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, e event.Event) error
}

// CreateLinkInput is a validated create request.
type CreateLinkInput struct {
	TenantID    string
	Destination string
	Alias       string
	// TTL is the lifetime of the link; nil means it never expires.
	TTL *time.Duration
}

// MutationUsecase creates and disables links and serves tenant metadata.
type MutationUsecase struct {
	links  domain.LinkRepository
	cache  domain.LinkCache
	uow    domain.UnitOfWork
	codes  *CodeGenerator
	events EventPublisher
	log    *log.Helper
	now    func() time.Time
}

// NewMutationUsecase creates a new MutationUsecase.
func NewMutationUsecase(
	links domain.LinkRepository,
	cache domain.LinkCache,
	uow domain.UnitOfWork,
	codes *CodeGenerator,
	events EventPublisher,
	logger log.Logger,
) *MutationUsecase {
	return &MutationUsecase{
		links:  links,
		cache:  cache,
		uow:    uow,
		codes:  codes,
		events: events,
		log:    log.NewHelper(logger),
		now:    time.Now,
	}
}

// Create reserves a code and stores a new active link for the tenant.
func (uc *MutationUsecase) Create(ctx context.Context, in CreateLinkInput) (*domain.Link, error) {
	if in.TenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	dest, err := domain.NewDestination(in.Destination)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	var expiresAt *time.Time
	if in.TTL != nil {
		if *in.TTL <= 0 {
			return nil, domain.ErrInvalidTTL
		}
		t := now.Add(*in.TTL)
		expiresAt = &t
	}

	var link *domain.Link
	err = uc.uow.Do(ctx, func(ctx context.Context) error {
		_, err := uc.codes.Reserve(ctx, in.Alias, func(ctx context.Context, code domain.ShortCode) error {
			candidate := domain.NewLink(in.TenantID, code, dest, expiresAt, now)
			if err := uc.links.Insert(ctx, candidate); err != nil {
				return err
			}
			link = candidate
			return nil
		})
		if err != nil {
			return err
		}

		uc.uow.AfterCommit(ctx, func(ctx context.Context) {
			uc.cache.Delete(ctx, link.ShortCode())
			uc.publish(ctx, event.NewLinkCreated(
				link.ShortCode().String(),
				link.TenantID(),
				link.Destination().String(),
				link.ExpiresAt(),
			))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Infof("created link %s for tenant %s", link.ShortCode(), link.TenantID())
	return link, nil
}

// Disable soft-disables a tenant's active link. Missing, foreign and
// already inactive links all fail with domain.ErrLinkNotFound.
func (uc *MutationUsecase) Disable(ctx context.Context, tenantID, rawCode string) error {
	if tenantID == "" {
		return domain.ErrTenantRequired
	}

	code, err := domain.NewShortCode(rawCode)
	if err != nil {
		return domain.ErrLinkNotFound
	}

	return uc.uow.Do(ctx, func(ctx context.Context) error {
		ok, err := uc.links.SoftDisable(ctx, code, tenantID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrLinkNotFound
		}

		uc.uow.AfterCommit(ctx, func(ctx context.Context) {
			uc.cache.Delete(ctx, code)
			uc.publish(ctx, event.NewLinkDisabled(code.String(), tenantID))
		})
		return nil
	})
}

// Get returns a tenant's link in any status.
func (uc *MutationUsecase) Get(ctx context.Context, tenantID, rawCode string) (*domain.Link, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	code, err := domain.NewShortCode(rawCode)
	if err != nil {
		return nil, domain.ErrLinkNotFound
	}

	link, err := uc.links.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if link == nil || link.TenantID() != tenantID {
		return nil, domain.ErrLinkNotFound
	}
	return link, nil
}

// List returns a page of the tenant's links and the total count.
func (uc *MutationUsecase) List(ctx context.Context, tenantID string, page, pageSize int) ([]*domain.Link, int, error) {
	if tenantID == "" {
		return nil, 0, domain.ErrTenantRequired
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return uc.links.ListByTenant(ctx, tenantID, page, pageSize)
}

// Now returns the usecase clock reading.
func (uc *MutationUsecase) Now() time.Time {
	return uc.now()
}

func (uc *MutationUsecase) publish(ctx context.Context, e event.Event) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, e); err != nil {
		uc.log.WithContext(ctx).Warnf("failed to publish %s: %v", e.EventName(), err)
	}
}
