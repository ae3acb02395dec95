package data

import (
	"context"
	"fmt"

	"link-shortener/internal/domain"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// LinksColumns holds the columns for the "links" table.
	LinksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "tenant_id", Type: field.TypeString, Size: domain.MaxTenantIDLength},
		{Name: "short_code", Type: field.TypeString, Unique: true, Size: 32},
		{Name: "destination", Type: field.TypeString, Size: 2048},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"active", "disabled", "expired"}, Default: "active"},
		{Name: "click_count", Type: field.TypeInt64, Default: 0},
		{Name: "expires_at", Type: field.TypeTime, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// LinksTable holds the schema information for the "links" table.
	LinksTable = &schema.Table{
		Name:       "links",
		Columns:    LinksColumns,
		PrimaryKey: []*schema.Column{LinksColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "link_tenant_id_short_code",
				Unique:  false,
				Columns: []*schema.Column{LinksColumns[1], LinksColumns[2]},
			},
			{
				Name:    "link_status_expires_at",
				Unique:  false,
				Columns: []*schema.Column{LinksColumns[4], LinksColumns[6]},
			},
		},
	}
	// IdempotencyRecordsColumns holds the columns for the "idempotency_records" table.
	IdempotencyRecordsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "tenant_id", Type: field.TypeString, Size: domain.MaxTenantIDLength},
		{Name: "token", Type: field.TypeString, Size: domain.MaxIdempotencyTokenLength},
		{Name: "response_status", Type: field.TypeInt},
		{Name: "response_body", Type: field.TypeBytes, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// IdempotencyRecordsTable holds the schema information for the "idempotency_records" table.
	IdempotencyRecordsTable = &schema.Table{
		Name:       "idempotency_records",
		Columns:    IdempotencyRecordsColumns,
		PrimaryKey: []*schema.Column{IdempotencyRecordsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "idempotencyrecord_tenant_id_token",
				Unique:  true,
				Columns: []*schema.Column{IdempotencyRecordsColumns[1], IdempotencyRecordsColumns[2]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		LinksTable,
		IdempotencyRecordsTable,
	}
)

// Migrate creates or upgrades all tables.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
