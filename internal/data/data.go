package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"link-shortener/internal/conf"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewSubstrate,
	NewLinkRepo,
	NewIdempotencyRepo,
	NewUnitOfWork,
	NewLinkCache,
	NewWindowCounter,
)

// Data holds the connection to the authoritative store.
type Data struct {
	db *entsql.Driver
}

// NewData opens the configured database and migrates the schema.
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if c == nil || c.Database == nil {
		return nil, nil, errors.New("database configuration is missing")
	}

	drv, err := openDriver(c.Database)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := Migrate(ctx, drv); err != nil {
		_ = drv.Close()
		return nil, nil, err
	}

	d := &Data{db: drv}

	cleanup := func() {
		helper.Info("closing the data resources")
		if err := d.db.Close(); err != nil {
			helper.Error(err)
		}
	}

	return d, cleanup, nil
}

// NewDataWithDriver wraps an already opened and migrated driver.
func NewDataWithDriver(drv *entsql.Driver) *Data {
	return &Data{db: drv}
}

// Dialect returns the SQL dialect of the underlying database.
func (d *Data) Dialect() string {
	return d.db.Dialect()
}

// conn returns the transaction carried by ctx, or the shared driver.
func (d *Data) conn(ctx context.Context) dialect.ExecQuerier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return d.db
}

func openDriver(c *conf.Database) (*entsql.Driver, error) {
	driver := c.Driver
	switch driver {
	case dialect.SQLite, dialect.Postgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	drv, err := entsql.Open(driver, c.Source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db := drv.DB()
	if driver == dialect.SQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return drv, nil
}
