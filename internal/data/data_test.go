package data

import (
	"context"
	"fmt"
	"testing"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestData opens a private in-memory SQLite database with the schema applied.
func newTestData(t *testing.T) *Data {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	drv, err := entsql.Open(dialect.SQLite, dsn)
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = drv.Close() })

	require.NoError(t, Migrate(context.Background(), drv))
	return NewDataWithDriver(drv)
}
