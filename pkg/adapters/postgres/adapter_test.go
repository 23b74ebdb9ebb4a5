package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapgate/pkg/adapter"
	"github.com/leapstack-labs/leapgate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name: "defaults",
			config: adapter.Config{
				Database: "mydb",
			},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "custom port with application name",
			config: adapter.Config{
				Host:     "db.example.com",
				Port:     5433,
				Database: "analytics",
				Username: "analyst",
				Options:  map[string]string{"application_name": "leapgate"},
			},
			expected: "host=db.example.com port=5433 dbname=analytics sslmode=disable user=analyst application_name=leapgate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := buildPostgresDSN(tt.config)
			assert.Equal(t, tt.expected, dsn)
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.NotNil(t, adp, "New() should return non-nil adapter")
	assert.Nil(t, adp.DB, "DB should be nil before Connect")
	assert.False(t, adp.IsConnected(), "should not be connected initially")
	assert.Equal(t, "postgres", adp.DialectConfig().Name)
	assert.Equal(t, "$2", adp.DialectConfig().FormatPlaceholder(2))

	var _ adapter.Adapter = adp
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "execute without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Execute(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "list tables without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.ListTables(ctx)
				return err
			},
		},
		{
			name: "get metadata without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.GetTableMetadata(ctx, "users")
				return err
			},
		},
		{
			name: "sample without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.SampleRows(ctx, "users", adapter.SampleLimit)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not established")
		})
	}
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"}).
			AddRow("id", "integer", "NO", "nextval('orders_id_seq'::regclass)", 1).
			AddRow("customer_id", "integer", "YES", nil, 2).
			AddRow("amount", "numeric", "YES", nil, 3))
	mock.ExpectQuery("FROM pg_index").
		WithArgs(`"public"."orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"attname"}).AddRow("id"))
	mock.ExpectQuery("FOREIGN KEY").
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "table_name", "column_name"}).
			AddRow("customer_id", "customers", "id"))
	mock.ExpectQuery("FROM pg_stat_user_tables").
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"n_live_tup"}).AddRow(int64(1200)))

	adp := New(nil)
	adp.DB = db

	meta, err := adp.GetTableMetadata(context.Background(), "orders")
	require.NoError(t, err)

	assert.Equal(t, "public", meta.Schema)
	assert.Equal(t, "orders", meta.Name)
	require.Len(t, meta.Columns, 3)
	assert.Equal(t, "amount", meta.Columns[2].Name)
	assert.Equal(t, []string{"id"}, meta.PrimaryKeys)
	assert.Equal(t, []core.ForeignKey{{Column: "customer_id", ReferencedTable: "customers", ReferencedColumn: "id"}}, meta.ForeignKeys)
	require.NotNil(t, meta.RowCount)
	assert.Equal(t, int64(1200), *meta.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_GetTableMetadata_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"}))

	adp := New(nil)
	adp.DB = db

	_, err = adp.GetTableMetadata(context.Background(), "ghost")
	require.Error(t, err)

	var se *core.StoreError
	assert.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "table ghost not found")
}

func TestAdapter_SampleRows_QuotesIdentifier(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT \* FROM "sales"."Order Lines" LIMIT 5`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	adp := New(nil)
	adp.DB = db

	rs, err := adp.SampleRows(context.Background(), "sales.Order Lines", adapter.SampleLimit)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListTables_UsesConfiguredSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("analytics").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("events"))

	adp := New(nil)
	adp.DB = db
	adp.Cfg = adapter.Config{Schema: "analytics"}

	tables, err := adp.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"events"}, tables)
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("postgres"), "postgres adapter should be registered")

	factory, ok := adapter.Get("postgres")
	require.True(t, ok, "should be able to get postgres factory")

	pg, ok := factory(nil).(*Adapter)
	assert.True(t, ok, "factory should return *Adapter")
	assert.Equal(t, "postgres", pg.DialectConfig().Name)
}

func TestAdapter_Close(t *testing.T) {
	adp := New(nil)
	assert.NoError(t, adp.Close())
}
