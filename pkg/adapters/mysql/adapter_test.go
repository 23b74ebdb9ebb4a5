package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapgate/pkg/adapter"
	"github.com/leapstack-labs/leapgate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMySQLDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
		wantErr  bool
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "db.internal",
				Port:     3307,
				Database: "shop",
				Username: "app",
				Password: "secret",
			},
			expected: "app:secret@tcp(db.internal:3307)/shop?parseTime=true",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "shop", Username: "root"},
			expected: "root@tcp(localhost:3306)/shop?parseTime=true",
		},
		{
			name: "timeout and pass-through params",
			config: adapter.Config{
				Database: "shop",
				Username: "root",
				Options:  map[string]string{"timeout": "5s", "autocommit": "1"},
			},
			expected: "root@tcp(localhost:3306)/shop?parseTime=true&timeout=5s&autocommit=1",
		},
		{
			name: "invalid timeout",
			config: adapter.Config{
				Options: map[string]string{"timeout": "soon"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := buildMySQLDSN(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dsn)
		})
	}
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"}).
			AddRow("id", "int", "NO", nil, 1).
			AddRow("customer_id", "int", "YES", nil, 2))
	mock.ExpectQuery("FROM information_schema.KEY_COLUMN_USAGE").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}).
			AddRow("PRIMARY", "id", "", "").
			AddRow("orders_customer_fk", "customer_id", "customers", "id"))
	mock.ExpectQuery("FROM information_schema.TABLES").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_ROWS"}).AddRow(int64(87)))

	adp := New(nil)
	adp.DB = db
	adp.Cfg = adapter.Config{Database: "shop"}

	meta, err := adp.GetTableMetadata(context.Background(), "orders")
	require.NoError(t, err)

	assert.Equal(t, "shop", meta.Schema)
	assert.Equal(t, []string{"id"}, meta.PrimaryKeys)
	assert.Equal(t, []core.ForeignKey{{Column: "customer_id", ReferencedTable: "customers", ReferencedColumn: "id"}}, meta.ForeignKeys)
	require.NotNil(t, meta.RowCount)
	assert.Equal(t, int64(87), *meta.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_SampleRows_BacktickQuoting(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT * FROM `order``s` LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	adp := New(nil)
	adp.DB = db

	rs, err := adp.SampleRows(context.Background(), "order`s", adapter.SampleLimit)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Len())
}

func TestAdapter_Registry(t *testing.T) {
	require.True(t, adapter.IsRegistered("MySQL"))

	adp, err := adapter.NewAdapter(core.AdapterConfig{Type: "mysql"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", adp.DialectConfig().Name)
}
