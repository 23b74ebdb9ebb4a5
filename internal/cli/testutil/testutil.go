// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"

	// sqlite driver for seeding test databases.
	_ "modernc.org/sqlite"
)

// ShopSchema creates and fills the tables of the test project database.
var ShopSchema = []string{
	`CREATE TABLE customers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		region TEXT
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		customer_id INTEGER REFERENCES customers(id),
		amount REAL,
		quantity INTEGER,
		ordered_on DATE
	)`,
	`INSERT INTO customers (id, name, region) VALUES
		(1, 'Alice', 'east'),
		(2, 'Bob', 'east'),
		(3, 'Carol', 'west')`,
	`INSERT INTO orders (customer_id, amount, quantity, ordered_on) VALUES
		(1, 100.5, 1, '2024-01-01'),
		(2, 50.25, 2, '2024-01-02'),
		(3, 200, 4, '2024-01-03')`,
}

// SetupTestProject creates a temporary project with a leapgate.yaml and a
// seeded sqlite database. It returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "shop.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, stmt := range ShopSchema {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("failed to seed test database: %v", err)
		}
	}

	cfg := `target:
  type: sqlite
  database: shop.db
log:
  level: error
`
	if err := os.WriteFile(filepath.Join(tmpDir, "leapgate.yaml"), []byte(cfg), 0600); err != nil {
		t.Fatalf("failed to create leapgate.yaml: %v", err)
	}

	return tmpDir
}

// ExecuteCommand runs cmd with args and returns captured stdout and stderr.
func ExecuteCommand(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
