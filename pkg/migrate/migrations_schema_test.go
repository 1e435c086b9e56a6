package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/shopledger-backend/pkg/migrate"
)

func TestInitSchemaContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE products",
		"CHECK (units_in_pack >= 1)",
		"CREATE INDEX idx_product_batches_product_number ON product_batches (product_id, batch_number)",
		"CHECK (quantity >= 0)",
		"REFERENCES orders (id) ON DELETE CASCADE",
		"REFERENCES purchases (id) ON DELETE CASCADE",
		"payment_status text NOT NULL DEFAULT 'pending'",
		"CREATE TABLE outbox_events",
		"DROP TABLE IF EXISTS products",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
