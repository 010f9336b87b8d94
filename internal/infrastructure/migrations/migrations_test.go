package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations_Paired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file %s", name)
		}
	}

	assert.Equal(t, ups, downs)
}

func TestEmbeddedMigrations_PaymentConstraints(t *testing.T) {
	raw, err := fs.ReadFile(files, "sql/000003_create_payments.up.sql")
	require.NoError(t, err)
	sql := string(raw)

	assert.Contains(t, sql, "intent_id       VARCHAR(255)   NOT NULL UNIQUE")
	assert.Contains(t, sql, "event_id         VARCHAR(255) UNIQUE")

	orders, err := fs.ReadFile(files, "sql/000002_create_orders.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(orders), "payment_intent_id VARCHAR(255)  NOT NULL UNIQUE")
}
