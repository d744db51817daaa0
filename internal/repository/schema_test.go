package repository

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The repository queries and scripts/schema.sql must agree on column names;
// a drift between them only surfaces at runtime against a real database.
func loadSchema(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("../../scripts/schema.sql")
	require.NoError(t, err)
	return string(raw)
}

func tableDDL(t *testing.T, schema, table string) string {
	t.Helper()
	re := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\n\);`)
	match := re.FindStringSubmatch(schema)
	require.NotNil(t, match, "schema.sql must define table %s", table)
	return match[1]
}

func TestSchemaDefinesRepositoryColumns(t *testing.T) {
	schema := loadSchema(t)

	tables := map[string][]string{
		"users":           strings.Split(userColumns, ", "),
		"attendance_days": strings.Split(dayColumns, ", "),
		"break_periods": {
			"id", "day_id", "started_at", "ended_at", "created_at", "updated_at",
		},
		"correction_requests": strings.Split(correctionColumns, ", "),
		"refresh_tokens": {
			"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent",
		},
	}

	for table, columns := range tables {
		ddl := tableDDL(t, schema, table)
		for _, column := range columns {
			require.Contains(t, ddl, column, "table %s is missing column %s", table, column)
		}
	}
}

func TestSchemaEnforcesPendingCorrectionLock(t *testing.T) {
	schema := loadSchema(t)
	require.Contains(t, schema, "idx_correction_requests_pending")
	require.Contains(t, schema, "WHERE status = 'PENDING'")
}
