package postgres

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// Tables lists every table the schema creates, in creation order.
var Tables = []string{
	"users",
	"roles",
	"permissions",
	"user_roles",
	"role_permissions",
	"system_config",
	"revoked_tokens",
	"settings",
	"storage_volumes",
	"files",
	"user_quotas",
	"app_quotas",
	"audit_events",
}

// Migrate applies the idempotent schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schemaSQL); err != nil {
		return errFailedApplySchema(err)
	}
	return nil
}

// MissingTables reports which of Tables do not exist in the public schema.
func (db *DB) MissingTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`

	var missing []string
	for _, table := range Tables {
		var exists bool
		if err := db.Pool.QueryRow(ctx, query, table).Scan(&exists); err != nil {
			return nil, errFailedCheckTable(err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
