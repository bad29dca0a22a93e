package sqldb

import (
	"context"
	"fmt"
)

// EnsureSchema crea la tabla pets si no existe. Idempotente; no hay migraciones.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.sql.ExecContext(ctx, db.dialect.createPetsTable); err != nil {
		return fmt.Errorf("create pets table: %w", err)
	}
	return nil
}
