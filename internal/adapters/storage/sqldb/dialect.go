package sqldb

import (
	"strconv"
	"strings"
)

// Dialect agrupa lo que cambia entre motores: placeholders y DDL.
type Dialect struct {
	Name string

	// NumberedParams: $1, $2... (Postgres) en lugar de ?.
	NumberedParams bool

	// SingleWriter: el motor serializa escrituras (sqlite).
	SingleWriter bool

	createPetsTable string
}

var Postgres = Dialect{
	Name:           "postgres",
	NumberedParams: true,
	createPetsTable: `
		CREATE TABLE IF NOT EXISTS pets (
			id         BIGSERIAL PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			breed      VARCHAR(255) NOT NULL,
			age        INTEGER NOT NULL,
			owner_name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
}

var SQLite = Dialect{
	Name:         "sqlite",
	SingleWriter: true,
	createPetsTable: `
		CREATE TABLE IF NOT EXISTS pets (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       VARCHAR(255) NOT NULL,
			breed      VARCHAR(255) NOT NULL,
			age        INTEGER NOT NULL,
			owner_name VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
}

// Rebind reescribe los ? de una query al estilo del dialecto.
// Las queries del repo no llevan ? dentro de literales.
func (d Dialect) Rebind(query string) string {
	if !d.NumberedParams {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
