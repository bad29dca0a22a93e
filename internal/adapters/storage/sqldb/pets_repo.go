package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pet-service/internal/domain/pets"
)

const petColumns = `id, name, breed, age, owner_name, created_at, updated_at`

type PetsRepo struct {
	db *DB
}

func NewPetsRepo(db *DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) query(q string) string { return r.db.dialect.Rebind(q) }

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	err := r.db.sql.QueryRowContext(ctx, r.query(`
		INSERT INTO pets (name, breed, age, owner_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		p.Name,
		p.Breed,
		p.Age,
		p.OwnerName,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	).Scan(&p.ID)
	if err != nil {
		return pets.Pet{}, fmt.Errorf("insert pet: %w", err)
	}
	return p, nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	row := r.db.sql.QueryRowContext(ctx, r.query(`
		SELECT `+petColumns+`
		FROM pets
		WHERE id = ?
	`), id)

	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, fmt.Errorf("get pet %d: %w", id, err)
	}
	return p, nil
}

func (r *PetsRepo) List(ctx context.Context, skip, limit int) ([]pets.Pet, error) {
	rows, err := r.db.sql.QueryContext(ctx, r.query(`
		SELECT `+petColumns+`
		FROM pets
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`), limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.sql.ExecContext(ctx, r.query(`
		UPDATE pets
		SET
			name = ?,
			breed = ?,
			age = ?,
			owner_name = ?,
			updated_at = ?
		WHERE id = ?
	`),
		p.Name,
		p.Breed,
		p.Age,
		p.OwnerName,
		p.UpdatedAt.UTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update pet %d: %w", p.ID, err)
	}
	return expectOneRow(res)
}

func (r *PetsRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.sql.ExecContext(ctx, r.query(`DELETE FROM pets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete pet %d: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPet(s scanner) (pets.Pet, error) {
	var p pets.Pet
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Breed,
		&p.Age,
		&p.OwnerName,
		utcTime{&p.CreatedAt},
		utcTime{&p.UpdatedAt},
	); err != nil {
		return pets.Pet{}, err
	}
	return p, nil
}

// utcTime normaliza timestamps a UTC. sqlite puede devolver DATETIME como texto
// según cómo se haya escrito la fila; Postgres devuelve hora local.
type utcTime struct {
	t *time.Time
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (u utcTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*u.t = v.UTC()
		return nil
	case string:
		return u.parse(v)
	case []byte:
		return u.parse(string(v))
	case nil:
		return errors.New("timestamp is null")
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (u utcTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*u.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
