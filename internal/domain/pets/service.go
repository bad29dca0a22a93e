package pets

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const DefaultListLimit = 100

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name      string
	Breed     string
	Age       int
	OwnerName string
}

// UpdateInput: nil = campo no enviado, no se toca.
type UpdateInput struct {
	Name      *string
	Breed     *string
	Age       *int
	OwnerName *string
}

// timestamp en UTC y a microsegundos: es la precisión de Postgres, así lo que
// devolvemos en Create es idéntico a lo que devuelve un Get posterior.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	if strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Breed) == "" ||
		strings.TrimSpace(in.OwnerName) == "" ||
		in.Age < 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.timestamp()
	p := Pet{
		Name:      strings.TrimSpace(in.Name),
		Breed:     strings.TrimSpace(in.Breed),
		Age:       in.Age,
		OwnerName: strings.TrimSpace(in.OwnerName),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Pet{}, fmt.Errorf("create pet: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Pet, error) {
	if id <= 0 {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List devuelve mascotas ordenadas por id. limit 0 es válido (lista vacía).
func (s *Service) List(ctx context.Context, skip, limit int) ([]Pet, error) {
	if skip < 0 || limit < 0 {
		return nil, ErrInvalidInput
	}
	if limit == 0 {
		return []Pet{}, nil
	}
	return s.repo.List(ctx, skip, limit)
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Pet, error) {
	if err := in.check(); err != nil {
		return Pet{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	updated := Merge(current, in)

	now := s.timestamp()
	if !now.After(current.UpdatedAt) {
		now = current.UpdatedAt.Add(time.Microsecond)
	}
	updated.UpdatedAt = now

	if err := s.repo.Update(ctx, updated); err != nil {
		return Pet{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (in UpdateInput) check() error {
	for _, v := range []*string{in.Name, in.Breed, in.OwnerName} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return ErrInvalidInput
		}
	}
	if in.Age != nil && *in.Age < 0 {
		return ErrInvalidInput
	}
	return nil
}
