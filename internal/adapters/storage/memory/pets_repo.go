package memory

import (
	"context"
	"sort"
	"sync"

	"pet-service/internal/domain/pets"
)

// PetRepo guarda mascotas en memoria. Sirve para dev (DATABASE_URL=memory://)
// y tests; se pierde todo al reiniciar.
type PetRepo struct {
	mu     sync.RWMutex
	byID   map[int64]pets.Pet
	nextID int64
}

func NewPetRepo() *PetRepo {
	return &PetRepo{
		byID:   make(map[int64]pets.Pet),
		nextID: 1,
	}
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.nextID
	r.nextID++
	r.byID[p.ID] = p
	return p, nil
}

func (r *PetRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func (r *PetRepo) List(ctx context.Context, skip, limit int) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		all = append(all, p)
	}

	// mismo orden que los repos SQL: id asc
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})

	if skip >= len(all) {
		return []pets.Pet{}, nil
	}
	end := len(all)
	// limit puede venir cerca de MaxInt: no sumar skip+limit
	if limit >= 0 && limit < end-skip {
		end = skip + limit
	}
	return all[skip:end], nil
}

func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return pets.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *PetRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return pets.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// Probe y EnsureSchema existen para que el gate de arranque trate igual a
// todos los backends; en memoria siempre están listos.
func (r *PetRepo) Probe(ctx context.Context) error { return nil }

func (r *PetRepo) EnsureSchema(ctx context.Context) error { return nil }
