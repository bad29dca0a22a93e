package pets

import "context"

// Repository es el almacenamiento de mascotas.
// Create asigna el ID; las operaciones por ID devuelven ErrNotFound si no existe.
type Repository interface {
	Create(ctx context.Context, p Pet) (Pet, error)
	GetByID(ctx context.Context, id int64) (Pet, error)
	List(ctx context.Context, skip, limit int) ([]Pet, error)
	Update(ctx context.Context, p Pet) error
	Delete(ctx context.Context, id int64) error
}
