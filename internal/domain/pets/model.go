package pets

import "time"

// Pet representa una mascota registrada en la tienda.
type Pet struct {
	ID int64

	Name      string
	Breed     string
	Age       int
	OwnerName string

	CreatedAt time.Time
	UpdatedAt time.Time
}
