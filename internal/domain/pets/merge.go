package pets

import "strings"

// Merge aplica sobre current solo los campos presentes en in.
// ID y timestamps no se tocan aquí.
func Merge(current Pet, in UpdateInput) Pet {
	out := current
	if in.Name != nil {
		out.Name = strings.TrimSpace(*in.Name)
	}
	if in.Breed != nil {
		out.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Age != nil {
		out.Age = *in.Age
	}
	if in.OwnerName != nil {
		out.OwnerName = strings.TrimSpace(*in.OwnerName)
	}
	return out
}
