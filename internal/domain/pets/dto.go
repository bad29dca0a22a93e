package pets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxTextLen = 255

// PetCreate es el cuerpo de POST /petstore/pets. Todos los campos son obligatorios.
type PetCreate struct {
	Name      *string `json:"name" example:"Rex"`
	Breed     *string `json:"breed" example:"Labrador"`
	Age       *int    `json:"age" example:"3"`
	OwnerName *string `json:"owner_name" example:"Ana"`
}

func (r PetCreate) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("field required"),
			validation.By(notBlank),
			validation.RuneLength(1, maxTextLen),
		),
		validation.Field(&r.Breed,
			validation.Required.Error("field required"),
			validation.By(notBlank),
			validation.RuneLength(1, maxTextLen),
		),
		validation.Field(&r.Age,
			validation.NotNil.Error("field required"),
			validation.Min(0).Error("must be greater than or equal to 0"),
		),
		validation.Field(&r.OwnerName,
			validation.Required.Error("field required"),
			validation.By(notBlank),
			validation.RuneLength(1, maxTextLen),
		),
	)
}

func (r PetCreate) toInput() CreateInput {
	return CreateInput{
		Name:      deref(r.Name),
		Breed:     deref(r.Breed),
		Age:       deref(r.Age),
		OwnerName: deref(r.OwnerName),
	}
}

// PetUpdate es el cuerpo de PUT /petstore/pets/{id}.
// Solo se aplican los campos presentes en el JSON; null no está permitido.
type PetUpdate struct {
	Name      *string `json:"name,omitempty" example:"Rex"`
	Breed     *string `json:"breed,omitempty" example:"Labrador"`
	Age       *int    `json:"age,omitempty" example:"4"`
	OwnerName *string `json:"owner_name,omitempty" example:"Ana"`
}

func (r PetUpdate) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.By(notBlank), validation.RuneLength(1, maxTextLen)),
		validation.Field(&r.Breed, validation.NilOrNotEmpty, validation.By(notBlank), validation.RuneLength(1, maxTextLen)),
		validation.Field(&r.Age, validation.Min(0).Error("must be greater than or equal to 0")),
		validation.Field(&r.OwnerName, validation.NilOrNotEmpty, validation.By(notBlank), validation.RuneLength(1, maxTextLen)),
	)
}

func (r PetUpdate) toInput() UpdateInput {
	return UpdateInput{
		Name:      r.Name,
		Breed:     r.Breed,
		Age:       r.Age,
		OwnerName: r.OwnerName,
	}
}

// PetResponse es la proyección completa que devuelve la API.
type PetResponse struct {
	ID        int64     `json:"id" example:"1"`
	Name      string    `json:"name" example:"Rex"`
	Breed     string    `json:"breed" example:"Labrador"`
	Age       int       `json:"age" example:"3"`
	OwnerName string    `json:"owner_name" example:"Ana"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToPetResponse(p Pet) PetResponse {
	return PetResponse{
		ID:        p.ID,
		Name:      p.Name,
		Breed:     p.Breed,
		Age:       p.Age,
		OwnerName: p.OwnerName,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// DecodePetCreate lee y valida el cuerpo de creación.
func DecodePetCreate(body io.Reader) (CreateInput, error) {
	var req PetCreate
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return CreateInput{}, decodeError(err)
	}
	if err := req.Validate(); err != nil {
		return CreateInput{}, fromValidation(err)
	}
	return req.toInput(), nil
}

// DecodePetUpdate detecta presencia de cada campo decodificando primero a un map:
// un struct con punteros no distingue "no enviado" de "null".
func DecodePetUpdate(body io.Reader) (UpdateInput, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return UpdateInput{}, decodeError(err)
	}

	var req PetUpdate
	fields := map[string]string{}
	decodeField(raw, "name", &req.Name, fields)
	decodeField(raw, "breed", &req.Breed, fields)
	decodeField(raw, "age", &req.Age, fields)
	decodeField(raw, "owner_name", &req.OwnerName, fields)

	if err := req.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(fromValidation(err), &verr) {
			for k, v := range verr.Fields {
				if _, exists := fields[k]; !exists {
					fields[k] = v
				}
			}
		}
	}
	if len(fields) > 0 {
		return UpdateInput{}, &ValidationError{Fields: fields}
	}
	return req.toInput(), nil
}

func decodeField[T any](raw map[string]json.RawMessage, key string, dst **T, fields map[string]string) {
	v, ok := raw[key]
	if !ok {
		return
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		fields[key] = "must not be null"
		return
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		fields[key] = "must be a valid " + typeName(out)
		return
	}
	*dst = &out
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, tooLarge.Limit)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return NewValidationError(typeErr.Field, "must be a valid "+kindName(typeErr.Type.Kind()))
	}
	if errors.Is(err, io.EOF) {
		return NewValidationError("body", "field required")
	}
	return NewValidationError("body", "invalid json")
}

func fromValidation(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for k, e := range errs {
		fields[k] = e.Error()
	}
	return &ValidationError{Fields: fields}
}

func notBlank(value any) error {
	iv, _ := validation.Indirect(value)
	s, ok := iv.(string)
	if ok && s != "" && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func kindName(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int64:
		return "integer"
	case reflect.String:
		return "string"
	default:
		return k.String()
	}
}

func typeName(v any) string {
	switch v.(type) {
	case int:
		return "integer"
	case string:
		return "string"
	default:
		return "value"
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
