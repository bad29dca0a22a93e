package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout = 5 * time.Second

	maxResponseBytes = 1 << 20
)

// Client habla con la API del pet service. Lo usan cmd/healthcheck y los
// tests de punta a punta.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL = strings.TrimSpace(baseURL)
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// HTTPError es una respuesta no-2xx. Detail viene del cuerpo {"detail": ...}.
type HTTPError struct {
	StatusCode int
	Detail     string
	Errors     map[string]string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("http error: status=%d detail=%s", e.StatusCode, e.Detail)
	}
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsStatus indica si err es un HTTPError con ese status.
func IsStatus(err error, status int) bool {
	var herr *HTTPError
	return errors.As(err, &herr) && herr.StatusCode == status
}

type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Pet es la vista que devuelve la API.
type Pet struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Breed     string    `json:"breed"`
	Age       int       `json:"age"`
	OwnerName string    `json:"owner_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewPet struct {
	Name      string `json:"name"`
	Breed     string `json:"breed"`
	Age       int    `json:"age"`
	OwnerName string `json:"owner_name"`
}

// PetChanges: campos nil no se envían.
type PetChanges struct {
	Name      *string `json:"name,omitempty"`
	Breed     *string `json:"breed,omitempty"`
	Age       *int    `json:"age,omitempty"`
	OwnerName *string `json:"owner_name,omitempty"`
}

// Health consulta GET /health y exige status "healthy".
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.DoJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return Health{}, err
	}
	if out.Status != "healthy" {
		return out, fmt.Errorf("service reports status %q", out.Status)
	}
	return out, nil
}

func (c *Client) CreatePet(ctx context.Context, in NewPet) (Pet, error) {
	var out Pet
	err := c.DoJSON(ctx, http.MethodPost, "/petstore/pets", in, &out)
	return out, err
}

func (c *Client) GetPet(ctx context.Context, id int64) (Pet, error) {
	var out Pet
	err := c.DoJSON(ctx, http.MethodGet, fmt.Sprintf("/petstore/pets/%d", id), nil, &out)
	return out, err
}

func (c *Client) ListPets(ctx context.Context, skip, limit int) ([]Pet, error) {
	q := url.Values{}
	q.Set("skip", fmt.Sprint(skip))
	q.Set("limit", fmt.Sprint(limit))

	out := make([]Pet, 0)
	err := c.DoJSON(ctx, http.MethodGet, "/petstore/pets?"+q.Encode(), nil, &out)
	return out, err
}

func (c *Client) UpdatePet(ctx context.Context, id int64, in PetChanges) (Pet, error) {
	var out Pet
	err := c.DoJSON(ctx, http.MethodPut, fmt.Sprintf("/petstore/pets/%d", id), in, &out)
	return out, err
}

func (c *Client) DeletePet(ctx context.Context, id int64) error {
	return c.DoJSON(ctx, http.MethodDelete, fmt.Sprintf("/petstore/pets/%d", id), nil, nil)
}

// DoJSON envía in como JSON (si no es nil) y decodifica la respuesta en out
// (si no es nil). Cada request lleva su propio X-Request-ID.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	if c == nil || c.HTTP == nil {
		return errors.New("httpclient: nil client")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		var payload struct {
			Detail string            `json:"detail"`
			Errors map[string]string `json:"errors"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			herr.Detail = payload.Detail
			herr.Errors = payload.Errors
		}
		return herr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}
