package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	mem "pet-service/internal/adapters/storage/memory"
	"pet-service/internal/middleware"
	"pet-service/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type petBody struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Breed     string    `json:"breed"`
	Age       int       `json:"age"`
	OwnerName string    `json:"owner_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorBody struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors"`
}

func newServer(t *testing.T, opts router.Options) *httptest.Server {
	t.Helper()
	if opts.PetsRepo == nil {
		opts.PetsRepo = mem.NewPetRepo()
	}
	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"http://localhost:3000", "*"}
	}
	ts := httptest.NewServer(router.NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_PetLifecycle(t *testing.T) {
	ts := newServer(t, router.Options{})

	// 1) Alta
	st, body := doReq(t, ts.URL, "POST", "/petstore/pets", map[string]any{
		"name": "Rex", "breed": "Lab", "age": 3, "owner_name": "Ana",
	})
	require.Equal(t, http.StatusCreated, st, string(body))

	var created petBody
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Rex", created.Name)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	// 2) Lectura
	st, body = doReq(t, ts.URL, "GET", "/petstore/pets/1", nil)
	require.Equal(t, http.StatusOK, st, string(body))
	var got petBody
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	// 3) Actualización parcial
	st, body = doReq(t, ts.URL, "PUT", "/petstore/pets/1", map[string]any{"age": 4})
	require.Equal(t, http.StatusOK, st, string(body))
	var updated petBody
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, 4, updated.Age)
	assert.Equal(t, "Rex", updated.Name)
	assert.Equal(t, "Lab", updated.Breed)
	assert.Equal(t, "Ana", updated.OwnerName)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	// 4) Baja
	st, body = doReq(t, ts.URL, "DELETE", "/petstore/pets/1", nil)
	require.Equal(t, http.StatusOK, st, string(body))
	assert.JSONEq(t, `{"message":"Pet 1 deleted successfully"}`, string(body))

	// 5) Ya no existe
	st, body = doReq(t, ts.URL, "GET", "/petstore/pets/1", nil)
	require.Equal(t, http.StatusNotFound, st)
	assert.JSONEq(t, `{"detail":"Pet not found"}`, string(body))
}

func TestHTTP_RootAndHealth(t *testing.T) {
	ts := newServer(t, router.Options{})

	st, body := doReq(t, ts.URL, "GET", "/", nil)
	require.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, `{"message":"Pet Service is running"}`, string(body))

	st, body = doReq(t, ts.URL, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, `{"status":"healthy","service":"pet-service"}`, string(body))
}

func TestHTTP_NotFoundOnEmptyStore(t *testing.T) {
	ts := newServer(t, router.Options{})

	for _, method := range []string{"GET", "DELETE"} {
		st, body := doReq(t, ts.URL, method, "/petstore/pets/999", nil)
		assert.Equal(t, http.StatusNotFound, st, method)
		assert.JSONEq(t, `{"detail":"Pet not found"}`, string(body))
	}

	st, _ := doReq(t, ts.URL, "PUT", "/petstore/pets/999", map[string]any{"age": 1})
	assert.Equal(t, http.StatusNotFound, st)
}

func TestHTTP_CreateValidation(t *testing.T) {
	ts := newServer(t, router.Options{})

	cases := map[string]struct {
		payload any
		field   string
	}{
		"missing age":   {map[string]any{"name": "Rex", "breed": "Lab", "owner_name": "Ana"}, "age"},
		"blank name":    {map[string]any{"name": "  ", "breed": "Lab", "age": 1, "owner_name": "Ana"}, "name"},
		"negative age":  {map[string]any{"name": "Rex", "breed": "Lab", "age": -1, "owner_name": "Ana"}, "age"},
		"age as string": {map[string]any{"name": "Rex", "breed": "Lab", "age": "3", "owner_name": "Ana"}, "age"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			st, body := doReq(t, ts.URL, "POST", "/petstore/pets", tc.payload)
			require.Equal(t, http.StatusUnprocessableEntity, st, string(body))

			var e errorBody
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, "validation failed", e.Detail)
			assert.Contains(t, e.Errors, tc.field)
		})
	}

	st, body := doReq(t, ts.URL, "GET", "/petstore/pets", nil)
	require.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, `[]`, string(body), "rejected creates must not persist")
}

func TestHTTP_UpdateRejectsNullAndKeepsRecord(t *testing.T) {
	ts := newServer(t, router.Options{})
	createPet(t, ts.URL, "Rex")

	st, body := doReq(t, ts.URL, "PUT", "/petstore/pets/1", map[string]any{"name": nil})
	require.Equal(t, http.StatusUnprocessableEntity, st, string(body))

	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "must not be null", e.Errors["name"])

	st, body = doReq(t, ts.URL, "GET", "/petstore/pets/1", nil)
	require.Equal(t, http.StatusOK, st)
	var got petBody
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Rex", got.Name)
}

func TestHTTP_EmptyUpdateOnlyTouchesUpdatedAt(t *testing.T) {
	ts := newServer(t, router.Options{})
	created := createPet(t, ts.URL, "Rex")

	st, body := doReq(t, ts.URL, "PUT", "/petstore/pets/1", map[string]any{})
	require.Equal(t, http.StatusOK, st, string(body))

	var updated petBody
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Age, updated.Age)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestHTTP_OversizedBodyRejected(t *testing.T) {
	repo := mem.NewPetRepo()
	h := router.NewRouter(router.Options{PetsRepo: repo})

	payload := `{"name":"` + strings.Repeat("x", 2<<20) + `","breed":"Lab","age":3,"owner_name":"Ana"}`
	req := httptest.NewRequest(http.MethodPost, "/petstore/pets", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"detail":"Request body too large"}`, rec.Body.String())

	all, err := repo.List(req.Context(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestHTTP_BadPathID(t *testing.T) {
	ts := newServer(t, router.Options{})

	for _, id := range []string{"abc", "0", "-3", "1.5"} {
		st, body := doReq(t, ts.URL, "GET", "/petstore/pets/"+id, nil)
		require.Equal(t, http.StatusUnprocessableEntity, st, id)

		var e errorBody
		require.NoError(t, json.Unmarshal(body, &e))
		assert.Contains(t, e.Errors, "pet_id")
	}
}

func TestHTTP_ListPaging(t *testing.T) {
	ts := newServer(t, router.Options{})
	for i := 0; i < 5; i++ {
		createPet(t, ts.URL, "pet-"+strconv.Itoa(i))
	}

	list := func(query string) []petBody {
		t.Helper()
		st, body := doReq(t, ts.URL, "GET", "/petstore/pets"+query, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		var out []petBody
		require.NoError(t, json.Unmarshal(body, &out))
		return out
	}

	all := list("")
	require.Len(t, all, 5)
	for i, p := range all {
		assert.Equal(t, int64(i+1), p.ID)
	}

	page := list("?skip=1&limit=2")
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].ID)
	assert.Equal(t, int64(3), page[1].ID)

	assert.Empty(t, list("?limit=0"))
	assert.Empty(t, list("?skip=50"))

	huge := list("?skip=1&limit=" + strconv.Itoa(math.MaxInt))
	require.Len(t, huge, 4)
	assert.Equal(t, int64(2), huge[0].ID)

	for _, q := range []string{"?skip=-1", "?limit=-1", "?limit=ten"} {
		st, _ := doReq(t, ts.URL, "GET", "/petstore/pets"+q, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, st, q)
	}
}

func TestHTTP_PreflightAcknowledged(t *testing.T) {
	ts := newServer(t, router.Options{AllowedOrigins: []string{"http://localhost:3000"}})

	cases := map[string]string{
		"/":                "CORS preflight for root",
		"/health":          "CORS preflight for health",
		"/petstore/pets":   "CORS preflight for pets",
		"/petstore/pets/7": "CORS preflight for pet",
	}

	for path, msg := range cases {
		t.Run(path, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodOptions, ts.URL+path, nil)
			require.NoError(t, err)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", "PUT")
			req.Header.Set("Access-Control-Request-Headers", "Content-Type")

			res, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer res.Body.Close()
			body, _ := io.ReadAll(res.Body)

			require.Equal(t, http.StatusOK, res.StatusCode)
			assert.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
			assert.Contains(t, res.Header.Get("Access-Control-Allow-Methods"), "PUT")
			assert.JSONEq(t, `{"message":"`+msg+`"}`, string(body))
		})
	}
}

func TestHTTP_CORSHeadersOnSimpleRequest(t *testing.T) {
	ts := newServer(t, router.Options{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://elsewhere.test")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestHTTP_RateLimitEnabled(t *testing.T) {
	ts := newServer(t, router.Options{
		RateLimit: middleware.RateLimitOptions{RPS: 0.001, Burst: 2},
	})

	for i := 0; i < 2; i++ {
		st, _ := doReq(t, ts.URL, "GET", "/health", nil)
		require.Equal(t, http.StatusOK, st)
	}

	st, body := doReq(t, ts.URL, "GET", "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, st)
	assert.JSONEq(t, `{"detail":"Too many requests"}`, string(body))
}

func TestHTTP_DocsServed(t *testing.T) {
	ts := newServer(t, router.Options{})

	st, body := doReq(t, ts.URL, "GET", "/docs/doc.json", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), "/petstore/pets/{petID}")
}

func createPet(t *testing.T, baseURL, name string) petBody {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/petstore/pets", map[string]any{
		"name": name, "breed": "Lab", "age": 3, "owner_name": "Ana",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var p petBody
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("create pet: %v body=%s", err, string(body))
	}
	return p
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
