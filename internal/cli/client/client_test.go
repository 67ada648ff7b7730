package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront-dev/shopfront/internal/cli/auth"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// mockAPI accepts only validToken on /Product routes and rotates tokens on refresh
type mockAPI struct {
	validToken    atomic.Value // string
	refreshCalls  atomic.Int32
	refreshStatus int
	alwaysReject  bool

	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func newMockAPI() *mockAPI {
	m := &mockAPI{}
	m.validToken.Store("access-2")
	return m
}

func (m *mockAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+auth.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		m.refreshCalls.Add(1)
		if m.refreshStatus != 0 {
			w.WriteHeader(m.refreshStatus)
			w.Write([]byte("Invalid refresh token"))
			return
		}
		json.NewEncoder(w).Encode(auth.Credentials{
			AccessToken:        "access-2",
			RefreshToken:       "refresh-2",
			AccessTokenExpiry:  testNow.Add(15 * time.Minute),
			RefreshTokenExpiry: testNow.Add(24 * time.Hour),
			UserID:             "user-1",
			Email:              "admin@example.com",
			IsAdmin:            true,
		})
	})

	mux.HandleFunc("POST "+auth.RevokePath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/Product/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.requests = append(m.requests, r.Clone(context.Background()))
		m.bodies = append(m.bodies, string(body))
		m.mu.Unlock()

		if m.alwaysReject || r.Header.Get("Authorization") != "Bearer "+m.validToken.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Path {
		case "/Product/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Product not found"))
		case "/Product/conflict":
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte("busy"))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"p1","name":"Mug","price":8.5,"stock":3,"productTypeId":"t1"}`))
		}
	})

	return mux
}

func (m *mockAPI) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func newTestClient(t *testing.T, api *mockAPI, creds *auth.Credentials) (*Client, *auth.MemoryStore) {
	t.Helper()

	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	store := auth.NewMemoryStore()
	if creds != nil {
		require.NoError(t, store.Save(creds))
	}

	tokens := auth.NewTokenService(srv.URL, store, auth.WithClock(func() time.Time { return testNow }))
	return New(tokens, zerolog.Nop()), store
}

func expiredSession() *auth.Credentials {
	return &auth.Credentials{
		AccessToken:        "access-1",
		RefreshToken:       "refresh-1",
		AccessTokenExpiry:  testNow.Add(-time.Minute),
		RefreshTokenExpiry: testNow.Add(time.Hour),
		UserID:             "user-1",
		Email:              "admin@example.com",
		IsAdmin:            true,
	}
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	api := newMockAPI()
	c, store := newTestClient(t, api, expiredSession())

	resp, err := c.Get(context.Background(), "/Product/p1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, 2, api.requestCount())

	api.mu.Lock()
	assert.Equal(t, "Bearer access-1", api.requests[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer access-2", api.requests[1].Header.Get("Authorization"))
	api.mu.Unlock()

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-2", creds.AccessToken)
}

func TestDo_RetryReplaysBody(t *testing.T) {
	api := newMockAPI()
	c, _ := newTestClient(t, api, expiredSession())

	resp, err := c.Put(context.Background(), "/Product/p1", map[string]string{"name": "Mug"})
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, 2, api.requestCount())
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, `{"name":"Mug"}`, api.bodies[0])
	assert.Equal(t, api.bodies[0], api.bodies[1])
	assert.Equal(t, "application/json", api.requests[1].Header.Get("Content-Type"))
	assert.Equal(t, http.MethodPut, api.requests[1].Method)
}

func TestDo_RefreshFailure(t *testing.T) {
	api := newMockAPI()
	api.refreshStatus = http.StatusBadRequest
	c, store := newTestClient(t, api, expiredSession())

	events, unsubscribe := c.Tokens().Signals().Subscribe()
	defer unsubscribe()

	resp, err := c.Get(context.Background(), "/Product/p1")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, auth.ErrRefreshFailed)

	_, err = store.Load()
	assert.ErrorIs(t, err, auth.ErrNoCredentials)
	assert.Equal(t, 1, api.requestCount(), "no retry after a failed refresh")

	select {
	case ev := <-events:
		assert.Equal(t, auth.EventLoggedOut, ev.Kind)
		assert.Equal(t, auth.LoginRoute, ev.Route)
	case <-time.After(time.Second):
		t.Fatal("expected a logged out event")
	}
}

func TestDo_SecondUnauthorizedIsReturned(t *testing.T) {
	api := newMockAPI()
	api.alwaysReject = true
	c, _ := newTestClient(t, api, expiredSession())

	resp, err := c.Get(context.Background(), "/Product/p1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, 2, api.requestCount())
}

func TestDo_UnauthorizedWithoutRefreshToken(t *testing.T) {
	api := newMockAPI()
	c, _ := newTestClient(t, api, nil)

	resp, err := c.Get(context.Background(), "/Product/p1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(0), api.refreshCalls.Load())

	api.mu.Lock()
	assert.Empty(t, api.requests[0].Header.Get("Authorization"))
	api.mu.Unlock()
}

func TestDo_NonUnauthorizedPassesThrough(t *testing.T) {
	api := newMockAPI()
	session := expiredSession()
	session.AccessToken = "access-2"
	c, _ := newTestClient(t, api, session)

	resp, err := c.Get(context.Background(), "/Product/conflict")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
}

func TestDo_AnonymousSkipsTokens(t *testing.T) {
	api := newMockAPI()
	c, _ := newTestClient(t, api, expiredSession())

	resp, err := c.PostAnonymous(context.Background(), "/Product/p1", map[string]string{})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(0), api.refreshCalls.Load())

	api.mu.Lock()
	assert.Empty(t, api.requests[0].Header.Get("Authorization"))
	api.mu.Unlock()
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	api := newMockAPI()
	c, _ := newTestClient(t, api, expiredSession())

	const callers = 6
	var wg sync.WaitGroup
	statuses := make([]int, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := c.Get(context.Background(), "/Product/p1")
			errs[i] = err
			if err == nil {
				statuses[i] = resp.StatusCode
				resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i])
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	tokens := auth.NewTokenService(srv.URL, auth.NewMemoryStore())
	c := New(tokens, zerolog.Nop())

	_, err := c.Get(context.Background(), "/Product/p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrNetwork)
}

func TestGetProduct(t *testing.T) {
	api := newMockAPI()
	session := expiredSession()
	session.AccessToken = "access-2"
	c, _ := newTestClient(t, api, session)

	product, err := c.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Mug", product.Name)
	assert.Equal(t, 8.5, product.Price)
	assert.Equal(t, "t1", product.ProductTypeID)

	_, err = c.GetProduct(context.Background(), "missing")
	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, http.StatusNotFound, resErr.StatusCode)
	assert.Equal(t, "Product not found", resErr.Message)
}

func TestProductInput_Validate(t *testing.T) {
	valid := ProductInput{Name: "Mug", Price: 8.5, Stock: 3, ProductTypeID: "t1"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *ProductInput)
	}{
		{name: "missing name", mutate: func(p *ProductInput) { p.Name = "" }},
		{name: "negative price", mutate: func(p *ProductInput) { p.Price = -1 }},
		{name: "negative stock", mutate: func(p *ProductInput) { p.Stock = -1 }},
		{name: "bad image url", mutate: func(p *ProductInput) { p.ImageURL = "not a url" }},
		{name: "missing type", mutate: func(p *ProductInput) { p.ProductTypeID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)
			assert.Error(t, input.Validate())
		})
	}
}
