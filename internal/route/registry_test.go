package route

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPublic(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(`/api/v1/users/[^/]+`, http.MethodGet, false)
	r.MustRegister(`/api/v1/auth/login`, http.MethodPost, true)
	r.MustRegister(`/api/v1/public/[^/]+`, http.MethodGet, true)
	r.MustRegister(`/checkalive`, http.MethodGet, true)
	r.Seal()

	testCases := []struct {
		name     string
		path     string
		method   string
		expected bool
	}{
		{"protected id route", "/api/v1/users/abc123", http.MethodGet, false},
		{"trailing segment not tolerated", "/api/v1/public/abc123/extra", http.MethodGet, false},
		{"public id route", "/api/v1/public/abc123", http.MethodGet, true},
		{"public login", "/api/v1/auth/login", http.MethodPost, true},
		{"trailing slash", "/api/v1/auth/login/", http.MethodPost, true},
		{"method mismatch", "/api/v1/auth/login", http.MethodGet, false},
		{"lower case method", "/api/v1/auth/login", "post", true},
		{"head follows get", "/checkalive", http.MethodHead, true},
		{"prefix is not a match", "/api/v1/auth/login/x", http.MethodPost, false},
		{"unknown route", "/nowhere", http.MethodGet, false},
		{"empty path", "", http.MethodGet, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, r.IsPublic(tc.path, tc.method))
		})
	}
}

func TestIdSegmentDoesNotMatchDeeperPaths(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(`/api/v1/users/[^/]+`, http.MethodGet, true)
	r.Seal()

	assert.True(t, r.IsPublic("/api/v1/users/abc123", http.MethodGet))
	assert.False(t, r.IsPublic("/api/v1/users/abc123/extra", http.MethodGet))
	assert.False(t, r.IsPublic("/api/v1/users/", http.MethodGet))
}

func TestRegistryFailsClosedBeforeSeal(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(`/checkalive`, http.MethodGet, true))

	assert.False(t, r.Sealed())
	assert.False(t, r.IsPublic("/checkalive", http.MethodGet))
	assert.Len(t, r.Routes(), 1)

	r.Seal()
	r.Seal()

	assert.True(t, r.Sealed())
	assert.True(t, r.IsPublic("/checkalive", http.MethodGet))
}

func TestRegisterAfterSeal(t *testing.T) {
	r := NewRegistry()
	r.Seal()

	err := r.Register(`/late`, http.MethodGet, true)
	require.ErrorIs(t, err, ErrSealed)
	assert.False(t, r.IsPublic("/late", http.MethodGet))
	assert.Empty(t, r.Routes())
}

func TestRegisterRejectsBadInput(t *testing.T) {
	r := NewRegistry()

	require.ErrorIs(t, r.Register(`/broken/(`, http.MethodGet, true), ErrInvalidPattern)
	require.ErrorIs(t, r.Register(`/ok`, " ", true), ErrInvalidMethod)

	assert.Panics(t, func() { r.MustRegister(`[`, http.MethodGet, true) })
}

func TestConcurrentLookups(t *testing.T) {
	r := NewRegistry()
	for i := range 50 {
		r.MustRegister(fmt.Sprintf(`/api/v1/feature%d/[^/]+`, i), http.MethodGet, i%2 == 0)
	}

	r.Seal()

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			path := fmt.Sprintf("/api/v1/feature%d/x", i)
			assert.Equal(t, i%2 == 0, r.IsPublic(path, http.MethodGet))
		}()
	}

	wg.Wait()
}
