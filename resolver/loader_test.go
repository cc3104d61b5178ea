package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hdlnet/hdlproxy/handle"
	"github.com/hdlnet/hdlproxy/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// an address which refuses connections
func deadAddress(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	return addr
}

func TestLoadRegistry(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	c := remote.NewMockClient()
	c.AddRepository("http://repo1/x", "10673", "123456789")
	c.AddRepository("http://repo2/x", "20.500.1")

	reg, err := LoadRegistry(ctx, c, []string{"http://repo1/x", "http://repo2/x"}, nil)
	require.NoError(err)
	assert.Equal(3, reg.Len())

	for _, fix := range []struct {
		prefix   handle.Prefix
		endpoint string
	}{
		{"10673", "http://repo1/x"},
		{"123456789", "http://repo1/x"},
		{"20.500.1", "http://repo2/x"},
	} {
		e, ok := reg.Lookup(fix.prefix)
		assert.True(ok)
		assert.Equal(fix.endpoint, e)
	}
	_, ok := reg.Lookup("99999")
	assert.False(ok)
}

func TestLoadRegistryTolerance(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	a := jsonServer(t, map[string]string{"/listprefixes": `["10673", "123456789"]`})
	b := deadAddress(t)
	cc := jsonServer(t, map[string]string{"/listprefixes": `["555", `})

	client := remote.NewAPIClient(2 * time.Second)
	reg, err := LoadRegistry(ctx, client, []string{a.URL, b, cc.URL, "not a url"}, nil)
	require.NoError(err)
	assert.Equal([]handle.Prefix{"10673", "123456789"}, reg.Prefixes())
	for _, p := range reg.Prefixes() {
		e, _ := reg.Lookup(p)
		assert.Equal(a.URL, e)
	}
}

func TestLoadRegistryEmpty(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	client := remote.NewAPIClient(2 * time.Second)
	reg, err := LoadRegistry(ctx, client, []string{deadAddress(t), deadAddress(t)}, nil)
	assert.ErrorIs(err, ErrRegistryEmpty)
	assert.Equal(0, reg.Len())

	// no endpoints configured at all
	_, err = LoadRegistry(ctx, client, nil, nil)
	assert.ErrorIs(err, ErrRegistryEmpty)

	// repositories which answer, but own nothing
	empty := jsonServer(t, map[string]string{"/listprefixes": `[]`})
	null := jsonServer(t, map[string]string{"/listprefixes": `null`})
	_, err = LoadRegistry(ctx, client, []string{empty.URL, null.URL}, nil)
	assert.ErrorIs(err, ErrRegistryEmpty)
}

func TestLoadRegistryConflict(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	c := remote.NewMockClient()
	c.AddRepository("http://a/x", "123", "1")
	c.AddRepository("http://b/x", "123", "2")

	reg, err := LoadRegistry(ctx, c, []string{"http://a/x", "http://b/x"}, nil)
	require.NoError(err)
	e, _ := reg.Lookup("123")
	assert.Equal("http://b/x", e)
	e, _ = reg.Lookup("1")
	assert.Equal("http://a/x", e)

	// order is what decides, not which answer arrived first
	for i := 0; i < 20; i++ {
		reg, err = LoadRegistry(ctx, c, []string{"http://b/x", "http://a/x"}, nil)
		require.NoError(err)
		e, _ = reg.Lookup("123")
		assert.Equal("http://a/x", e)
	}
}

func TestLoadRegistryPartialFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	c := remote.NewMockClient()
	c.AddRepository("http://a/x", "123")
	c.AddRepository("http://b/x", "123", "456")
	c.Fail("http://b/x", errors.New("connection refused"))

	reg, err := LoadRegistry(ctx, c, []string{"http://a/x", "http://b/x"}, nil)
	require.NoError(err)
	assert.Equal(1, reg.Len())
	e, _ := reg.Lookup("123")
	assert.Equal("http://a/x", e)
	assert.False(reg.Has("456"))
}
