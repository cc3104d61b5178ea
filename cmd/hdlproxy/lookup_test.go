package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hdlnet/hdlproxy/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepository(t *testing.T) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/x/listprefixes":       `["10673"]`,
		"/x/listhandles/10673":  `["10673/1", "10673/2"]`,
		"/x/resolve/10673/1":    `["https://example.org/item/1"]`,
		"/x/resolve/10673/gone": `[null]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.EscapedPath()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runCommand(t *testing.T, endpoint string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	argv := append([]string{"hdlproxy", "--log-level", "error", "--endpoint", endpoint}, args...)
	err := app.Run(argv)
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	endpoint := testRepository(t).URL + "/x"

	out, err := runCommand(t, endpoint, "resolve", "10673/1")
	require.NoError(err)
	assert.Equal("https://example.org/item/1\n", out)

	_, err = runCommand(t, endpoint, "resolve", "10673/gone")
	assert.ErrorIs(err, resolver.ErrHandleNotFound)

	_, err = runCommand(t, endpoint, "resolve", "99999/1")
	assert.ErrorIs(err, resolver.ErrHandleNotFound)

	_, err = runCommand(t, endpoint, "resolve")
	assert.Error(err)
}

func TestHaveNACommand(t *testing.T) {
	assert := assert.New(t)
	endpoint := testRepository(t).URL + "/x"

	for arg, want := range map[string]string{
		"0.NA/10673": "true\n",
		"10673":      "true\n",
		"0.NA/99999": "false\n",
	} {
		out, err := runCommand(t, endpoint, "have-na", arg)
		assert.NoError(err, arg)
		assert.Equal(want, out, arg)
	}
}

func TestListCommands(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	endpoint := testRepository(t).URL + "/x"

	out, err := runCommand(t, endpoint, "list-handles", "0.NA/10673")
	require.NoError(err)
	assert.Equal([]string{"10673/1", "10673/2"}, strings.Fields(out))

	out, err = runCommand(t, endpoint, "list-prefixes")
	require.NoError(err)
	var entries []resolver.Entry
	require.NoError(json.Unmarshal([]byte(out), &entries))
	assert.Equal([]resolver.Entry{{Prefix: "10673", Endpoint: endpoint}}, entries)
}

func TestCommandUnreachableRepository(t *testing.T) {
	srv := testRepository(t)
	endpoint := srv.URL + "/x"
	srv.Close()

	_, err := runCommand(t, endpoint, "resolve", "10673/1")
	assert.ErrorIs(t, err, resolver.ErrRegistryEmpty)
}
