package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/hdlnet/hdlproxy/handle"

	"github.com/stretchr/testify/assert"
)

func TestMockClient(t *testing.T) {
	var err error
	assert := assert.New(t)
	ctx := context.Background()
	c := NewMockClient()

	// first, no repositories at all
	_, err = c.ListPrefixes(ctx, "http://repo1/x")
	assert.ErrorIs(err, ErrRequestFailed)

	loc := "https://example.org/item/1"
	c.AddRepository("http://repo1/x", "10673")
	c.InsertHandle("http://repo1/x", "10673/1", &loc)
	c.InsertHandle("http://repo1/x", "10673/999", nil)
	c.AddRepository("http://repo2/x", "123")
	c.Fail("http://repo2/x", errors.New("connection refused"))

	prefixes, err := c.ListPrefixes(ctx, "http://repo1/x")
	assert.NoError(err)
	assert.Equal([]handle.Prefix{"10673"}, prefixes)

	handles, err := c.ListHandles(ctx, "http://repo1/x", "10673")
	assert.NoError(err)
	assert.Equal([]handle.Handle{"10673/1", "10673/999"}, handles)

	out, err := c.Resolve(ctx, "http://repo1/x", "10673/1")
	assert.NoError(err)
	first, ok := FirstCandidate(out)
	assert.True(ok)
	assert.Equal(loc, first)

	out, err = c.Resolve(ctx, "http://repo1/x", "10673/999")
	assert.NoError(err)
	_, ok = FirstCandidate(out)
	assert.False(ok)

	out, err = c.Resolve(ctx, "http://repo1/x", "10673/unknown")
	assert.NoError(err)
	assert.Empty(out)

	_, err = c.ListPrefixes(ctx, "http://repo2/x")
	assert.ErrorIs(err, ErrRequestFailed)
	_, err = c.Resolve(ctx, "http://repo2/x", "123/1")
	assert.ErrorIs(err, ErrRequestFailed)

	assert.Equal(int64(8), c.Calls())
}
