package hdlvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLValueFixedMetadata(t *testing.T) {
	assert := assert.New(t)

	v := NewURLValue("https://example.org/item/1")
	assert.Equal(uint32(100), v.Index)
	assert.Equal("URL", v.TypeString())
	assert.Equal("https://example.org/item/1", v.DataString())
	assert.Equal(TTLTypeRelative, v.TTLType)
	assert.Equal(uint32(100), v.TTL)
	assert.Equal(uint32(100), v.Timestamp)
	assert.Nil(v.References)
	assert.True(v.AdminRead)
	assert.False(v.AdminWrite)
	assert.True(v.PublicRead)
	assert.False(v.PublicWrite)
}

func TestEncodeURLValueLayout(t *testing.T) {
	assert := assert.New(t)

	v := NewURLValue("http://x")
	b := v.Encode()
	expected := []byte{
		0, 0, 0, 100, // index
		0, 0, 0, 100, // timestamp
		0,            // ttl type
		0, 0, 0, 100, // ttl
		0x0a,         // admin read + public read
		0, 0, 0, 3, 'U', 'R', 'L',
		0, 0, 0, 8, 'h', 't', 't', 'p', ':', '/', '/', 'x',
		0, 0, 0, 0, // references
	}
	assert.Equal(expected, b)
	assert.Equal(len(expected), v.EncodedLen())
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	v := &Value{
		Index:       7,
		Type:        []byte("HS_ADMIN"),
		Data:        []byte{0x01, 0x02},
		TTLType:     TTLTypeAbsolute,
		TTL:         86400,
		Timestamp:   1700000000,
		References:  []Reference{{Handle: []byte("0.NA/10673"), Index: 300}},
		AdminRead:   true,
		AdminWrite:  true,
		PublicWrite: true,
	}
	out, err := Decode(v.Encode())
	require.NoError(err)
	assert.Equal(v, out)

	url, err := Decode(NewURLValue("https://example.org/").Encode())
	require.NoError(err)
	assert.Equal("https://example.org/", url.DataString())
	assert.True(url.PublicRead)
	assert.False(url.PublicWrite)
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	full := NewURLValue("https://example.org/").Encode()

	for i := 0; i < len(full); i++ {
		_, err := Decode(full[:i])
		assert.ErrorIs(err, ErrTruncated, "prefix length %d", i)
	}

	_, err := Decode(append(full, 0))
	assert.Error(err)

	// huge reference count with no data behind it
	bad := append([]byte{}, full[:len(full)-4]...)
	bad = append(bad, 0xff, 0xff, 0xff, 0xff)
	_, err = Decode(bad)
	assert.ErrorIs(err, ErrTruncated)
}

func TestURLValueNoSharedBuffers(t *testing.T) {
	assert := assert.New(t)

	v1 := NewURLValue("a")
	v1.Type[0] = 'X'
	v1.Data[0] = 'z'

	v2 := NewURLValue("a")
	assert.Equal("URL", v2.TypeString())
	assert.Equal("a", v2.DataString())
	assert.Equal("URL", TypeURL)
}
