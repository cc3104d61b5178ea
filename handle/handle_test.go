package handle

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInteropHandlesValid(t *testing.T) {
	assert := assert.New(t)
	file, err := os.Open("testdata/handle_syntax_valid.txt")
	assert.NoError(err)
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		_, err := ParseHandle(line)
		if err != nil {
			fmt.Println("GOOD: " + line)
		}
		assert.NoError(err)
	}
	assert.NoError(scanner.Err())
}

func TestInteropHandlesInvalid(t *testing.T) {
	assert := assert.New(t)
	file, err := os.Open("testdata/handle_syntax_invalid.txt")
	assert.NoError(err)
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		_, err := ParseHandle(line)
		if err == nil {
			fmt.Println("BAD: " + line)
		}
		assert.Error(err)
	}
	assert.NoError(scanner.Err())

	_, err = ParseHandle("")
	assert.Error(err)
	_, err = ParseHandle("1/" + strings.Repeat("a", 5000))
	assert.Error(err)
}

func TestHandleParts(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		raw    string
		prefix Prefix
		suffix string
	}{
		{raw: "10673/1", prefix: "10673", suffix: "1"},
		{raw: "10673/a/b", prefix: "10673", suffix: "a/b"},
		{raw: "20.500.12345/x", prefix: "20.500.12345", suffix: "x"},
		{raw: "10673", prefix: "10673", suffix: ""},
		{raw: "10673/", prefix: "10673", suffix: ""},
	}

	for _, fix := range fixtures {
		h, err := ParseHandle(fix.raw)
		assert.NoError(err)
		assert.Equal(fix.prefix, h.Prefix())
		assert.Equal(fix.suffix, h.Suffix())
		assert.Equal(fix.raw, h.String())
	}
}

func TestParseNAHandle(t *testing.T) {
	assert := assert.New(t)

	p, err := ParseNAHandle("0.NA/10673")
	assert.NoError(err)
	assert.Equal(Prefix("10673"), p)
	assert.Equal(Handle("0.NA/10673"), p.NAHandle())

	// bare prefix is accepted as well
	p, err = ParseNAHandle("123456789")
	assert.NoError(err)
	assert.Equal(Prefix("123456789"), p)

	// prefixes are case-sensitive, marker match is exact
	p, err = ParseNAHandle("0.na/ABC")
	assert.Error(err)

	_, err = ParseNAHandle("0.NA/")
	assert.Error(err)
	_, err = ParseNAHandle("0.NA/10673/1")
	assert.Error(err)
}

func TestHandleTextMarshal(t *testing.T) {
	assert := assert.New(t)

	var h Handle
	assert.NoError(h.UnmarshalText([]byte("10673/1")))
	assert.Equal(Handle("10673/1"), h)
	b, err := h.MarshalText()
	assert.NoError(err)
	assert.Equal("10673/1", string(b))
	assert.Error(h.UnmarshalText([]byte("/1")))
}
