package handle

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Marker prepended to a prefix to form a naming-authority handle, eg "0.NA/10673".
const NAMarker = "0.NA/"

// max length of a handle in bytes; longer input is rejected before any lookup
const maxHandleLen = 4096

// String type which represents a syntactically valid handle, of the form "<prefix>/<suffix>".
//
// Always use [ParseHandle] instead of wrapping strings directly, especially when working with input.
type Handle string

// Naming authority portion of a handle. Prefixes are case-sensitive and compared by exact string equality.
type Prefix string

func ParseHandle(raw string) (Handle, error) {
	if raw == "" {
		return "", errors.New("expected handle, got empty string")
	}
	if len(raw) > maxHandleLen {
		return "", fmt.Errorf("handle is too long (%d bytes max)", maxHandleLen)
	}
	if !utf8.ValidString(raw) {
		return "", errors.New("handle is not valid UTF-8")
	}
	if strings.HasPrefix(raw, "/") {
		return "", fmt.Errorf("handle has empty prefix: %s", raw)
	}
	return Handle(raw), nil
}

// Parses a naming-authority handle ("0.NA/<prefix>") and returns the prefix it refers to. Input without the "0.NA/" marker is treated as a bare prefix.
func ParseNAHandle(raw string) (Prefix, error) {
	p := strings.TrimPrefix(raw, NAMarker)
	return ParsePrefix(p)
}

func ParsePrefix(raw string) (Prefix, error) {
	if raw == "" {
		return "", errors.New("expected prefix, got empty string")
	}
	if len(raw) > maxHandleLen {
		return "", fmt.Errorf("prefix is too long (%d bytes max)", maxHandleLen)
	}
	if !utf8.ValidString(raw) {
		return "", errors.New("prefix is not valid UTF-8")
	}
	if strings.Contains(raw, "/") {
		return "", fmt.Errorf("prefix can not contain '/': %s", raw)
	}
	return Prefix(raw), nil
}

// The portion before the first '/'. A handle without any '/' is all prefix.
func (h Handle) Prefix() Prefix {
	p, _, _ := strings.Cut(string(h), "/")
	return Prefix(p)
}

// The portion after the first '/', or empty string.
func (h Handle) Suffix() string {
	_, s, _ := strings.Cut(string(h), "/")
	return s
}

func (h Handle) String() string {
	return string(h)
}

func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Handle) UnmarshalText(text []byte) error {
	hdl, err := ParseHandle(string(text))
	if err != nil {
		return err
	}
	*h = hdl
	return nil
}

// Returns the "0.NA/<prefix>" handle for this prefix.
func (p Prefix) NAHandle() Handle {
	return Handle(NAMarker + string(p))
}

func (p Prefix) String() string {
	return string(p)
}
