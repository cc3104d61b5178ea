// Package hdlvalue implements handle values and their binary storage encoding, as consumed by a handle-system host server.
package hdlvalue

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Permission bits in the encoded permissions byte.
const (
	PermAdminRead   byte = 0x08
	PermAdminWrite  byte = 0x04
	PermPublicRead  byte = 0x02
	PermPublicWrite byte = 0x01
)

// TTL types
const (
	TTLTypeRelative byte = 0
	TTLTypeAbsolute byte = 1
)

// Fixed metadata for proxied URL values. These are constants, not computed from the remote repository.
const (
	URLValueIndex     = 100
	URLValueTTL       = 100
	URLValueTimestamp = 100
)

// Type name of URL values.
const TypeURL = "URL"

var ErrTruncated = errors.New("handle value encoding truncated")

type Reference struct {
	Handle []byte
	Index  uint32
}

// A single typed value attached to a handle.
type Value struct {
	Index       uint32
	Type        []byte
	Data        []byte
	TTLType     byte
	TTL         uint32
	Timestamp   uint32
	References  []Reference
	AdminRead   bool
	AdminWrite  bool
	PublicRead  bool
	PublicWrite bool
}

// Builds a fresh URL value with the fixed metadata used for every proxied resolution: readable by admin and public, writable by nobody.
func NewURLValue(location string) *Value {
	return &Value{
		Index:       URLValueIndex,
		Type:        []byte(TypeURL),
		Data:        []byte(location),
		TTLType:     TTLTypeRelative,
		TTL:         URLValueTTL,
		Timestamp:   URLValueTimestamp,
		References:  nil,
		AdminRead:   true,
		AdminWrite:  false,
		PublicRead:  true,
		PublicWrite: false,
	}
}

func (v *Value) TypeString() string {
	return string(v.Type)
}

func (v *Value) DataString() string {
	return string(v.Data)
}

func (v *Value) permissions() byte {
	var p byte
	if v.AdminRead {
		p |= PermAdminRead
	}
	if v.AdminWrite {
		p |= PermAdminWrite
	}
	if v.PublicRead {
		p |= PermPublicRead
	}
	if v.PublicWrite {
		p |= PermPublicWrite
	}
	return p
}

// Number of bytes Encode will produce.
func (v *Value) EncodedLen() int {
	// index, timestamp, ttlType, ttl, permissions
	n := 4 + 4 + 1 + 4 + 1
	n += 4 + len(v.Type)
	n += 4 + len(v.Data)
	n += 4
	for _, ref := range v.References {
		n += 4 + len(ref.Handle) + 4
	}
	return n
}

// Encodes the value in the handle storage layout. All integers are big-endian:
//
//	index u32 | timestamp u32 | ttlType u8 | ttl u32 | permissions u8 |
//	len u32, type | len u32, data | count u32, (len u32, handle, index u32)*
func (v *Value) Encode() []byte {
	buf := make([]byte, 0, v.EncodedLen())
	buf = binary.BigEndian.AppendUint32(buf, v.Index)
	buf = binary.BigEndian.AppendUint32(buf, v.Timestamp)
	buf = append(buf, v.TTLType)
	buf = binary.BigEndian.AppendUint32(buf, v.TTL)
	buf = append(buf, v.permissions())
	buf = appendBytes(buf, v.Type)
	buf = appendBytes(buf, v.Data)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(v.References)))
	for _, ref := range v.References {
		buf = appendBytes(buf, ref.Handle)
		buf = binary.BigEndian.AppendUint32(buf, ref.Index)
	}
	return buf
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// Parses a single encoded value. The whole input must be consumed.
func Decode(b []byte) (*Value, error) {
	d := decoder{buf: b}
	var v Value
	v.Index = d.readUint32()
	v.Timestamp = d.readUint32()
	v.TTLType = d.readByte()
	v.TTL = d.readUint32()
	perms := d.readByte()
	v.Type = d.readBytes()
	v.Data = d.readBytes()
	count := d.readUint32()
	if d.err != nil {
		return nil, d.err
	}
	// each reference takes at least 8 bytes
	if uint64(count)*8 > uint64(len(d.buf)-d.off) {
		return nil, fmt.Errorf("%w: %d references declared", ErrTruncated, count)
	}
	for i := uint32(0); i < count; i++ {
		ref := Reference{Handle: d.readBytes(), Index: d.readUint32()}
		v.References = append(v.References, ref)
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(d.buf) {
		return nil, fmt.Errorf("handle value encoding has %d trailing bytes", len(d.buf)-d.off)
	}
	v.AdminRead = perms&PermAdminRead != 0
	v.AdminWrite = perms&PermAdminWrite != 0
	v.PublicRead = perms&PermPublicRead != 0
	v.PublicWrite = perms&PermPublicWrite != 0
	return &v, nil
}

type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || len(d.buf)-d.off < n {
		d.err = fmt.Errorf("%w at offset %d", ErrTruncated, d.off)
		return false
	}
	return true
}

func (d *decoder) readUint32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *decoder) readByte() byte {
	if !d.need(1) {
		return 0
	}
	v := d.buf[d.off]
	d.off++
	return v
}

func (d *decoder) readBytes() []byte {
	n := d.readUint32()
	if !d.need(int(n)) {
		return nil
	}
	v := make([]byte, n)
	copy(v, d.buf[d.off:])
	d.off += int(n)
	return v
}
