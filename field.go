// SPDX-License-Identifier: GPL-3.0-or-later

package mdnscodec

import "encoding/binary"

// FlushBit is the bit of the class field that mDNS uses for the
// cache-flush flag in records and the unicast-response flag in questions.
const FlushBit = 0x8000

// SplitClass splits a raw class field into the class value and the flush flag.
func SplitClass(raw uint16) (class uint16, flush bool) {
	return raw &^ FlushBit, raw&FlushBit != 0
}

// JoinClass is the inverse of [SplitClass].
func JoinClass(class uint16, flush bool) uint16 {
	class &^= FlushBit
	if flush {
		class |= FlushBit
	}
	return class
}

// ReadUint16 reads a big-endian uint16 at the given offset.
func ReadUint16(msg []byte, off int) (uint16, error) {
	if off < 0 || len(msg)-off < 2 {
		return 0, ErrBufferUnderrun
	}
	return binary.BigEndian.Uint16(msg[off:]), nil
}

// ReadUint32 reads a big-endian uint32 at the given offset.
func ReadUint32(msg []byte, off int) (uint32, error) {
	if off < 0 || len(msg)-off < 4 {
		return 0, ErrBufferUnderrun
	}
	return binary.BigEndian.Uint32(msg[off:]), nil
}

// AppendUint16 appends v to b using the big-endian byte order.
func AppendUint16(b []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(b, v)
}

// AppendUint32 appends v to b using the big-endian byte order.
func AppendUint32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

// cursor walks a message using checked reads only.
//
// A failed read leaves the offset unchanged.
type cursor struct {
	msg []byte
	off int
}

func (c *cursor) remaining() int {
	return len(c.msg) - c.off
}

func (c *cursor) uint8() (uint8, error) {
	if c.remaining() < 1 {
		return 0, ErrBufferUnderrun
	}
	v := c.msg[c.off]
	c.off++
	return v, nil
}

func (c *cursor) uint16() (uint16, error) {
	v, err := ReadUint16(c.msg, c.off)
	if err != nil {
		return 0, err
	}
	c.off += 2
	return v, nil
}

func (c *cursor) uint32() (uint32, error) {
	v, err := ReadUint32(c.msg, c.off)
	if err != nil {
		return 0, err
	}
	c.off += 4
	return v, nil
}

// bytes returns a copy of the next n bytes.
func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, ErrBufferUnderrun
	}
	out := make([]byte, n)
	copy(out, c.msg[c.off:c.off+n])
	c.off += n
	return out, nil
}

func (c *cursor) name() (string, error) {
	name, next, err := DecodeName(c.msg, c.off)
	if err != nil {
		return "", err
	}
	c.off = next
	return name, nil
}

func (c *cursor) seek(off int) error {
	if off < 0 || off > len(c.msg) {
		return ErrBufferUnderrun
	}
	c.off = off
	return nil
}
