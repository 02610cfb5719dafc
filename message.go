// SPDX-License-Identifier: GPL-3.0-or-later

package mdnscodec

import "fmt"

// HeaderSize is the size of the fixed message header.
const HeaderSize = 12

// Header flags used by the builder.
const (
	// FlagResponse is the QR bit.
	FlagResponse = 1 << 15

	// FlagAuthoritative is the AA bit.
	FlagAuthoritative = 1 << 10
)

// Header is the fixed-size message header.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse returns whether the QR bit is set.
func (h Header) IsResponse() bool {
	return h.Flags&FlagResponse != 0
}

// ParseHeader decodes the header at the beginning of msg.
func ParseHeader(msg []byte) (Header, error) {
	c := &cursor{msg: msg}
	return decodeHeader(c)
}

func decodeHeader(c *cursor) (Header, error) {
	if c.remaining() < HeaderSize {
		return Header{}, ErrBufferUnderrun
	}
	var (
		h      Header
		fields = []*uint16{&h.ID, &h.Flags, &h.QDCount, &h.ANCount, &h.NSCount, &h.ARCount}
	)
	for _, field := range fields {
		v, err := c.uint16()
		if err != nil {
			return Header{}, err
		}
		*field = v
	}
	return h, nil
}

// Append appends the wire representation of the header to b.
func (h Header) Append(b []byte) []byte {
	b = AppendUint16(b, h.ID)
	b = AppendUint16(b, h.Flags)
	b = AppendUint16(b, h.QDCount)
	b = AppendUint16(b, h.ANCount)
	b = AppendUint16(b, h.NSCount)
	return AppendUint16(b, h.ARCount)
}

// Question is a decoded question.
type Question struct {
	// Name is the fully-qualified name.
	Name string

	// Type is the question type (e.g., dns.TypePTR).
	Type uint16

	// Class is the question class without the [FlushBit].
	Class uint16

	// Flush is true when the [FlushBit] was set. For questions, mDNS
	// uses this bit to request a unicast response.
	Flush bool
}

func decodeQuestion(c *cursor) (Question, error) {
	var q Question
	name, err := c.name()
	if err != nil {
		return Question{}, err
	}
	q.Name = name
	if q.Type, err = c.uint16(); err != nil {
		return Question{}, err
	}
	rawClass, err := c.uint16()
	if err != nil {
		return Question{}, err
	}
	q.Class, q.Flush = SplitClass(rawClass)
	return q, nil
}

// Record is a decoded resource record.
//
// We do not interpret the record data. Listeners receive the whole
// message and the offset of the record data so they can decode it,
// including any compressed name it may contain.
type Record struct {
	// Name is the fully-qualified owner name.
	Name string

	// Type is the record type (e.g., dns.TypeA).
	Type uint16

	// Class is the record class without the [FlushBit].
	Class uint16

	// Flush is true when the cache-flush bit was set.
	Flush bool

	// TTL is the time to live in seconds.
	TTL uint32

	// Data is a copy of the RDLENGTH bytes of record data.
	Data []byte
}

// decodeRecord decodes the record at the cursor and returns it along with
// the offset where its data begins. The cursor is left after the data.
func decodeRecord(c *cursor) (Record, int, error) {
	var rr Record
	name, err := c.name()
	if err != nil {
		return Record{}, 0, err
	}
	rr.Name = name
	if rr.Type, err = c.uint16(); err != nil {
		return Record{}, 0, err
	}
	rawClass, err := c.uint16()
	if err != nil {
		return Record{}, 0, err
	}
	rr.Class, rr.Flush = SplitClass(rawClass)
	if rr.TTL, err = c.uint32(); err != nil {
		return Record{}, 0, err
	}
	rdlength, err := c.uint16()
	if err != nil {
		return Record{}, 0, err
	}
	start := c.off
	if rr.Data, err = c.bytes(int(rdlength)); err != nil {
		return Record{}, 0, err
	}
	return rr, start, nil
}

// Section identifies a message section.
type Section int

// Message sections in wire order.
const (
	SectionHeader Section = iota
	SectionQuestion
	SectionAnswer
	SectionAuthority
	SectionAdditional
)

// String implements fmt.Stringer.
func (s Section) String() string {
	switch s {
	case SectionHeader:
		return "HEADER"
	case SectionQuestion:
		return "QUESTION"
	case SectionAnswer:
		return "ANSWER"
	case SectionAuthority:
		return "AUTHORITY"
	case SectionAdditional:
		return "ADDITIONAL"
	default:
		return fmt.Sprintf("SECTION%d", int(s))
	}
}
