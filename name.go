// SPDX-License-Identifier: GPL-3.0-or-later

package mdnscodec

import "strings"

const (
	// MaxPointerDepth is the maximum number of compression pointers
	// we follow when decoding a single name.
	MaxPointerDepth = 128

	// maxLabelLength is the maximum length of a single label.
	maxLabelLength = 63

	// maxNameLength is the maximum wire length of a name.
	maxNameLength = 255
)

// DecodeName decodes the possibly-compressed name starting at off.
//
// On success, it returns the dot-joined labels including the trailing dot
// and the offset of the first byte following the name. When the name ends
// with a compression pointer, the returned offset is the one following the
// two pointer bytes, regardless of where the pointer leads. The root name
// decodes as ".".
//
// Label bytes are copied verbatim without escaping. Hence, a single label
// containing a dot (e.g., "a.b") decodes to the same string as the two
// labels "a" and "b". Use [github.com/miekg/dns.UnpackDomainName] when
// you need the escaped presentation format.
//
// On failure, it returns an empty name and off. The error is one of
// [ErrBufferUnderrun], [ErrMalformedPointer], and [ErrInvalidLabel].
func DecodeName(msg []byte, off int) (string, int, error) {
	if off < 0 || off >= len(msg) {
		return "", off, ErrBufferUnderrun
	}
	nd := &nameDecoder{msg: msg, budget: len(msg)}
	next, err := nd.decode(off, 0)
	if err != nil {
		return "", off, err
	}
	if nd.sb.Len() <= 0 {
		return ".", next, nil
	}
	return nd.sb.String(), next, nil
}

// nameDecoder holds the state shared by all the indirections
// followed while decoding a single name.
type nameDecoder struct {
	msg []byte
	sb  strings.Builder

	// budget is the number of bytes we can still read across all the
	// indirections. Backward-only pointers never read a byte twice, so
	// a well-formed name never exhausts a budget equal to len(msg).
	budget int
}

func (nd *nameDecoder) consume(n int) error {
	if nd.budget -= n; nd.budget < 0 {
		return ErrMalformedPointer
	}
	return nil
}

// decode appends the labels at off and returns the offset following the
// name as seen by the caller that started decoding at off.
func (nd *nameDecoder) decode(off int, depth int) (int, error) {
	for {
		if off >= len(nd.msg) {
			return 0, ErrBufferUnderrun
		}
		length := int(nd.msg[off])

		switch length & 0xC0 {
		case 0x00:
			// a truncated label is an underrun even when the budget is also exhausted
			if len(nd.msg)-off-1 < length {
				return 0, ErrBufferUnderrun
			}
			if err := nd.consume(1 + length); err != nil {
				return 0, err
			}
			if length == 0 {
				return off + 1, nil
			}
			off++
			nd.sb.Write(nd.msg[off : off+length])
			nd.sb.WriteByte('.')
			off += length

		case 0xC0:
			if len(nd.msg)-off < 2 {
				return 0, ErrBufferUnderrun
			}
			if err := nd.consume(2); err != nil {
				return 0, err
			}
			target := (length&0x3F)<<8 | int(nd.msg[off+1])
			if target >= len(nd.msg) || depth >= MaxPointerDepth {
				return 0, ErrMalformedPointer
			}
			if _, err := nd.decode(target, depth+1); err != nil {
				return 0, err
			}
			return off + 2, nil

		default:
			return 0, ErrInvalidLabel
		}
	}
}

// EncodeName encodes name as a sequence of uncompressed labels.
//
// The trailing dot is optional. Both "" and "." encode the root name.
func EncodeName(name string) ([]byte, error) {
	return AppendName(nil, name)
}

// AppendName is like [EncodeName] but appends to b.
//
// On failure, it returns b unmodified and [ErrInvalidName].
func AppendName(b []byte, name string) ([]byte, error) {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return append(b, 0), nil
	}
	out := b
	for label := range strings.SplitSeq(name, ".") {
		if len(label) <= 0 || len(label) > maxLabelLength {
			return b, ErrInvalidName
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)
	if len(out)-len(b) > maxNameLength {
		return b, ErrInvalidName
	}
	return out, nil
}
