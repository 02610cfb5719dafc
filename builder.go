// SPDX-License-Identifier: GPL-3.0-or-later

package mdnscodec

import (
	"math"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// DefaultTTL is the TTL RFC 6762 recommends for records
// containing a host name, such as A, AAAA, and SRV.
const DefaultTTL = 120

// nameProfile is like [idna.Lookup] except that it allows underscores,
// which DNS-SD uses for service labels (e.g., _http._tcp.local).
var nameProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// Query is an mDNS query containing a single question.
//
// Construct using [NewQuery] or set the MANDATORY fields.
type Query struct {
	// Flags OPTIONALLY contains the header flags.
	Flags uint16

	// ID is the OPTIONAL query ID. RFC 6762 requires zero
	// for queries sent to the multicast group.
	ID uint16

	// Name is the MANDATORY domain name to query.
	Name string

	// Type is the query type.
	Type uint16

	// Class is the query class, which is encoded without the flush bit.
	Class uint16
}

// NewQuery constructs a new [*Query] with safe defaults.
//
// By default, the query uses zero as the ID and [dns.ClassINET] as the class.
func NewQuery(name string, qtype uint16) *Query {
	return &Query{
		Flags: 0,
		ID:    0,
		Name:  name,
		Type:  qtype,
		Class: dns.ClassINET,
	}
}

// Clone returns a deep copy of the query.
func (q *Query) Clone() *Query {
	return &Query{
		Flags: q.Flags,
		ID:    q.ID,
		Name:  q.Name,
		Type:  q.Type,
		Class: q.Class,
	}
}

// Pack serializes the query.
func (q *Query) Pack() ([]byte, error) {
	// 1. IDNA encode and validate the domain name
	name, err := builderEncodeName(q.Name)
	if err != nil {
		return nil, err
	}

	// 2. serialize header and question
	header := Header{ID: q.ID, Flags: q.Flags, QDCount: 1}
	out := header.Append(make([]byte, 0, HeaderSize+len(name)+4))
	out = append(out, name...)
	out = AppendUint16(out, q.Type)
	out = AppendUint16(out, JoinClass(q.Class, false))
	return out, nil
}

// BuildQuery is a convenience function for packing a [NewQuery].
func BuildQuery(name string, qtype uint16) ([]byte, error) {
	return NewQuery(name, qtype).Pack()
}

// Answer is an mDNS response containing a single answer record.
//
// Construct using [NewAnswer] or set the MANDATORY fields.
type Answer struct {
	// Flags OPTIONALLY contains the header flags.
	Flags uint16

	// ID is the OPTIONAL message ID.
	ID uint16

	// Name is the MANDATORY owner name.
	Name string

	// Type is the record type.
	Type uint16

	// Class is the record class, which is encoded without the flush bit.
	Class uint16

	// TTL is the time to live in seconds.
	TTL uint32

	// Data is the already-serialized record data.
	Data []byte
}

// NewAnswer constructs a new [*Answer] with safe defaults.
//
// By default, the answer is flagged as an authoritative response and
// uses [dns.ClassINET] as the class. Pass [DefaultTTL] as the ttl
// unless you have specific reasons to do otherwise.
func NewAnswer(name string, rtype uint16, rdata []byte, ttl uint32) *Answer {
	return &Answer{
		Flags: FlagResponse | FlagAuthoritative,
		ID:    0,
		Name:  name,
		Type:  rtype,
		Class: dns.ClassINET,
		TTL:   ttl,
		Data:  rdata,
	}
}

// Clone returns a deep copy of the answer.
func (a *Answer) Clone() *Answer {
	return &Answer{
		Flags: a.Flags,
		ID:    a.ID,
		Name:  a.Name,
		Type:  a.Type,
		Class: a.Class,
		TTL:   a.TTL,
		Data:  append([]byte(nil), a.Data...),
	}
}

// Pack serializes the answer.
func (a *Answer) Pack() ([]byte, error) {
	// 1. make sure the data fits RDLENGTH
	if len(a.Data) > math.MaxUint16 {
		return nil, ErrRdataTooLong
	}

	// 2. IDNA encode and validate the domain name
	name, err := builderEncodeName(a.Name)
	if err != nil {
		return nil, err
	}

	// 3. serialize header and record
	header := Header{ID: a.ID, Flags: a.Flags, ANCount: 1}
	out := header.Append(make([]byte, 0, HeaderSize+len(name)+10+len(a.Data)))
	out = append(out, name...)
	out = AppendUint16(out, a.Type)
	out = AppendUint16(out, JoinClass(a.Class, false))
	out = AppendUint32(out, a.TTL)
	out = AppendUint16(out, uint16(len(a.Data)))
	out = append(out, a.Data...)
	return out, nil
}

// BuildAnswer is a convenience function for packing a [NewAnswer].
func BuildAnswer(name string, rtype uint16, rdata []byte, ttl uint32) ([]byte, error) {
	return NewAnswer(name, rtype, rdata, ttl).Pack()
}

func builderEncodeName(name string) ([]byte, error) {
	// Only run IDNA on names that need it, so that ASCII names
	// keep the case chosen by the caller.
	if !builderIsASCII(name) {
		puny, err := nameProfile.ToASCII(name)
		if err != nil {
			return nil, err
		}
		name = puny
	}
	return EncodeName(dns.Fqdn(name))
}

func builderIsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
