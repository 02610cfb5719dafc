// SPDX-License-Identifier: GPL-3.0-or-later

package listeners

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bassosimone/mdnscodec"
	"github.com/miekg/dns"
)

// Interpret decodes the type-specific data of rr using msg and
// off, as passed to a [mdnscodec.RecordListener]. Because we decode
// from the whole message, compressed names inside the record data
// (e.g., PTR and SRV targets) are resolved.
//
// Unknown types are returned as [*dns.RFC3597].
func Interpret(rr mdnscodec.Record, msg []byte, off int) (dns.RR, error) {
	hdr := dns.RR_Header{
		Name:     rr.Name,
		Rrtype:   rr.Type,
		Class:    mdnscodec.JoinClass(rr.Class, rr.Flush),
		Ttl:      rr.TTL,
		Rdlength: uint16(len(rr.Data)),
	}
	// miekg/dns reads some types (e.g., TXT, NSEC) until the end of the
	// buffer, so we must cut the message where the record data ends
	end := off + len(rr.Data)
	if off < 0 || end > len(msg) {
		return nil, fmt.Errorf("cannot interpret %s record data: %w", dns.Type(rr.Type), mdnscodec.ErrBufferUnderrun)
	}
	out, _, err := dns.UnpackRRWithHeader(hdr, msg[:end], off)
	if err != nil {
		return nil, fmt.Errorf("cannot interpret %s record data: %w", dns.Type(rr.Type), err)
	}
	return out, nil
}

// Describe returns log attributes describing the data of rr.
func Describe(rr dns.RR) []slog.Attr {
	switch v := rr.(type) {
	case *dns.A:
		return []slog.Attr{slog.String("address", v.A.String())}

	case *dns.AAAA:
		return []slog.Attr{slog.String("address", v.AAAA.String())}

	case *dns.PTR:
		return []slog.Attr{slog.String("target", v.Ptr)}

	case *dns.SRV:
		return []slog.Attr{
			slog.Int("priority", int(v.Priority)),
			slog.Int("weight", int(v.Weight)),
			slog.Int("port", int(v.Port)),
			slog.String("target", v.Target),
		}

	case *dns.TXT:
		return []slog.Attr{slog.Any("txt", v.Txt)}

	case *dns.NSEC:
		types := make([]string, 0, len(v.TypeBitMap))
		for _, t := range v.TypeBitMap {
			types = append(types, dns.Type(t).String())
		}
		return []slog.Attr{
			slog.String("next_domain", v.NextDomain),
			slog.Any("types", types),
		}

	case *dns.OPT:
		return []slog.Attr{
			slog.Int("udp_size", int(v.UDPSize())),
			slog.Int("options", len(v.Option)),
		}

	default:
		return []slog.Attr{slog.String("rdata", strings.TrimPrefix(rr.String(), rr.Header().String()))}
	}
}
