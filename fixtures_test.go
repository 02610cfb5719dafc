// SPDX-License-Identifier: GPL-3.0-or-later

package mdnscodec

import (
	"net"

	"github.com/bassosimone/runtimex"
	"github.com/miekg/dns"
)

// fixtureSender is the sender used by tests.
var fixtureSender = &net.UDPAddr{IP: net.IPv4(192, 168, 4, 114), Port: 5353}

func fixtureHeader(name string, rrtype, class uint16, ttl uint32) dns.RR_Header {
	return dns.RR_Header{Name: name, Rrtype: rrtype, Class: class, Ttl: ttl}
}

// newFixtureOneAnswerFourAdditional returns a compressed DNS-SD response
// like the ones printers announce: one PTR answer plus SRV, TXT, A, and
// AAAA additional records, the last four with the cache-flush bit set.
func newFixtureOneAnswerFourAdditional() *dns.Msg {
	msg := new(dns.Msg)
	msg.Response = true
	msg.Authoritative = true
	msg.Compress = true
	msg.Answer = []dns.RR{
		&dns.PTR{
			Hdr: fixtureHeader("_ipp._tcp.local.", dns.TypePTR, dns.ClassINET, 4500),
			Ptr: "Office-Printer._ipp._tcp.local.",
		},
	}
	msg.Extra = []dns.RR{
		&dns.SRV{
			Hdr:      fixtureHeader("Office-Printer._ipp._tcp.local.", dns.TypeSRV, dns.ClassINET|FlushBit, 120),
			Priority: 0,
			Weight:   0,
			Port:     631,
			Target:   "printer.local.",
		},
		&dns.TXT{
			Hdr: fixtureHeader("Office-Printer._ipp._tcp.local.", dns.TypeTXT, dns.ClassINET|FlushBit, 4500),
			Txt: []string{"txtvers=1", "rp=ipp/print"},
		},
		&dns.A{
			Hdr: fixtureHeader("printer.local.", dns.TypeA, dns.ClassINET|FlushBit, 120),
			A:   net.IPv4(192, 168, 4, 114),
		},
		&dns.AAAA{
			Hdr:  fixtureHeader("printer.local.", dns.TypeAAAA, dns.ClassINET|FlushBit, 120),
			AAAA: net.ParseIP("fe80::1"),
		},
	}
	return msg
}

// newFixtureCounts returns a message with one question, two answers,
// and one additional record.
func newFixtureCounts() *dns.Msg {
	msg := new(dns.Msg)
	msg.Compress = true
	msg.SetQuestion("printer.local.", dns.TypeA)
	msg.Answer = []dns.RR{
		&dns.A{Hdr: fixtureHeader("printer.local.", dns.TypeA, dns.ClassINET, 120), A: net.IPv4(192, 168, 4, 114)},
		&dns.A{Hdr: fixtureHeader("printer.local.", dns.TypeA, dns.ClassINET, 120), A: net.IPv4(192, 168, 4, 115)},
	}
	msg.Extra = []dns.RR{
		&dns.AAAA{Hdr: fixtureHeader("printer.local.", dns.TypeAAAA, dns.ClassINET, 120), AAAA: net.ParseIP("fe80::1")},
	}
	return msg
}

func mustPack(msg *dns.Msg) []byte {
	return runtimex.PanicOnError1(msg.Pack())
}

// fixtureCompressed is a response whose answer name is
// a pointer to the question name at offset 12.
var fixtureCompressed = []byte{
	0x00, 0x00, 0x84, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
	// offset 12: example.local. A IN
	7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 5, 'l', 'o', 'c', 'a', 'l', 0,
	0x00, 0x01, 0x00, 0x01,
	// offset 31: pointer to 12, A, IN with flush, TTL 120, RDLENGTH 4
	0xC0, 0x0C, 0x00, 0x01, 0x80, 0x01, 0x00, 0x00, 0x00, 0x78, 0x00, 0x04,
	192, 168, 4, 114,
}

// fixtureTruncatedRdata is a response whose only answer
// declares 100 bytes of data but carries just 4.
var fixtureTruncatedRdata = []byte{
	0x00, 0x00, 0x84, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x78, 0x00, 0x64,
	192, 168, 4, 114,
}

// fixturePointerPastEnd is a response whose only answer
// name is a pointer to an offset past the message end.
var fixturePointerPastEnd = []byte{
	0x00, 0x00, 0x84, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
	0xC0, 0xFF, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x78, 0x00, 0x00,
}
