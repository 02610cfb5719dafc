// SPDX-License-Identifier: GPL-3.0-or-later

package listeners

import (
	"errors"
	"net"
	"testing"

	"github.com/bassosimone/mdnscodec"
	"github.com/bassosimone/runtimex"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestResponder(t *testing.T) {
	tests := []struct {
		name    string
		qname   string
		qtype   uint16
		answers int
	}{
		{"MatchingQuestion", "laser.local", dns.TypeA, 1},
		{"MatchingQuestionDifferentCase", "Laser.Local.", dns.TypeA, 1},
		{"AnyQuestion", "laser.local", dns.TypeANY, 1},
		{"DifferentType", "laser.local", dns.TypeAAAA, 0},
		{"DifferentName", "inkjet.local", dns.TypeA, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent [][]byte
			responder := NewResponder("laser.local", dns.TypeA, []byte{192, 168, 4, 114}, func(payload []byte) error {
				sent = append(sent, payload)
				return nil
			})
			reg := mdnscodec.NewRegistry()
			reg.RegisterQuestion(responder.Question)

			query := runtimex.PanicOnError1(mdnscodec.BuildQuery(tt.qname, tt.qtype))
			pr := mdnscodec.Parse(reg, testSender, query)
			require.NoError(t, pr.Err)
			require.Empty(t, pr.ListenerErrors)
			require.Len(t, sent, tt.answers)

			for _, payload := range sent {
				var records []mdnscodec.Record
				reg := mdnscodec.NewRegistry()
				reg.RegisterRecord(func(sender net.Addr, section mdnscodec.Section, rr mdnscodec.Record, msg []byte, off int) error {
					records = append(records, rr)
					return nil
				})
				pr := mdnscodec.Parse(reg, nil, payload)
				require.NoError(t, pr.Err)
				require.True(t, pr.Header.IsResponse())
				require.Equal(t, []mdnscodec.Record{{
					Name:  "laser.local.",
					Type:  dns.TypeA,
					Class: dns.ClassINET,
					TTL:   mdnscodec.DefaultTTL,
					Data:  []byte{192, 168, 4, 114},
				}}, records)
			}
		})
	}
}

func TestResponderErrors(t *testing.T) {
	q := mdnscodec.Question{Name: "laser.local.", Type: dns.TypeA, Class: dns.ClassINET}

	t.Run("NoSender", func(t *testing.T) {
		responder := NewResponder("laser.local", dns.TypeA, []byte{192, 168, 4, 114}, nil)
		require.ErrorIs(t, responder.Question(nil, q, nil, 0), ErrNoSender)
	})

	t.Run("SendFailure", func(t *testing.T) {
		errMocked := errors.New("mocked error")
		responder := NewResponder("laser.local", dns.TypeA, []byte{192, 168, 4, 114}, func(payload []byte) error {
			return errMocked
		})
		require.ErrorIs(t, responder.Question(nil, q, nil, 0), errMocked)
	})

	t.Run("BuildFailure", func(t *testing.T) {
		responder := NewResponder("laser.local", dns.TypeA, make([]byte, 1<<16), func(payload []byte) error {
			return nil
		})
		require.ErrorIs(t, responder.Question(nil, q, nil, 0), mdnscodec.ErrRdataTooLong)
	})

	t.Run("OtherClass", func(t *testing.T) {
		responder := NewResponder("laser.local", dns.TypeA, []byte{192, 168, 4, 114}, nil)
		other := q
		other.Class = dns.ClassCHAOS
		require.NoError(t, responder.Question(nil, other, nil, 0))
	})
}
