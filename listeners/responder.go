// SPDX-License-Identifier: GPL-3.0-or-later

package listeners

import (
	"errors"
	"log/slog"
	"net"

	"github.com/bassosimone/mdnscodec"
	"github.com/miekg/dns"
)

// ErrNoSender indicates that a [*Responder] has no send function.
var ErrNoSender = errors.New("responder has no send function")

// Responder is a [mdnscodec.QuestionListener] answering the questions
// for a single name and type with a fixed record. It does not track
// state: every matching question gets an answer.
//
// Construct using [NewResponder].
type Responder struct {
	// Name is the MANDATORY name to answer for.
	Name string

	// Type is the MANDATORY record type to answer for. Questions
	// for [dns.TypeANY] are also answered.
	Type uint16

	// Data is the MANDATORY serialized record data.
	Data []byte

	// TTL is the record TTL.
	TTL uint32

	// Send is the MANDATORY function sending the answer.
	Send func(payload []byte) error

	// Logger is the OPTIONAL logger.
	Logger *slog.Logger
}

// NewResponder constructs a new [*Responder] using [mdnscodec.DefaultTTL].
func NewResponder(name string, rtype uint16, rdata []byte, send func(payload []byte) error) *Responder {
	return &Responder{
		Name:   name,
		Type:   rtype,
		Data:   rdata,
		TTL:    mdnscodec.DefaultTTL,
		Send:   send,
		Logger: nil,
	}
}

// Question implements [mdnscodec.QuestionListener].
func (r *Responder) Question(sender net.Addr, q mdnscodec.Question, msg []byte, off int) error {
	// 1. ignore questions we should not answer
	if q.Type != r.Type && q.Type != dns.TypeANY {
		return nil
	}
	if q.Class != dns.ClassINET && q.Class != dns.ClassANY {
		return nil
	}
	if dns.CanonicalName(q.Name) != dns.CanonicalName(r.Name) {
		return nil
	}
	if r.Send == nil {
		return ErrNoSender
	}

	// 2. build and send the answer
	payload, err := mdnscodec.BuildAnswer(r.Name, r.Type, r.Data, r.TTL)
	if err != nil {
		return err
	}
	if r.Logger != nil {
		r.Logger.Info("mdns: answering question",
			slog.String("sender", senderString(sender)),
			slog.String("name", q.Name),
			slog.String("qtype", dns.Type(q.Type).String()),
		)
	}
	return r.Send(payload)
}
