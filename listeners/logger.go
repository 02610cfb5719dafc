// SPDX-License-Identifier: GPL-3.0-or-later

// Package listeners contains listeners for [*mdnscodec.Registry].
//
// [*Logger] logs messages, questions, and records using [log/slog]. The
// filters wrap other listeners. [*Responder] answers a single question.
package listeners

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"

	"github.com/bassosimone/mdnscodec"
	"github.com/miekg/dns"
)

// Logger logs the events dispatched by [mdnscodec.Parse].
//
// Construct using [NewLogger].
type Logger struct {
	// Logger is the MANDATORY logger to use.
	Logger *slog.Logger

	// Compact OPTIONALLY selects logging a single line per
	// question or record without interpreting the record data.
	Compact bool

	// DumpRaw OPTIONALLY enables logging an hex dump of each message.
	DumpRaw bool
}

// NewLogger constructs a new [*Logger] using the given logger.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{Logger: logger}
}

// Register registers the logger methods with reg.
func (l *Logger) Register(reg *mdnscodec.Registry) []mdnscodec.Handle {
	return []mdnscodec.Handle{
		reg.RegisterRaw(l.Raw),
		reg.RegisterQuestion(l.Question),
		reg.RegisterRecord(l.Record),
	}
}

// Raw is a [mdnscodec.RawListener].
func (l *Logger) Raw(sender net.Addr, msg []byte) error {
	attrs := []slog.Attr{
		slog.String("sender", senderString(sender)),
		slog.Int("size", len(msg)),
	}
	if l.DumpRaw {
		attrs = append(attrs, slog.String("dump", hex.Dump(msg)))
	}
	l.Logger.LogAttrs(context.Background(), slog.LevelDebug, "mdns: message", attrs...)
	return nil
}

// Question is a [mdnscodec.QuestionListener].
func (l *Logger) Question(sender net.Addr, q mdnscodec.Question, msg []byte, off int) error {
	if l.Compact {
		l.Logger.Info(compactLine(mdnscodec.SectionQuestion, q.Name, q.Type, q.Class, q.Flush))
		return nil
	}
	l.Logger.Info("mdns: question",
		slog.String("sender", senderString(sender)),
		slog.String("name", q.Name),
		slog.String("qtype", dns.Type(q.Type).String()),
		slog.String("qclass", dns.Class(q.Class).String()),
		slog.Bool("flush", q.Flush),
	)
	return nil
}

// Record is a [mdnscodec.RecordListener].
//
// Unless in compact mode, it uses [Interpret] to decode the record
// data and returns the error when this is not possible.
func (l *Logger) Record(sender net.Addr, section mdnscodec.Section, rr mdnscodec.Record, msg []byte, off int) error {
	if l.Compact {
		l.Logger.Info(compactLine(section, rr.Name, rr.Type, rr.Class, rr.Flush))
		return nil
	}
	attrs := []slog.Attr{
		slog.String("sender", senderString(sender)),
		slog.String("section", section.String()),
		slog.String("name", rr.Name),
		slog.String("rtype", dns.Type(rr.Type).String()),
		slog.String("rclass", dns.Class(rr.Class).String()),
		slog.Bool("flush", rr.Flush),
		slog.Uint64("ttl", uint64(rr.TTL)),
		slog.Int("rdlength", len(rr.Data)),
	}
	decoded, err := Interpret(rr, msg, off)
	if err == nil {
		attrs = append(attrs, Describe(decoded)...)
	}
	l.Logger.LogAttrs(context.Background(), slog.LevelInfo, "mdns: record", attrs...)
	return err
}

func compactLine(section mdnscodec.Section, name string, rtype, class uint16, flush bool) string {
	var suffix string
	if flush {
		suffix = " +FLUSHBIT"
	}
	return fmt.Sprintf("[%-10s] %q Type[0x%04x, %d, %s] Class[0x%04x, %d, %s%s]",
		section, name, rtype, rtype, dns.Type(rtype), class, class, dns.Class(class), suffix)
}

func senderString(sender net.Addr) string {
	if sender == nil {
		return ""
	}
	return sender.String()
}
