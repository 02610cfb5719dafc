// SPDX-License-Identifier: GPL-3.0-or-later

package listeners

import (
	"net"
	"slices"

	"github.com/bassosimone/mdnscodec"
	"github.com/miekg/dns"
)

// QuestionsNamed returns a listener that forwards to next only the
// questions for name. The comparison is case insensitive and does not
// depend on the presence of the trailing dot.
func QuestionsNamed(name string, next mdnscodec.QuestionListener) mdnscodec.QuestionListener {
	name = dns.CanonicalName(name)
	return func(sender net.Addr, q mdnscodec.Question, msg []byte, off int) error {
		if dns.CanonicalName(q.Name) != name {
			return nil
		}
		return next(sender, q, msg, off)
	}
}

// RecordsNamed is like [QuestionsNamed] but for records.
func RecordsNamed(name string, next mdnscodec.RecordListener) mdnscodec.RecordListener {
	name = dns.CanonicalName(name)
	return func(sender net.Addr, section mdnscodec.Section, rr mdnscodec.Record, msg []byte, off int) error {
		if dns.CanonicalName(rr.Name) != name {
			return nil
		}
		return next(sender, section, rr, msg, off)
	}
}

// RecordsOfType returns a listener that forwards to next only
// the records whose type is one of types.
func RecordsOfType(next mdnscodec.RecordListener, types ...uint16) mdnscodec.RecordListener {
	types = slices.Clone(types)
	return func(sender net.Addr, section mdnscodec.Section, rr mdnscodec.Record, msg []byte, off int) error {
		if !slices.Contains(types, rr.Type) {
			return nil
		}
		return next(sender, section, rr, msg, off)
	}
}

// RecordsInSection returns a listener that forwards to next
// only the records belonging to the given section.
func RecordsInSection(section mdnscodec.Section, next mdnscodec.RecordListener) mdnscodec.RecordListener {
	return func(sender net.Addr, s mdnscodec.Section, rr mdnscodec.Record, msg []byte, off int) error {
		if s != section {
			return nil
		}
		return next(sender, s, rr, msg, off)
	}
}
