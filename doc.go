// SPDX-License-Identifier: GPL-3.0-or-later

// Package mdnscodec is a multicast DNS wire message parser and serializer.
//
// [Parse] decodes a received datagram into a [Header], zero or more
// [Question] and zero or more [Record], dispatching each of them to the
// listeners stored inside a [*Registry]. The codec never interprets the
// record data: listeners receive the raw message and the offset where the
// record data begins, which allows them to resolve compressed names.
//
// [NewQuery] and [*Query] allow constructing and packing an mDNS query
// message. [NewAnswer] and [*Answer] do the same for a single-answer
// response. Outgoing names are never compressed.
//
// Type and class constants are the ones defined by [github.com/miekg/dns].
package mdnscodec
