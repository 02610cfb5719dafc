// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport sends and receives mDNS datagrams.
//
// [Transport] is the only abstraction the rest of the module depends on.
// [*UDP] is the IPv4 multicast implementation and [*Memory] is an
// in-memory implementation useful for testing.
package transport

import (
	"context"
	"net"
)

// Datagram is a received datagram.
type Datagram struct {
	// Sender is the address of the sender.
	Sender net.Addr

	// Payload is the datagram content, which the receiver owns.
	Payload []byte
}

// Transport sends and receives datagrams.
type Transport interface {
	// Send sends the payload to the peers, honouring ctx.
	Send(ctx context.Context, payload []byte) error

	// Receive blocks until a datagram arrives, ctx is done, or the
	// transport is closed. In the latter case, the error wraps
	// [net.ErrClosed].
	Receive(ctx context.Context) (Datagram, error)

	// Close releases the resources used by the transport.
	Close() error
}
