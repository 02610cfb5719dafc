// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"
)

const (
	// DefaultMulticastTTL is the IP TTL RFC 6762 requires for
	// multicast mDNS packets.
	DefaultMulticastTTL = 255

	// MaxDatagramSize is the maximum mDNS message size (RFC 6762 section 17).
	MaxDatagramSize = 9000
)

// DefaultGroup is the IPv4 mDNS multicast group and port.
var DefaultGroup = netip.MustParseAddrPort("224.0.0.251:5353")

// ErrNotMulticast indicates that the configured group is
// not an IPv4 multicast address.
var ErrNotMulticast = errors.New("not an IPv4 multicast group")

// Config contains the [*UDP] configuration.
//
// Construct using [DefaultConfig].
type Config struct {
	// Group is the multicast group and port.
	Group netip.AddrPort

	// Interface is the OPTIONAL name of the network interface to use.
	// When empty, we let the system choose.
	Interface string

	// MulticastTTL is the IP TTL for outgoing packets.
	MulticastTTL int

	// Loopback controls whether we receive our own packets.
	Loopback bool

	// BufferSize is the size of the receive buffer.
	BufferSize int
}

// DefaultConfig returns the default [*Config].
func DefaultConfig() *Config {
	return &Config{
		Group:        DefaultGroup,
		Interface:    "",
		MulticastTTL: DefaultMulticastTTL,
		Loopback:     true,
		BufferSize:   MaxDatagramSize,
	}
}

// UDP is a [Transport] using IPv4 multicast.
//
// Construct using [ListenUDP].
type UDP struct {
	bufsiz int
	conn   *ipv4.PacketConn
	group  *net.UDPAddr
	iface  *net.Interface
}

var _ Transport = &UDP{}

// ListenUDP binds the group port, joins the multicast group and
// returns a [*UDP] ready to send and receive.
func ListenUDP(ctx context.Context, config *Config) (*UDP, error) {
	// 1. validate the configuration
	if !config.Group.Addr().Is4() || !config.Group.Addr().IsMulticast() {
		return nil, fmt.Errorf("%w: %s", ErrNotMulticast, config.Group.Addr())
	}
	bufsiz := config.BufferSize
	if bufsiz <= 0 {
		bufsiz = MaxDatagramSize
	}

	// 2. resolve the interface
	var iface *net.Interface
	if config.Interface != "" {
		var err error
		if iface, err = net.InterfaceByName(config.Interface); err != nil {
			return nil, err
		}
	}

	// 3. bind the port, sharing it with other mDNS stacks on this host
	lc := net.ListenConfig{Control: reuseControl}
	address := net.JoinHostPort("0.0.0.0", strconv.Itoa(int(config.Group.Port())))
	pconn, err := lc.ListenPacket(ctx, "udp4", address)
	if err != nil {
		return nil, err
	}

	// 4. join the group and configure multicast
	conn := ipv4.NewPacketConn(pconn)
	group := net.UDPAddrFromAddrPort(config.Group)
	if err := conn.JoinGroup(iface, group); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot join %s: %w", group, err)
	}
	if iface != nil {
		if err := conn.SetMulticastInterface(iface); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if err := conn.SetMulticastTTL(config.MulticastTTL); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.SetMulticastLoopback(config.Loopback); err != nil {
		conn.Close()
		return nil, err
	}

	u := &UDP{
		bufsiz: bufsiz,
		conn:   conn,
		group:  group,
		iface:  iface,
	}
	return u, nil
}

// Send implements [Transport].
func (u *UDP) Send(ctx context.Context, payload []byte) error {
	return withDeadline(ctx, u.conn.SetWriteDeadline, func() error {
		_, err := u.conn.WriteTo(payload, nil, u.group)
		return err
	})
}

// Receive implements [Transport].
func (u *UDP) Receive(ctx context.Context) (Datagram, error) {
	var dgram Datagram
	err := withDeadline(ctx, u.conn.SetReadDeadline, func() error {
		buf := make([]byte, u.bufsiz)
		count, _, src, err := u.conn.ReadFrom(buf)
		if err != nil {
			return err
		}
		dgram = Datagram{Sender: src, Payload: buf[:count]}
		return nil
	})
	return dgram, err
}

// Close implements [Transport].
func (u *UDP) Close() error {
	u.conn.LeaveGroup(u.iface, u.group)
	return u.conn.Close()
}

// withDeadline runs fn with the I/O deadline derived from ctx and
// unblocks it by moving the deadline in the past when ctx is done.
func withDeadline(ctx context.Context, setDeadline func(time.Time) error, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := setDeadline(deadline); err != nil {
		return err
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		setDeadline(time.Unix(1, 0))
	})
	err := fn()

	// wait for a running callback, otherwise it could move the
	// deadline of the next operation in the past
	if !stop() {
		<-fired
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
