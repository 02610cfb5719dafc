// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"context"
	"net"
	"slices"
	"sync"
)

// memoryQueueSize is the number of datagrams a [*Memory] can queue.
const memoryQueueSize = 64

// MemoryNetwork emulates a multicast group in memory: every datagram
// sent by a member is delivered to all the other members.
//
// Construct using [NewMemoryNetwork].
type MemoryNetwork struct {
	mu      sync.Mutex
	members []*Memory
}

// NewMemoryNetwork constructs a new [*MemoryNetwork].
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{}
}

// Join returns a new [*Memory] member using addr as its address.
func (n *MemoryNetwork) Join(addr net.Addr) *Memory {
	m := &Memory{
		addr:    addr,
		closed:  make(chan struct{}),
		inbox:   make(chan Datagram, memoryQueueSize),
		network: n,
	}
	n.mu.Lock()
	n.members = append(n.members, m)
	n.mu.Unlock()
	return m
}

func (n *MemoryNetwork) peers(self *Memory) []*Memory {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.DeleteFunc(slices.Clone(n.members), func(m *Memory) bool { return m == self })
}

func (n *MemoryNetwork) leave(self *Memory) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.members = slices.DeleteFunc(n.members, func(m *Memory) bool { return m == self })
}

// Memory is an in-memory [Transport].
//
// Construct using [*MemoryNetwork.Join].
type Memory struct {
	addr      net.Addr
	closeOnce sync.Once
	closed    chan struct{}
	inbox     chan Datagram
	network   *MemoryNetwork
}

var _ Transport = &Memory{}

// Addr returns the address of this member.
func (m *Memory) Addr() net.Addr {
	return m.addr
}

// Send implements [Transport].
//
// Send blocks while the queue of any peer is full.
func (m *Memory) Send(ctx context.Context, payload []byte) error {
	select {
	case <-m.closed:
		return net.ErrClosed
	default:
	}
	for _, peer := range m.network.peers(m) {
		dgram := Datagram{Sender: m.addr, Payload: slices.Clone(payload)}
		select {
		case peer.inbox <- dgram:
		case <-peer.closed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Receive implements [Transport].
func (m *Memory) Receive(ctx context.Context) (Datagram, error) {
	select {
	case dgram := <-m.inbox:
		return dgram, nil
	case <-m.closed:
		return Datagram{}, net.ErrClosed
	case <-ctx.Done():
		return Datagram{}, ctx.Err()
	}
}

// Close implements [Transport].
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		m.network.leave(m)
		close(m.closed)
	})
	return nil
}
