// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func memoryAddr(port int) net.Addr {
	return &net.UDPAddr{IP: net.IPv4(192, 168, 4, byte(port)), Port: 5353}
}

func TestMemoryDeliversToPeersOnly(t *testing.T) {
	network := NewMemoryNetwork()
	alice := network.Join(memoryAddr(1))
	bob := network.Join(memoryAddr(2))
	carol := network.Join(memoryAddr(3))
	defer alice.Close()
	defer bob.Close()
	defer carol.Close()

	ctx := context.Background()
	payload := []byte{0x00, 0x01}
	require.NoError(t, alice.Send(ctx, payload))
	payload[0] = 0xff

	for _, peer := range []*Memory{bob, carol} {
		dgram, err := peer.Receive(ctx)
		require.NoError(t, err)
		require.Equal(t, alice.Addr(), dgram.Sender)
		require.Equal(t, []byte{0x00, 0x01}, dgram.Payload)
	}

	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := alice.Receive(shortCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryClose(t *testing.T) {
	network := NewMemoryNetwork()
	alice := network.Join(memoryAddr(1))
	bob := network.Join(memoryAddr(2))

	require.NoError(t, bob.Close())
	require.NoError(t, bob.Close())

	_, err := bob.Receive(context.Background())
	require.ErrorIs(t, err, net.ErrClosed)
	require.ErrorIs(t, bob.Send(context.Background(), []byte{0}), net.ErrClosed)

	// alice has no peers left so sending does not block
	require.NoError(t, alice.Send(context.Background(), []byte{0}))
	require.Empty(t, network.peers(alice))
}

func TestMemorySendHonoursContext(t *testing.T) {
	network := NewMemoryNetwork()
	alice := network.Join(memoryAddr(1))
	network.Join(memoryAddr(2))

	ctx := context.Background()
	for range memoryQueueSize {
		require.NoError(t, alice.Send(ctx, []byte{0}))
	}

	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, alice.Send(shortCtx, []byte{0}), context.DeadlineExceeded)
}

func TestListenUDPRejectsNonMulticastGroup(t *testing.T) {
	config := DefaultConfig()
	config.Group = netip.MustParseAddrPort("192.168.4.114:5353")
	_, err := ListenUDP(context.Background(), config)
	require.ErrorIs(t, err, ErrNotMulticast)

	config.Group = netip.MustParseAddrPort("[ff02::fb]:5353")
	_, err = ListenUDP(context.Background(), config)
	require.ErrorIs(t, err, ErrNotMulticast)
}

func TestListenUDPUnknownInterface(t *testing.T) {
	config := DefaultConfig()
	config.Interface = "nonexistent-interface0"
	_, err := ListenUDP(context.Background(), config)
	require.Error(t, err)
}

func TestWithDeadline(t *testing.T) {
	t.Run("CanceledBeforeStarting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		err := withDeadline(ctx, func(time.Time) error { return nil }, func() error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		require.False(t, called)
	})

	t.Run("PropagatesDeadline", func(t *testing.T) {
		deadline := time.Now().Add(time.Hour)
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		defer cancel()
		var got time.Time
		err := withDeadline(ctx, func(t time.Time) error {
			got = t
			return nil
		}, func() error { return nil })
		require.NoError(t, err)
		require.True(t, deadline.Equal(got))
	})

	t.Run("SetDeadlineFailure", func(t *testing.T) {
		errMocked := errors.New("mocked error")
		err := withDeadline(context.Background(), func(time.Time) error { return errMocked }, func() error {
			panic("should not be called")
		})
		require.ErrorIs(t, err, errMocked)
	})

	t.Run("CancellationUnblocks", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		unblock := make(chan struct{})
		setDeadline := func(t time.Time) error {
			if !t.IsZero() && t.Before(time.Now()) {
				close(unblock)
			}
			return nil
		}
		go cancel()
		err := withDeadline(ctx, setDeadline, func() error {
			<-unblock
			return errors.New("i/o timeout")
		})
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("WaitsForRunningCallback", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var (
			mu    sync.Mutex
			calls []time.Time
		)
		setDeadline := func(t time.Time) error {
			if !t.IsZero() {
				time.Sleep(50 * time.Millisecond)
			}
			mu.Lock()
			calls = append(calls, t)
			mu.Unlock()
			return nil
		}
		err := withDeadline(ctx, setDeadline, func() error {
			cancel()
			return nil
		})
		require.NoError(t, err)

		// the callback must be done before we return so that it cannot
		// interfere with the deadline of the next operation
		mu.Lock()
		defer mu.Unlock()
		require.Len(t, calls, 2)
		require.True(t, calls[0].IsZero())
		require.True(t, calls[1].Before(time.Now()))
	})
}

func TestUDPLoopback(t *testing.T) {
	if testing.Short() {
		t.Skip("skip test in short mode")
	}

	config := DefaultConfig()
	config.Group = netip.MustParseAddrPort("224.0.0.251:55353")
	conn, err := ListenUDP(context.Background(), config)
	if err != nil {
		t.Skipf("cannot use multicast here: %s", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Send(ctx, []byte("mdnscodec")); err != nil {
		t.Skipf("cannot send multicast here: %s", err)
	}
	dgram, err := conn.Receive(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Skip("multicast loopback is not working here")
	}
	require.NoError(t, err)
	require.Equal(t, []byte("mdnscodec"), dgram.Payload)
	require.NotNil(t, dgram.Sender)
}
