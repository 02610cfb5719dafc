// SPDX-License-Identifier: GPL-3.0-or-later

// Package receiver reads datagrams from a transport and feeds
// them to [mdnscodec.Parse].
package receiver

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/bassosimone/mdnscodec"
	"github.com/bassosimone/mdnscodec/transport"
)

// Receiver is the part of [transport.Transport] used by [*Loop].
type Receiver interface {
	Receive(ctx context.Context) (transport.Datagram, error)
}

// Loop receives datagrams and dispatches them to the listeners.
//
// Construct using [NewLoop].
type Loop struct {
	// Transport is the MANDATORY transport to read from.
	Transport Receiver

	// Registry contains the listeners. A nil Registry means
	// that datagrams are only parsed and counted.
	Registry *mdnscodec.Registry

	// Logger is the MANDATORY logger to use.
	Logger *slog.Logger

	// Stats is the MANDATORY statistics collector.
	Stats *Stats
}

// NewLoop constructs a new [*Loop] with fresh [*Stats].
func NewLoop(rx Receiver, reg *mdnscodec.Registry, logger *slog.Logger) *Loop {
	return &Loop{
		Transport: rx,
		Registry:  reg,
		Logger:    logger,
		Stats:     NewStats(),
	}
}

// Run receives and handles datagrams until ctx is done or the
// transport is closed, and returns the error that stopped it.
//
// Other receive errors are logged, counted, and otherwise ignored.
func (l *Loop) Run(ctx context.Context) error {
	l.Logger.Info("mdns: receive loop started")
	defer l.Logger.Info("mdns: receive loop stopped")
	for {
		dgram, err := l.Transport.Receive(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, net.ErrClosed):
			return err
		case err != nil:
			l.Stats.ReceiveErrors.Add(1)
			l.Logger.Warn("mdns: receive failed", "error", err)
			continue
		}
		l.Handle(dgram)
	}
}

// Handle parses a single datagram, dispatches it, and updates the stats.
func (l *Loop) Handle(dgram transport.Datagram) *mdnscodec.ParseResult {
	logger := l.Logger.With(
		"sender", senderString(dgram.Sender),
		"size", len(dgram.Payload),
	)

	pr := mdnscodec.Parse(l.Registry, dgram.Sender, dgram.Payload)
	l.Stats.Record(pr)

	for _, err := range pr.ListenerErrors {
		logger.Debug("mdns: listener failed", "error", err)
	}

	if pr.Err != nil {
		logger.Warn("mdns: discarding malformed datagram",
			"error", pr.Err,
			"questions", pr.Questions,
			"records", pr.Records(),
		)
		return pr
	}

	logger.Debug("mdns: datagram handled",
		"id", pr.Header.ID,
		"response", pr.Header.IsResponse(),
		"questions", pr.Questions,
		"records", pr.Records(),
	)
	return pr
}

func senderString(sender net.Addr) string {
	if sender == nil {
		return ""
	}
	return sender.String()
}
