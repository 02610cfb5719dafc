// SPDX-License-Identifier: GPL-3.0-or-later

// Command mdnsprobe sends an mDNS query and logs the decoded traffic.
//
// Usage:
//
//	mdnsprobe [-config file.json] [-name name] [-type PTR] [-service _ipp._tcp]
//		[-wait 5s] [-iface eth0] [-compact] [-verbose] [-dump]
//		[-respond-name host.local -respond-addr 192.168.4.114]
//		[-parse datagram.bin]
//
// Without flags, it scans the local network for DNS-SD services.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bassosimone/mdnscodec"
	"github.com/bassosimone/mdnscodec/listeners"
	"github.com/bassosimone/mdnscodec/receiver"
	"github.com/bassosimone/mdnscodec/transport"
	"github.com/miekg/dns"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "mdnsprobe: %s\n", err)
		os.Exit(1)
	}
}

// run is the testable body of main.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// 1. figure out the configuration
	cfg, err := parseOptions(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	st, err := cfg.validate()
	if err != nil {
		return err
	}

	// 2. create the logger and the listeners
	logger := newLogger(cfg, stdout)
	reg := mdnscodec.NewRegistry()
	printer := listeners.NewLogger(logger)
	printer.Compact = cfg.Compact
	printer.DumpRaw = cfg.Dump
	printer.Register(reg)

	// 3. parse a file when requested
	if cfg.ParseFile != "" {
		return parseFile(cfg.ParseFile, reg, logger)
	}

	// 4. otherwise use the network
	return probe(ctx, cfg, st, reg, logger)
}

// parseOptions parses the command line and merges it with the config file.
func parseOptions(args []string, stderr io.Writer) (Config, error) {
	defaults := DefaultConfig()
	fs := flag.NewFlagSet("mdnsprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "JSON configuration file")
	name := fs.String("name", defaults.Name, "name to query for")
	qtype := fs.String("type", defaults.Type, "query type")
	service := fs.String("service", defaults.Service, "service to scan for (e.g., _ipp._tcp)")
	wait := fs.String("wait", defaults.Wait, "how long to listen for answers")
	iface := fs.String("iface", defaults.Interface, "network interface to use")
	compact := fs.Bool("compact", defaults.Compact, "log one line per question or record")
	verbose := fs.Bool("verbose", defaults.Verbose, "enable debug logging")
	dump := fs.Bool("dump", defaults.Dump, "hex dump each message (with -verbose)")
	logFormat := fs.String("log-format", defaults.LogFormat, "log format: text or json")
	respondName := fs.String("respond-name", "", "name to answer A questions for")
	respondAddr := fs.String("respond-addr", "", "IPv4 address to answer with")
	parse := fs.String("parse", "", "parse a datagram stored in a file and exit")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return Config{}, err
	}

	// only the flags explicitly set override the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = *name
		case "type":
			cfg.Type = *qtype
		case "service":
			cfg.Service = *service
		case "wait":
			cfg.Wait = *wait
		case "iface":
			cfg.Interface = *iface
		case "compact":
			cfg.Compact = *compact
		case "verbose":
			cfg.Verbose = *verbose
		case "dump":
			cfg.Dump = *dump
		case "log-format":
			cfg.LogFormat = *logFormat
		case "respond-name":
			cfg.RespondName = *respondName
		case "respond-addr":
			cfg.RespondAddr = *respondAddr
		case "parse":
			cfg.ParseFile = *parse
		}
	})
	return cfg, nil
}

func newLogger(cfg Config, w io.Writer) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Verbose {
		options.Level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	return slog.New(slog.NewTextHandler(w, options))
}

func parseFile(path string, reg *mdnscodec.Registry, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	loop := receiver.NewLoop(nil, reg, logger)
	pr := loop.Handle(transport.Datagram{Payload: data})
	return pr.Err
}

func probe(ctx context.Context, cfg Config, st *settings, reg *mdnscodec.Registry, logger *slog.Logger) error {
	// 1. join the multicast group
	tconfig := transport.DefaultConfig()
	tconfig.Group = st.group
	tconfig.Interface = cfg.Interface
	conn, err := transport.ListenUDP(ctx, tconfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	// 2. maybe answer questions for our own name
	if st.respondName != "" {
		rdata := st.respondAddr.As4()
		responder := listeners.NewResponder(st.respondName, dns.TypeA, rdata[:], func(payload []byte) error {
			return conn.Send(ctx, payload)
		})
		responder.Logger = logger
		reg.RegisterQuestion(responder.Question)
	}

	// 3. start receiving
	loop := receiver.NewLoop(conn, reg, logger)
	loop.Stats.Register(reg)
	rxctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(rxctx) }()

	// 4. send the query
	query, err := mdnscodec.BuildQuery(st.name, st.qtype)
	if err != nil {
		return err
	}
	logger.Info("mdns: sending query",
		slog.String("name", st.name),
		slog.String("qtype", dns.Type(st.qtype).String()),
		slog.String("group", st.group.String()),
	)
	if err := conn.Send(ctx, query); err != nil {
		return err
	}

	// 5. listen until timeout or interrupt
	select {
	case <-time.After(st.wait):
	case <-ctx.Done():
	case err := <-done:
		return err
	}
	cancel()
	<-done

	snap := loop.Stats.Snapshot()
	logger.Info("mdns: done",
		slog.Int64("datagrams", snap.Datagrams),
		slog.Int64("malformed", snap.Malformed),
		slog.Int64("questions", snap.Questions),
		slog.Int64("answers", snap.Answers),
		slog.Int64("additionals", snap.Additionals),
		slog.Int64("listener_failures", snap.ListenerFailures),
		slog.Any("questions_by_type", snap.QuestionsByType),
	)
	return nil
}
