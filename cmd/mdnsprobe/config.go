// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/miekg/dns"
)

// Config contains the mdnsprobe settings.
//
// The JSON file selected with -config overrides [DefaultConfig] and
// the flags explicitly set on the command line override the file.
type Config struct {
	// Group is the multicast group and port.
	Group string `json:"group"`

	// Interface is the network interface name (empty means the system default).
	Interface string `json:"interface"`

	// Name is the name to query for.
	Name string `json:"name"`

	// Type is the query type (e.g., "PTR").
	Type string `json:"type"`

	// Service, when not empty, replaces Name with "<service>.local" and
	// Type with PTR (e.g., "_ipp._tcp").
	Service string `json:"service"`

	// Wait is how long to listen after sending the query (e.g., "5s").
	Wait string `json:"wait"`

	// Compact selects one line per question or record.
	Compact bool `json:"compact"`

	// Verbose enables debug logging.
	Verbose bool `json:"verbose"`

	// Dump adds an hex dump of each message (requires Verbose).
	Dump bool `json:"dump"`

	// LogFormat is either "text" or "json".
	LogFormat string `json:"log_format"`

	// RespondName and RespondAddr, when both set, answer A
	// questions for RespondName with the IPv4 RespondAddr.
	RespondName string `json:"respond_name"`
	RespondAddr string `json:"respond_addr"`

	// ParseFile, when not empty, parses a datagram saved to
	// disk instead of using the network.
	ParseFile string `json:"parse_file"`
}

// DefaultConfig returns the default [Config], which scans for services.
func DefaultConfig() Config {
	return Config{
		Group:     "224.0.0.251:5353",
		Interface: "",
		Name:      "_services._dns-sd._udp.local",
		Type:      "PTR",
		Service:   "",
		Wait:      "5s",
		Compact:   false,
		Verbose:   false,
		Dump:      false,
		LogFormat: "text",
	}
}

// LoadConfig returns [DefaultConfig] overridden by the JSON file at path.
//
// An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	// fields missing from the file keep their default value
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// errInvalidConfig indicates that a [Config] field is not valid.
var errInvalidConfig = errors.New("invalid config")

// settings is the validated form of [Config].
type settings struct {
	group       netip.AddrPort
	name        string
	qtype       uint16
	wait        time.Duration
	respondName string
	respondAddr netip.Addr
}

// validate checks cfg and converts it to [settings].
func (cfg Config) validate() (*settings, error) {
	// 1. the multicast group
	group, err := netip.ParseAddrPort(cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("%w: group: %w", errInvalidConfig, err)
	}

	// 2. what to ask for
	st := &settings{group: group, name: cfg.Name}
	qtype := cfg.Type
	if cfg.Service != "" {
		st.name = cfg.Service + ".local"
		qtype = "PTR"
	}
	value, found := dns.StringToType[qtype]
	if !found {
		return nil, fmt.Errorf("%w: unknown type %q", errInvalidConfig, qtype)
	}
	st.qtype = value

	// 3. how long to wait
	if st.wait, err = time.ParseDuration(cfg.Wait); err != nil {
		return nil, fmt.Errorf("%w: wait: %w", errInvalidConfig, err)
	}
	if st.wait < 0 {
		return nil, fmt.Errorf("%w: negative wait", errInvalidConfig)
	}

	// 4. the optional responder
	switch {
	case cfg.RespondName == "" && cfg.RespondAddr == "":
	case cfg.RespondName == "" || cfg.RespondAddr == "":
		return nil, fmt.Errorf("%w: respond_name and respond_addr go together", errInvalidConfig)
	default:
		addr, err := netip.ParseAddr(cfg.RespondAddr)
		if err != nil {
			return nil, fmt.Errorf("%w: respond_addr: %w", errInvalidConfig, err)
		}
		if !addr.Is4() {
			return nil, fmt.Errorf("%w: respond_addr must be IPv4", errInvalidConfig)
		}
		st.respondName = cfg.RespondName
		st.respondAddr = addr
	}

	// 5. the log format
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("%w: unknown log format %q", errInvalidConfig, cfg.LogFormat)
	}
	return st, nil
}
