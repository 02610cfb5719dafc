// SPDX-License-Identifier: GPL-3.0-or-later

package receiver

import (
	"cmp"
	"net"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bassosimone/mdnscodec"
	"github.com/miekg/dns"
)

// maxTopNames is the maximum number of names in [Snapshot.TopNames].
const maxTopNames = 10

// Stats contains the [*Loop] statistics.
//
// Construct using [NewStats].
type Stats struct {
	// Datagrams counts the datagrams handed to the parser.
	Datagrams atomic.Int64

	// Malformed counts the datagrams that failed to parse.
	Malformed atomic.Int64

	// Questions counts the decoded questions.
	Questions atomic.Int64

	// Answers counts the decoded answer records.
	Answers atomic.Int64

	// Authorities counts the decoded authority records.
	Authorities atomic.Int64

	// Additionals counts the decoded additional records.
	Additionals atomic.Int64

	// ListenerFailures counts listener errors and panics.
	ListenerFailures atomic.Int64

	// ReceiveErrors counts transient receive errors.
	ReceiveErrors atomic.Int64

	mu              sync.Mutex
	questionsByType map[uint16]int64
	questionsByName map[string]int64
}

// NewStats constructs a new [*Stats].
func NewStats() *Stats {
	return &Stats{
		questionsByType: make(map[uint16]int64),
		questionsByName: make(map[string]int64),
	}
}

// Register registers with reg a question listener that
// counts questions by type and name.
func (s *Stats) Register(reg *mdnscodec.Registry) mdnscodec.Handle {
	return reg.RegisterQuestion(s.question)
}

func (s *Stats) question(sender net.Addr, q mdnscodec.Question, msg []byte, off int) error {
	name := dns.CanonicalName(q.Name)
	s.mu.Lock()
	s.questionsByType[q.Type]++
	s.questionsByName[name]++
	s.mu.Unlock()
	return nil
}

// Record updates the counters using the given parse result.
func (s *Stats) Record(pr *mdnscodec.ParseResult) {
	s.Datagrams.Add(1)
	if !pr.Complete() {
		s.Malformed.Add(1)
	}
	s.Questions.Add(int64(pr.Questions))
	s.Answers.Add(int64(pr.Answers))
	s.Authorities.Add(int64(pr.Authorities))
	s.Additionals.Add(int64(pr.Additionals))
	s.ListenerFailures.Add(int64(len(pr.ListenerErrors)))
}

// NameCount is a name along with how many times it was asked for.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Snapshot is a point-in-time copy of [*Stats].
type Snapshot struct {
	Datagrams        int64            `json:"datagrams"`
	Malformed        int64            `json:"malformed"`
	Questions        int64            `json:"questions"`
	Answers          int64            `json:"answers"`
	Authorities      int64            `json:"authorities"`
	Additionals      int64            `json:"additionals"`
	ListenerFailures int64            `json:"listener_failures"`
	ReceiveErrors    int64            `json:"receive_errors"`
	QuestionsByType  map[string]int64 `json:"questions_by_type"`
	TopNames         []NameCount      `json:"top_names"`
}

// Snapshot returns a [Snapshot] of the current statistics.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Datagrams:        s.Datagrams.Load(),
		Malformed:        s.Malformed.Load(),
		Questions:        s.Questions.Load(),
		Answers:          s.Answers.Load(),
		Authorities:      s.Authorities.Load(),
		Additionals:      s.Additionals.Load(),
		ListenerFailures: s.ListenerFailures.Load(),
		ReceiveErrors:    s.ReceiveErrors.Load(),
		QuestionsByType:  make(map[string]int64),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for qtype, count := range s.questionsByType {
		snap.QuestionsByType[dns.Type(qtype).String()] += count
	}
	for name, count := range s.questionsByName {
		snap.TopNames = append(snap.TopNames, NameCount{Name: name, Count: count})
	}

	// most asked first, ties broken by name so the output is stable
	slices.SortFunc(snap.TopNames, func(a, b NameCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(snap.TopNames) > maxTopNames {
		snap.TopNames = snap.TopNames[:maxTopNames]
	}
	return snap
}
