// SPDX-License-Identifier: GPL-3.0-or-later

package mdnscodec

import (
	"fmt"
	"net"
	"slices"
	"sync"
)

// RawListener is called once per message before decoding its sections.
//
// The listener MUST NOT modify or retain msg.
type RawListener func(sender net.Addr, msg []byte) error

// QuestionListener is called for each decoded question. The off argument
// is the offset of the first byte following the question.
//
// The listener MUST NOT modify or retain msg.
type QuestionListener func(sender net.Addr, q Question, msg []byte, off int) error

// RecordListener is called for each decoded record of the answer, authority,
// and additional sections. The off argument is the offset where the record
// data begins inside msg, which allows decoding compressed names.
//
// Whatever the listener does, the parser resumes after RDLENGTH bytes.
//
// The listener MUST NOT modify or retain msg.
type RecordListener func(sender net.Addr, section Section, rr Record, msg []byte, off int) error

// Category is a listener category.
type Category int

// Listener categories.
const (
	CategoryRaw Category = iota
	CategoryQuestion
	CategoryRecord
)

// Handle identifies a registered listener.
type Handle struct {
	category Category
	id       uint64
}

// Category returns the category of the listener.
func (h Handle) Category() Category {
	return h.category
}

type registryEntry[T any] struct {
	id uint64
	fn T
}

// Registry contains ordered lists of listeners.
//
// Registration and dispatch may happen concurrently: dispatch uses a
// snapshot of the lists taken when parsing begins.
//
// Construct using [NewRegistry]. The zero value is ready to use.
type Registry struct {
	mu        sync.Mutex
	nextID    uint64
	raw       []registryEntry[RawListener]
	questions []registryEntry[QuestionListener]
	records   []registryEntry[RecordListener]
}

// NewRegistry constructs a new empty [*Registry].
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterRaw appends fn to the raw listeners.
func (r *Registry) RegisterRaw(fn RawListener) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.raw = registryAppend(r.raw, registryEntry[RawListener]{r.nextID, fn})
	return Handle{CategoryRaw, r.nextID}
}

// RegisterQuestion appends fn to the question listeners.
func (r *Registry) RegisterQuestion(fn QuestionListener) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.questions = registryAppend(r.questions, registryEntry[QuestionListener]{r.nextID, fn})
	return Handle{CategoryQuestion, r.nextID}
}

// RegisterRecord appends fn to the record listeners.
func (r *Registry) RegisterRecord(fn RecordListener) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.records = registryAppend(r.records, registryEntry[RecordListener]{r.nextID, fn})
	return Handle{CategoryRecord, r.nextID}
}

// Unregister removes the listener identified by h and
// returns whether such a listener was registered.
func (r *Registry) Unregister(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found bool
	switch h.category {
	case CategoryRaw:
		r.raw, found = registryRemove(r.raw, h.id)
	case CategoryQuestion:
		r.questions, found = registryRemove(r.questions, h.id)
	case CategoryRecord:
		r.records, found = registryRemove(r.records, h.id)
	}
	return found
}

// Clear removes all the registered listeners.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw, r.questions, r.records = nil, nil, nil
}

// Len returns the number of listeners registered for the given category.
func (r *Registry) Len(category Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch category {
	case CategoryRaw:
		return len(r.raw)
	case CategoryQuestion:
		return len(r.questions)
	case CategoryRecord:
		return len(r.records)
	default:
		return 0
	}
}

// The lists are copy-on-write: a snapshot keeps pointing to the
// backing arrays that existed when it was taken.

func registryAppend[T any](entries []registryEntry[T], e registryEntry[T]) []registryEntry[T] {
	return append(slices.Clip(entries), e)
}

func registryRemove[T any](entries []registryEntry[T], id uint64) ([]registryEntry[T], bool) {
	idx := slices.IndexFunc(entries, func(e registryEntry[T]) bool { return e.id == id })
	if idx < 0 {
		return entries, false
	}
	out := make([]registryEntry[T], 0, len(entries)-1)
	out = append(out, entries[:idx]...)
	out = append(out, entries[idx+1:]...)
	return out, true
}

// registrySnapshot is a consistent view of the listeners.
type registrySnapshot struct {
	raw       []registryEntry[RawListener]
	questions []registryEntry[QuestionListener]
	records   []registryEntry[RecordListener]
}

func (r *Registry) snapshot() registrySnapshot {
	if r == nil {
		return registrySnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return registrySnapshot{raw: r.raw, questions: r.questions, records: r.records}
}

// dispatcher invokes listeners and collects their failures.
type dispatcher struct {
	errs []error
}

// call invokes fn inside a failure boundary.
func (d *dispatcher) call(fn func() error) {
	if err := dispatchSafely(fn); err != nil {
		d.errs = append(d.errs, err)
	}
}

func dispatchSafely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	return fn()
}

func (d *dispatcher) raw(snap registrySnapshot, sender net.Addr, msg []byte) {
	for _, e := range snap.raw {
		d.call(func() error { return e.fn(sender, msg) })
	}
}

func (d *dispatcher) question(snap registrySnapshot, sender net.Addr, q Question, msg []byte, off int) {
	for _, e := range snap.questions {
		d.call(func() error { return e.fn(sender, q, msg, off) })
	}
}

func (d *dispatcher) record(snap registrySnapshot, sender net.Addr, section Section, rr Record, msg []byte, off int) {
	for _, e := range snap.records {
		d.call(func() error { return e.fn(sender, section, rr, msg, off) })
	}
}
