// SPDX-License-Identifier: GPL-3.0-or-later

package mdnscodec

import "net"

// ParseResult is the outcome of [Parse].
type ParseResult struct {
	// Header is the decoded header. It is the zero value when
	// the message is shorter than [HeaderSize].
	Header Header

	// Questions is the number of questions successfully decoded.
	Questions int

	// Answers is the number of answer records successfully decoded.
	Answers int

	// Authorities is the number of authority records successfully decoded.
	Authorities int

	// Additionals is the number of additional records successfully decoded.
	Additionals int

	// ListenerErrors contains the errors returned by listeners and the
	// panics they raised, wrapped using [ErrListenerPanic]. These errors
	// never interrupt parsing.
	ListenerErrors []error

	// Err is nil when all the sections declared by the header have been
	// decoded. Otherwise, it is a [*SectionError] describing where decoding
	// stopped. A non-nil Err means the message should be discarded.
	Err error
}

// Complete returns whether all the declared sections have been decoded.
func (pr *ParseResult) Complete() bool {
	return pr.Err == nil
}

// Records returns the total number of records successfully decoded.
func (pr *ParseResult) Records() int {
	return pr.Answers + pr.Authorities + pr.Additionals
}

// Parse decodes msg and dispatches its content to the listeners in reg.
//
// The sender argument is passed through to listeners and may be nil.
//
// Counts in the header are the only framing information: when an entry
// cannot be decoded, parsing stops and the result records how many entries
// of each section were decoded before the failure. Listeners already
// invoked are not affected by later failures.
//
// A nil reg is equivalent to an empty [*Registry].
func Parse(reg *Registry, sender net.Addr, msg []byte) *ParseResult {
	// 1. make sure we can read the header
	pr := &ParseResult{}
	c := &cursor{msg: msg}
	header, err := decodeHeader(c)
	if err != nil {
		pr.Err = &SectionError{Section: SectionHeader, Offset: 0, Err: err}
		return pr
	}
	pr.Header = header

	// 2. notify raw listeners before decoding anything else
	snap := reg.snapshot()
	d := &dispatcher{}
	defer func() { pr.ListenerErrors = d.errs }()
	d.raw(snap, sender, msg)

	// 3. decode and dispatch the questions
	for idx := 0; idx < int(header.QDCount); idx++ {
		start := c.off
		q, err := decodeQuestion(c)
		if err != nil {
			pr.Err = &SectionError{Section: SectionQuestion, Index: idx, Offset: start, Err: err}
			return pr
		}
		pr.Questions++
		d.question(snap, sender, q, msg, c.off)
	}

	// 4. decode and dispatch the records
	sections := []struct {
		section Section
		count   uint16
		decoded *int
	}{
		{SectionAnswer, header.ANCount, &pr.Answers},
		{SectionAuthority, header.NSCount, &pr.Authorities},
		{SectionAdditional, header.ARCount, &pr.Additionals},
	}
	for _, s := range sections {
		for idx := 0; idx < int(s.count); idx++ {
			start := c.off
			rr, rdstart, err := decodeRecord(c)
			if err != nil {
				pr.Err = &SectionError{Section: s.section, Index: idx, Offset: start, Err: err}
				return pr
			}
			*s.decoded++
			d.record(snap, sender, s.section, rr, msg, rdstart)

			// RDLENGTH is authoritative regardless of what the listeners did
			if err := c.seek(rdstart + len(rr.Data)); err != nil {
				pr.Err = &SectionError{Section: s.section, Index: idx, Offset: start, Err: err}
				return pr
			}
		}
	}

	return pr
}
