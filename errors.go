// SPDX-License-Identifier: GPL-3.0-or-later

package mdnscodec

import (
	"errors"
	"fmt"
)

// Errors returned by the decoding and encoding functions.
var (
	// ErrBufferUnderrun indicates that a field or a section declares
	// more bytes than the ones remaining in the message.
	ErrBufferUnderrun = errors.New("buffer underrun")

	// ErrMalformedPointer indicates that a compression pointer points
	// outside the message or that following pointers does not terminate
	// within the configured depth and byte budget.
	ErrMalformedPointer = errors.New("malformed compression pointer")

	// ErrInvalidLabel indicates a label using the reserved 0x40 or 0x80
	// label types, which we do not support.
	ErrInvalidLabel = errors.New("invalid label type")

	// ErrInvalidName indicates that we cannot encode a domain name.
	ErrInvalidName = errors.New("invalid domain name")

	// ErrRdataTooLong indicates that the record data does not fit
	// into the 16 bit RDLENGTH field.
	ErrRdataTooLong = errors.New("record data too long")

	// ErrListenerPanic indicates that a listener panicked while
	// handling a decoded message, question, or record.
	ErrListenerPanic = errors.New("listener panicked")
)

// SectionError is the error returned when we cannot decode a section.
//
// Use [errors.Is] to compare with the underlying error.
type SectionError struct {
	// Section is the section we were decoding.
	Section Section

	// Index is the zero-based index of the failed entry within Section.
	Index int

	// Offset is the offset where the failed entry begins.
	Offset int

	// Err is the underlying error.
	Err error
}

var _ error = &SectionError{}

// Error implements error.
func (e *SectionError) Error() string {
	return fmt.Sprintf("%s #%d at offset %d: %s", e.Section, e.Index, e.Offset, e.Err.Error())
}

// Unwrap returns the underlying error.
func (e *SectionError) Unwrap() error {
	return e.Err
}
