// Package diag provides a small bounded last-error slot for aggregates
// that survive past a failed operation (a transaction builder, a
// provider client) and want a one-line diagnostic retrievable after the
// fact, without turning every failure into an exception.
package diag

import "sync"

// maxLastErrorBytes bounds the diagnostic slot; a new message longer
// than this is truncated rather than rejected.
const maxLastErrorBytes = 1024

// LastError is a bounded, overwrite-on-write diagnostic slot. The zero
// value is ready to use. Safe for concurrent use since provider clients
// may be shared across goroutines even though the domain types
// themselves are not.
type LastError struct {
	mu  sync.Mutex
	msg string
}

// Set records msg as the most recent diagnostic, truncating it to
// maxLastErrorBytes. Passing an empty string clears the slot.
func (l *LastError) Set(msg string) {
	if len(msg) > maxLastErrorBytes {
		msg = msg[:maxLastErrorBytes]
	}
	l.mu.Lock()
	l.msg = msg
	l.mu.Unlock()
}

// SetErr records err's message, or clears the slot if err is nil.
func (l *LastError) SetErr(err error) {
	if err == nil {
		l.Set("")
		return
	}
	l.Set(err.Error())
}

// LastError returns the most recently recorded diagnostic, or "" if
// none has been set.
func (l *LastError) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.msg
}
