package backup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrVersionConflict is returned by a Ledger when a version row would break the
// contiguous 1..k sequence for a file. It indicates a logic error and aborts the scan.
var ErrVersionConflict = errors.New("version conflict")

// RemoteError is a remote call that kept failing transiently until the retry
// budget ran out. Unwrap returns the last transient error.
type RemoteError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsTerminal reports whether err is a remote call whose retries were exhausted.
func IsTerminal(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// MalformedListingError reports a subfolder listing entry that lacks a field the
// traversal needs. It fails the branch it was found in.
type MalformedListingError struct {
	ParentID string
	Item     RemoteItem
	Missing  []string
}

func (e *MalformedListingError) Error() string {
	return fmt.Sprintf("malformed listing under folder %s: entry id=%q name=%q missing %s",
		e.ParentID, e.Item.ID, e.Item.Name, strings.Join(e.Missing, ", "))
}

// abortError stops the whole scan: ledger failures and cancellation.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

func abort(err error) error {
	var a *abortError
	if errors.As(err, &a) {
		return err
	}
	return &abortError{err: err}
}

func isAbort(err error) bool {
	var a *abortError
	return errors.As(err, &a)
}
