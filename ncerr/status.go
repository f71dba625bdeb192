package ncerr

import (
	"github.com/pkg/errors"
)

// Reader errors. Both are fatal for the message being read; a reader
// error on a required node terminates the session.
var (
	// ErrReaderEOF indicates the XML input ended.
	ErrReaderEOF = errors.New("xml reader EOF")
	// ErrReaderInternal indicates malformed XML or an internal reader fault.
	ErrReaderInternal = errors.New("xml reader internal error")
)

// Protocol routing and node matching errors (recoverable).
var (
	ErrWrongNodeType      = errors.New("wrong node type")
	ErrWrongNodeDepth     = errors.New("wrong node depth")
	ErrDefinitionNotFound = errors.New("definition not found")
	ErrUnknownNamespace   = errors.New("unknown namespace")
	ErrWrongNamespace     = errors.New("wrong namespace")
	ErrUnknownElement     = errors.New("unknown element")
	ErrWrongElement       = errors.New("wrong element")
	ErrMissingAttribute   = errors.New("missing attribute")
	ErrMissingElement     = errors.New("missing element")
	ErrInvalidValue       = errors.New("invalid value")
	ErrExtraNodes         = errors.New("extra nodes after message")
	ErrInvalidState       = errors.New("invalid session state")
	ErrNotFound           = errors.New("entry not found")
)

// Programming errors. These should never occur in a correct embedding.
var (
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidName    = errors.New("invalid name")
	ErrInternalPtr    = errors.New("internal nil argument")
	ErrInternalValue  = errors.New("internal invalid value")
)

// IsFatal reports whether err terminates the current input stream.
func IsFatal(err error) bool {
	return errors.Is(err, ErrReaderEOF) || errors.Is(err, ErrReaderInternal)
}

// IsRecoverable reports whether err may be logged and absorbed by the
// layer which detected it.
func IsRecoverable(err error) bool { return err != nil && !IsFatal(err) }

// IsProgramming reports whether err is an internal usage error.
func IsProgramming(err error) bool {
	for _, e := range []error{ErrDuplicateEntry, ErrInvalidName, ErrInternalPtr, ErrInternalValue} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
