package dbustype

import (
	"fmt"
	"regexp"
	"runtime"
	"syscall"
)

// ObjectPath is the host representation of the D-Bus 'o' type: a string
// restricted to the object path grammar.
type ObjectPath string

var objectPathRE = regexp.MustCompile(`^/$|^(/[A-Za-z0-9_]+)+$`)

// Valid reports whether p conforms to the D-Bus object path grammar.
func (p ObjectPath) Valid() bool {
	return objectPathRE.MatchString(string(p))
}

// Signature is the host representation of the D-Bus 'g' type: a nested
// type description string, limited to 255 bytes on the wire.
type Signature string

// Valid reports whether s is a syntactically valid signature, including
// the empty signature (void).
func (s Signature) Valid() bool {
	if len(s) > 255 {
		return false
	}
	if s == "" {
		return true
	}
	_, err := ParseSignature(string(s))
	return err == nil
}

// UnixFD is a file descriptor slot transmitted out-of-band alongside a
// D-Bus message. Decoded UnixFDs are owned by the host value until
// either Take is called (transferring ownership to the caller) or the
// runtime closes them at handler-return time; see dispatch.Connection.
type UnixFD struct {
	fd     int
	taken  bool
	closed bool
}

// NewUnixFD wraps an already-duplicated file descriptor. A finalizer
// stands in as a last-resort backstop against a leaked fd if neither
// Take nor Close is ever called; it is not the primary closing path.
func NewUnixFD(fd int) *UnixFD {
	u := &UnixFD{fd: fd}
	runtime.SetFinalizer(u, func(u *UnixFD) {
		_ = u.Close(syscall.Close)
	})
	return u
}

// Fd returns the underlying descriptor number.
func (u *UnixFD) Fd() int { return u.fd }

// Take marks the descriptor as claimed by the caller; the dispatch
// framework will not close a taken descriptor.
func (u *UnixFD) Take() int {
	u.taken = true
	return u.fd
}

// Taken reports whether Take has been called.
func (u *UnixFD) Taken() bool { return u.taken }

// Close closes the descriptor if it has not already been taken or
// closed. It is safe to call more than once.
func (u *UnixFD) Close(closer func(fd int) error) error {
	if u.taken || u.closed {
		return nil
	}
	u.closed = true
	if closer == nil {
		return nil
	}
	return closer(u.fd)
}

func (u *UnixFD) String() string {
	return fmt.Sprintf("UnixFD(%d)", u.fd)
}
