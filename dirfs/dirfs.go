// Package dirfs provides directory handles for driving pseudo-filesystems such as
// configfs and sysfs. All names passed to a Dir are relative to it and may contain
// slashes, like the *at family of system calls.
package dirfs

import (
	"errors"
	"os"
	"strings"
)

// Dir is an open handle on a directory. Handles are owned by whoever opened them
// and must be closed exactly once.
type Dir interface {
	// OpenDir opens a handle on a subdirectory
	OpenDir(name string) (Dir, error)
	// Mkdir creates a subdirectory. An existing entry results in an error matching os.ErrExist.
	Mkdir(name string) error
	// RemoveDir removes a subdirectory
	RemoveDir(name string) error
	// Writable returns nil when the entry exists and may be written to
	Writable(name string) error

	// WriteAttr opens an attribute, writes a single value to it and closes it again
	WriteAttr(name string, value string) error
	// ReadAttr opens an attribute, reads a single line from it and closes it again
	ReadAttr(name string) (string, error)

	Close() error
}

var (
	// ErrorShortWrite is returned when the attribute did not accept the whole value
	ErrorShortWrite = errors.New("short write to attribute")
)

// MaxAttrSize is the largest attribute value that will be read
const MaxAttrSize = 4096

func encodeAttr(value string) []byte {
	return []byte(value + "\n")
}

func decodeAttr(raw []byte) string {
	return strings.TrimSuffix(string(raw), "\n")
}

// EnsureDir creates a subdirectory unless it already exists and is writable
func EnsureDir(d Dir, name string) error {
	err := d.Writable(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return d.Mkdir(name)
}
