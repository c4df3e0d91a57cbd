//go:build !linux

package dirfs

import (
	"errors"
	"os"
)

// ErrorUnsupported is returned by OpenOS on platforms without the *at system calls in use
var ErrorUnsupported = errors.New("directory handles are only supported on linux")

// OSDir is unavailable on this platform
type OSDir struct {
	AferoDir
}

// OpenOS always fails on this platform
func OpenOS(p string) (*OSDir, error) {
	return nil, &os.PathError{Op: "open", Path: p, Err: ErrorUnsupported}
}
