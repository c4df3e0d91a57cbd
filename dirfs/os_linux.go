package dirfs

import (
	"os"
	"path"

	"golang.org/x/sys/unix"
)

// OSDir is a Dir backed by an open directory file descriptor
type OSDir struct {
	fd   int
	path string
}

func pathError(op string, p string, err error) error {
	return &os.PathError{Op: op, Path: p, Err: err}
}

// OpenOS opens a handle on the directory at p
func OpenOS(p string) (*OSDir, error) {
	fd, err := unix.Open(p, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, pathError("open", p, err)
	}

	return &OSDir{fd: fd, path: p}, nil
}

// Path returns the path the directory was opened with
func (d *OSDir) Path() string {
	return d.path
}

func (d *OSDir) OpenDir(name string) (Dir, error) {
	fd, err := unix.Openat(d.fd, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, pathError("openat", path.Join(d.path, name), err)
	}

	return &OSDir{fd: fd, path: path.Join(d.path, name)}, nil
}

func (d *OSDir) Mkdir(name string) error {
	if err := unix.Mkdirat(d.fd, name, 0755); err != nil {
		return pathError("mkdirat", path.Join(d.path, name), err)
	}
	return nil
}

func (d *OSDir) RemoveDir(name string) error {
	if err := unix.Unlinkat(d.fd, name, unix.AT_REMOVEDIR); err != nil {
		return pathError("unlinkat", path.Join(d.path, name), err)
	}
	return nil
}

func (d *OSDir) Writable(name string) error {
	if err := unix.Faccessat(d.fd, name, unix.W_OK, 0); err != nil {
		return pathError("faccessat", path.Join(d.path, name), err)
	}
	return nil
}

func (d *OSDir) WriteAttr(name string, value string) error {
	p := path.Join(d.path, name)

	fd, err := unix.Openat(d.fd, name, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return pathError("openat", p, err)
	}

	buf := encodeAttr(value)
	n, err := unix.Write(fd, buf)
	unix.Close(fd)
	if err != nil {
		return pathError("write", p, err)
	}
	if n != len(buf) {
		return pathError("write", p, ErrorShortWrite)
	}

	return nil
}

func (d *OSDir) ReadAttr(name string) (string, error) {
	p := path.Join(d.path, name)

	fd, err := unix.Openat(d.fd, name, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return "", pathError("openat", p, err)
	}
	defer unix.Close(fd)

	/* Pseudo-filesystem attributes are returned by a single read */
	buf := make([]byte, MaxAttrSize)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return "", pathError("read", p, err)
	}

	return decodeAttr(buf[:n]), nil
}

func (d *OSDir) Close() error {
	if d.fd < 0 {
		return pathError("close", d.path, os.ErrClosed)
	}

	err := unix.Close(d.fd)
	d.fd = -1
	if err != nil {
		return pathError("close", d.path, err)
	}
	return nil
}
