package dirfs

import (
	"io"
	"os"
	"path"
	"syscall"

	"github.com/spf13/afero"
)

// AferoDir is a Dir backed by an afero.Fs. Removal follows configfs rules: a
// directory can be removed together with its attributes (plain files), but not
// while it still has subdirectories.
type AferoDir struct {
	fs     afero.Fs
	path   string
	closed bool
}

// OpenAfero opens a handle on the directory root of fs
func OpenAfero(fs afero.Fs, root string) (*AferoDir, error) {
	d := &AferoDir{fs: fs, path: path.Clean("/" + root)}

	if err := d.checkDir(d.path, "open"); err != nil {
		return nil, err
	}

	return d, nil
}

// Path returns the location of the directory inside the afero.Fs
func (d *AferoDir) Path() string {
	return d.path
}

func (d *AferoDir) resolve(op string, name string) (string, error) {
	if d.closed {
		return "", &os.PathError{Op: op, Path: path.Join(d.path, name), Err: os.ErrClosed}
	}
	return path.Join(d.path, name), nil
}

func (d *AferoDir) checkDir(p string, op string) error {
	info, err := d.fs.Stat(p)
	if err != nil {
		return &os.PathError{Op: op, Path: p, Err: os.ErrNotExist}
	}
	if !info.IsDir() {
		return &os.PathError{Op: op, Path: p, Err: syscall.ENOTDIR}
	}
	return nil
}

func (d *AferoDir) OpenDir(name string) (Dir, error) {
	p, err := d.resolve("openat", name)
	if err != nil {
		return nil, err
	}
	if err := d.checkDir(p, "openat"); err != nil {
		return nil, err
	}

	return &AferoDir{fs: d.fs, path: p}, nil
}

func (d *AferoDir) Mkdir(name string) error {
	p, err := d.resolve("mkdirat", name)
	if err != nil {
		return err
	}
	if err := d.checkDir(path.Dir(p), "mkdirat"); err != nil {
		return err
	}

	return d.fs.Mkdir(p, 0700)
}

func (d *AferoDir) RemoveDir(name string) error {
	p, err := d.resolve("unlinkat", name)
	if err != nil {
		return err
	}
	if err := d.checkDir(p, "unlinkat"); err != nil {
		return err
	}

	entries, err := afero.ReadDir(d.fs, p)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			return &os.PathError{Op: "unlinkat", Path: p, Err: syscall.ENOTEMPTY}
		}
	}

	return d.fs.RemoveAll(p)
}

func (d *AferoDir) Writable(name string) error {
	p, err := d.resolve("faccessat", name)
	if err != nil {
		return err
	}

	info, err := d.fs.Stat(p)
	if err != nil {
		return &os.PathError{Op: "faccessat", Path: p, Err: os.ErrNotExist}
	}
	if info.Mode().Perm()&0200 == 0 {
		return &os.PathError{Op: "faccessat", Path: p, Err: os.ErrPermission}
	}

	return nil
}

func (d *AferoDir) WriteAttr(name string, value string) error {
	p, err := d.resolve("write", name)
	if err != nil {
		return err
	}
	if err := d.checkDir(path.Dir(p), "write"); err != nil {
		return err
	}

	f, err := d.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	buf := encodeAttr(value)
	n, err := f.Write(buf)
	f.Close()
	if err != nil {
		return err
	}
	if n != len(buf) {
		return &os.PathError{Op: "write", Path: p, Err: ErrorShortWrite}
	}

	return nil
}

func (d *AferoDir) ReadAttr(name string) (string, error) {
	p, err := d.resolve("read", name)
	if err != nil {
		return "", err
	}

	f, err := d.fs.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, MaxAttrSize)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	return decodeAttr(buf[:n]), nil
}

func (d *AferoDir) Close() error {
	if d.closed {
		return &os.PathError{Op: "close", Path: d.path, Err: os.ErrClosed}
	}
	d.closed = true
	return nil
}
