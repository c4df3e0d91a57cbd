package simtest

import (
	"path"

	"github.com/BertoldVdb/gpiosim/dirfs"
)

// dir forwards to an afero backed handle, letting the kernel react to changes
// in configfs and sysfs
type dir struct {
	k      *Kernel
	inner  dirfs.Dir
	path   string
	config bool
}

func (d *dir) OpenDir(name string) (dirfs.Dir, error) {
	inner, err := d.inner.OpenDir(name)
	if err != nil {
		return nil, err
	}
	d.k.handles++

	return &dir{k: d.k, inner: inner, path: path.Join(d.path, name), config: d.config}, nil
}

func (d *dir) Mkdir(name string) error {
	p := path.Join(d.path, name)
	if d.config {
		if err := d.k.mkdir(p); err != nil {
			return err
		}
	}

	if err := d.inner.Mkdir(name); err != nil {
		return err
	}

	if d.config {
		return d.k.created(p)
	}
	return nil
}

func (d *dir) RemoveDir(name string) error {
	if d.config {
		if err := d.k.remove(path.Join(d.path, name)); err != nil {
			return err
		}
	}
	return d.inner.RemoveDir(name)
}

func (d *dir) Writable(name string) error {
	return d.inner.Writable(name)
}

func (d *dir) WriteAttr(name string, value string) error {
	p := path.Join(d.path, name)
	if d.config {
		if err := d.k.write(p, value); err != nil {
			return err
		}
	}

	if err := d.inner.WriteAttr(name, value); err != nil {
		return err
	}

	if !d.config {
		return d.k.pulled(p, value)
	}
	return nil
}

func (d *dir) ReadAttr(name string) (string, error) {
	return d.inner.ReadAttr(name)
}

func (d *dir) Close() error {
	if err := d.inner.Close(); err != nil {
		return err
	}
	d.k.handles--
	return nil
}
