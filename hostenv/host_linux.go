package hostenv

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/BertoldVdb/gpiosim/dirfs"
	"golang.org/x/sys/unix"
)

func release() (string, error) {
	var un unix.Utsname
	if err := unix.Uname(&un); err != nil {
		return "", os.NewSyscallError("uname", err)
	}
	return unix.ByteSliceToString(un.Release[:]), nil
}

// CheckKernel fails if the running kernel predates gpio-sim
func (h *Host) CheckKernel() error {
	rel, err := release()
	if err != nil {
		return err
	}
	return CheckKernelRelease(rel)
}

// CheckModule makes sure gpio-sim is built in or loaded, loading it if needed
func (h *Host) CheckModule() error {
	rel, err := release()
	if err != nil {
		return err
	}
	if h.isBuiltin(rel) {
		return nil
	}

	state, err := h.moduleState()
	if err == nil {
		return state.usable()
	}
	if !errors.Is(err, ErrorModuleNotFound) || h.Modprobe == "" {
		return err
	}

	if h.Log != nil {
		h.Log.WithField("module", ModuleName).Debug("Loading kernel module")
	}
	if out, err := exec.Command(h.Modprobe, ModuleName).CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrorModuleNotFound, h.Modprobe, err, out)
	}

	state, err = h.moduleState()
	if err != nil {
		return err
	}
	return state.usable()
}

// Mount returns a handle on the configfs root. If configfs is not mounted anywhere,
// it is mounted on a new temporary directory and unmount undoes that.
func (h *Host) Mount() (root dirfs.Dir, unmount func() error, err error) {
	if mnt, err := h.findConfigfs(); err == nil {
		root, err := dirfs.OpenOS(mnt)
		if err != nil {
			return nil, nil, err
		}
		return root, nil, nil
	} else if !errors.Is(err, ErrorNotMounted) {
		return nil, nil, err
	}

	tmp, err := os.MkdirTemp(h.TempDir, "gpiosim-configfs-")
	if err != nil {
		return nil, nil, err
	}

	err = unix.Mount("none", tmp, "configfs", unix.MS_RELATIME, "")
	if err != nil {
		os.Remove(tmp)
		return nil, nil, os.NewSyscallError("mount", err)
	}

	unmount = func() error {
		if err := unix.Unmount(tmp, 0); err != nil {
			return os.NewSyscallError("umount", err)
		}
		return os.Remove(tmp)
	}

	d, err := dirfs.OpenOS(tmp)
	if err != nil {
		unmount()
		return nil, nil, err
	}

	if h.Log != nil {
		h.Log.WithField("path", tmp).Debug("Mounted configfs")
	}

	return d, unmount, nil
}
