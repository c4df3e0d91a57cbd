// Package simtest fakes the kernel side of gpio-sim on an in-memory filesystem.
//
// A Kernel behaves like the driver as seen through configfs and sysfs: new
// device directories get a dev_name, writing "1" to a device's live attribute
// assigns chip names to its banks and populates the sysfs tree, and live items
// refuse changes with EBUSY. It provides CheckKernel, CheckModule, Mount and
// OpenStatusRoot so it can stand in for the host in gpiosim.Options.
package simtest

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"syscall"

	"github.com/BertoldVdb/gpiosim/dirfs"
	"github.com/spf13/afero"
)

const (
	// ConfigfsPath is where configfs is mounted in the fake filesystem
	ConfigfsPath = "/config"
	// SubsystemPath is the gpio-sim directory inside configfs
	SubsystemPath = ConfigfsPath + "/gpio-sim"
	// StatusPath is the sysfs directory holding the platform devices
	StatusPath = "/sys/devices/platform"
)

// Kernel is a fake gpio-sim driver. Set the exported fields to inject failures.
type Kernel struct {
	Fs afero.Fs

	KernelError error
	ModuleError error
	MountError  error
	StatusError error

	// SelfMounted makes Mount report a mount that must be undone
	SelfMounted bool
	// Unmounted is set when the unmount function returned by Mount was called
	Unmounted bool

	// FailDevName stops new devices from getting a dev_name attribute
	FailDevName bool
	// HideStatus stops live devices from appearing in sysfs
	HideStatus bool
	// FailChipName lists banks (by configfs name) that get no chip_name when going live
	FailChipName map[string]bool

	devices int
	chips   int
	handles int
	live    map[string]bool
	outputs map[string]bool
}

// New returns a fake kernel with the gpio-sim module loaded
func New() *Kernel {
	k := &Kernel{
		Fs:           afero.NewMemMapFs(),
		FailChipName: make(map[string]bool),
		live:         make(map[string]bool),
		outputs:      make(map[string]bool),
	}

	k.Fs.MkdirAll(SubsystemPath, 0700)
	k.Fs.MkdirAll(StatusPath, 0700)

	return k
}

func (k *Kernel) CheckKernel() error {
	return k.KernelError
}

func (k *Kernel) CheckModule() error {
	return k.ModuleError
}

func (k *Kernel) Mount() (dirfs.Dir, func() error, error) {
	if k.MountError != nil {
		return nil, nil, k.MountError
	}

	d, err := k.open(ConfigfsPath, true)
	if err != nil {
		return nil, nil, err
	}

	var unmount func() error
	if k.SelfMounted {
		unmount = func() error {
			k.Unmounted = true
			return nil
		}
	}

	return d, unmount, nil
}

func (k *Kernel) OpenStatusRoot() (dirfs.Dir, error) {
	if k.StatusError != nil {
		return nil, k.StatusError
	}
	return k.open(StatusPath, false)
}

func (k *Kernel) open(p string, config bool) (dirfs.Dir, error) {
	inner, err := dirfs.OpenAfero(k.Fs, p)
	if err != nil {
		return nil, err
	}
	k.handles++

	return &dir{k: k, inner: inner, path: p, config: config}, nil
}

// OpenHandles returns the number of directory handles that were opened and not yet closed
func (k *Kernel) OpenHandles() int {
	return k.handles
}

// Exists returns true if p exists in the fake filesystem
func (k *Kernel) Exists(p string) bool {
	ok, _ := afero.Exists(k.Fs, p)
	return ok
}

// Attr returns the content of an attribute without its trailing newline
func (k *Kernel) Attr(p string) (string, error) {
	raw, err := afero.ReadFile(k.Fs, p)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(raw), "\n"), nil
}

// SetAttr overwrites an attribute, as the driver would
func (k *Kernel) SetAttr(p string, value string) error {
	return afero.WriteFile(k.Fs, p, []byte(value+"\n"), 0600)
}

// Subdirs returns the names of the directories below p
func (k *Kernel) Subdirs(p string) []string {
	entries, err := afero.ReadDir(k.Fs, p)
	if err != nil {
		return nil
	}

	var result []string
	for _, e := range entries {
		if e.IsDir() {
			result = append(result, e.Name())
		}
	}
	return result
}

// IsLive returns true if the device with the given configfs name is live
func (k *Kernel) IsLive(item string) bool {
	return k.live[path.Join(SubsystemPath, item)]
}

// configItem splits a configfs path into its gpio-sim components and returns
// the device directory they belong to
func configItem(p string) ([]string, string) {
	rel := strings.TrimPrefix(p, SubsystemPath+"/")
	if rel == p {
		return nil, ""
	}

	parts := strings.Split(rel, "/")
	return parts, path.Join(SubsystemPath, parts[0])
}

func busy(op string, p string) error {
	return &os.PathError{Op: op, Path: p, Err: syscall.EBUSY}
}

func (k *Kernel) mkdir(p string) error {
	parts, devPath := configItem(p)
	if len(parts) > 1 && k.live[devPath] {
		return busy("mkdirat", p)
	}
	return nil
}

func (k *Kernel) created(p string) error {
	parts, _ := configItem(p)
	if len(parts) != 1 {
		return nil
	}

	name := fmt.Sprintf("gpio-sim.%d", k.devices)
	k.devices++
	if k.FailDevName {
		return nil
	}
	if err := k.SetAttr(path.Join(p, "dev_name"), name); err != nil {
		return err
	}
	return k.SetAttr(path.Join(p, "live"), "0")
}

func (k *Kernel) remove(p string) error {
	parts, devPath := configItem(p)
	if len(parts) > 0 && k.live[devPath] {
		return busy("unlinkat", p)
	}
	return nil
}

func (k *Kernel) write(p string, value string) error {
	parts, devPath := configItem(p)
	if len(parts) == 0 {
		return nil
	}

	if len(parts) == 2 && parts[1] == "live" {
		switch value {
		case "1":
			return k.goLive(devPath)
		case "0":
			return k.goDead(devPath)
		}
		return &os.PathError{Op: "write", Path: p, Err: syscall.EINVAL}
	}

	if k.live[devPath] {
		return busy("write", p)
	}
	return nil
}

func (k *Kernel) goLive(devPath string) error {
	if k.live[devPath] {
		return busy("write", path.Join(devPath, "live"))
	}

	devName, err := k.Attr(path.Join(devPath, "dev_name"))
	if err != nil {
		return err
	}

	if !k.HideStatus {
		if err := k.Fs.MkdirAll(path.Join(StatusPath, devName), 0700); err != nil {
			return err
		}
	}

	for _, bank := range k.Subdirs(devPath) {
		bankPath := path.Join(devPath, bank)

		numLines := 1
		if v, err := k.Attr(path.Join(bankPath, "num_lines")); err == nil {
			if numLines, err = strconv.Atoi(v); err != nil {
				return err
			}
		}

		chip := fmt.Sprintf("gpiochip%d", k.chips)
		k.chips++

		if !k.FailChipName[bank] {
			if err := k.SetAttr(path.Join(bankPath, "chip_name"), chip); err != nil {
				return err
			}
		}
		if k.HideStatus {
			continue
		}

		for i := 0; i < numLines; i++ {
			linePath := path.Join(StatusPath, devName, chip, fmt.Sprintf("sim_gpio%d", i))
			if err := k.Fs.MkdirAll(linePath, 0700); err != nil {
				return err
			}

			value := "0"
			hog, _ := k.Attr(path.Join(bankPath, fmt.Sprintf("line%d", i), "hog", "direction"))
			switch hog {
			case "output-high":
				value = "1"
				fallthrough
			case "output-low":
				k.outputs[linePath] = true
			}

			if err := k.SetAttr(path.Join(linePath, "value"), value); err != nil {
				return err
			}
			if err := k.SetAttr(path.Join(linePath, "pull"), "pull-down"); err != nil {
				return err
			}
		}
		if numLines == 0 {
			k.Fs.MkdirAll(path.Join(StatusPath, devName, chip), 0700)
		}
	}

	k.live[devPath] = true
	return nil
}

func (k *Kernel) goDead(devPath string) error {
	if !k.live[devPath] {
		return nil
	}

	devName, err := k.Attr(path.Join(devPath, "dev_name"))
	if err != nil {
		return err
	}

	sysPath := path.Join(StatusPath, devName)
	for p := range k.outputs {
		if strings.HasPrefix(p, sysPath+"/") {
			delete(k.outputs, p)
		}
	}
	if err := k.Fs.RemoveAll(sysPath); err != nil {
		return err
	}

	for _, bank := range k.Subdirs(devPath) {
		k.Fs.Remove(path.Join(devPath, bank, "chip_name"))
	}

	delete(k.live, devPath)
	return nil
}

// pulled updates the level of an input line after its pull was written
func (k *Kernel) pulled(p string, value string) error {
	if path.Base(p) != "pull" {
		return nil
	}

	linePath := path.Dir(p)
	if k.outputs[linePath] {
		return nil
	}

	level := "0"
	if value == "pull-up" {
		level = "1"
	}
	return k.SetAttr(path.Join(linePath, "value"), level)
}
