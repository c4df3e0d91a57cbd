package gpiosim

import (
	"github.com/BertoldVdb/gpiosim/dirfs"
	"github.com/BertoldVdb/gpiosim/refcount"
	"github.com/sirupsen/logrus"
)

// Device is a simulated platform device. It is created pending; its banks
// become chips once it is activated.
type Device struct {
	ref refcount.Ref
	ctx *Context

	itemName string
	name     string
	live     bool

	cfsDir dirfs.Dir
	sysDir dirfs.Dir
	banks  []*Bank

	log *logrus.Entry
}

// NewDevice creates a device in the configfs tree. An empty name selects a random one.
func (c *Context) NewDevice(name string) (*Device, error) {
	itemName, err := dirfs.MakeItem(c.cfsDir, name)
	if err != nil {
		return nil, itemError("create device", err)
	}

	dev := &Device{
		itemName: itemName,
		log:      c.log.WithField("device", itemName),
	}

	dev.cfsDir, err = c.cfsDir.OpenDir(itemName)
	if err != nil {
		err = ioError("open device", err)
		goto failedUnlink
	}

	dev.name, err = dev.cfsDir.ReadAttr("dev_name")
	if err != nil {
		err = ioError("read dev_name", err)
		goto failedClose
	}

	dev.ctx = c.Acquire()
	dev.ref.Init(dev.release)
	dev.log.WithField("name", dev.name).Debug("Device created")

	return dev, nil

failedClose:
	dev.cfsDir.Close()
failedUnlink:
	c.cfsDir.RemoveDir(itemName)
	return nil, err
}

// Acquire takes an additional reference to the device
func (d *Device) Acquire() *Device {
	d.ref.Acquire()
	return d
}

// Release drops a reference. Dropping the last one deactivates the device if
// needed and removes it from configfs.
func (d *Device) Release() {
	d.ref.Release()
}

func (d *Device) release() {
	if d.live {
		if err := d.Deactivate(); err != nil {
			d.log.WithError(err).Warn("Failed to deactivate device")
			d.closeStatusDirs()
			d.live = false
		}
	}

	if err := d.ctx.cfsDir.RemoveDir(d.itemName); err != nil {
		d.log.WithError(err).Warn("Failed to remove device")
	}
	d.cfsDir.Close()
	d.ctx.Release()

	d.log.Debug("Device released")
}

// Context returns the owning context with an additional reference
func (d *Device) Context() *Context {
	return d.ctx.Acquire()
}

// Name returns the platform device name assigned by the kernel
func (d *Device) Name() string {
	return d.name
}

// ItemName returns the name of the device directory in configfs
func (d *Device) ItemName() string {
	return d.itemName
}

// Log returns the logger carrying the fields of this device
func (d *Device) Log() *logrus.Entry {
	return d.log
}

// IsLive returns true while the device is activated
func (d *Device) IsLive() bool {
	return d.live
}

// Banks returns the banks of the device in creation order
func (d *Device) Banks() []*Bank {
	return append([]*Bank(nil), d.banks...)
}

func (d *Device) checkPending(op string) error {
	if d.live {
		return errorBusy(op)
	}
	return nil
}

func (d *Device) checkLive(op string) error {
	if !d.live {
		return errorNoDev(op)
	}
	return nil
}

// closeStatusDirs closes the sysfs handles of the device and its banks
func (d *Device) closeStatusDirs() {
	for _, b := range d.banks {
		b.deactivate()
	}

	if d.sysDir != nil {
		d.sysDir.Close()
		d.sysDir = nil
	}
}

func (d *Device) rollbackLive() {
	if err := d.cfsDir.WriteAttr("live", "0"); err != nil {
		d.log.WithError(err).Warn("Failed to roll back activation")
	}
}

// Activate takes the device live, creating a chip for every bank. Either all
// banks are activated or none are.
func (d *Device) Activate() error {
	if err := d.checkPending("activate"); err != nil {
		return err
	}

	if err := d.cfsDir.WriteAttr("live", "1"); err != nil {
		return ioError("activate", err)
	}

	sysDir, err := d.ctx.statusRoot.OpenDir(d.name)
	if err != nil {
		d.rollbackLive()
		return newError(ErrorActivationFailed, "open device status", err)
	}
	d.sysDir = sysDir

	for _, b := range d.banks {
		if err := b.activate(); err != nil {
			d.closeStatusDirs()
			d.rollbackLive()
			return err
		}
	}

	d.live = true
	d.log.Debug("Device activated")

	return nil
}

// Deactivate takes the device offline, removing its chips
func (d *Device) Deactivate() error {
	if err := d.checkLive("deactivate"); err != nil {
		return err
	}

	if err := d.cfsDir.WriteAttr("live", "0"); err != nil {
		return ioError("deactivate", err)
	}

	d.closeStatusDirs()
	d.live = false
	d.log.Debug("Device deactivated")

	return nil
}

func (d *Device) removeBank(bank *Bank) {
	for i, b := range d.banks {
		if b == bank {
			d.banks = append(d.banks[:i], d.banks[i+1:]...)
			return
		}
	}
}
