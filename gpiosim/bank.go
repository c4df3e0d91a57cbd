package gpiosim

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/BertoldVdb/gpiosim/dirfs"
	"github.com/BertoldVdb/gpiosim/refcount"
	"github.com/sirupsen/logrus"
)

// Bank is a group of simulated lines that becomes a GPIO chip when its device is live
type Bank struct {
	ref refcount.Ref
	dev *Device

	itemName string
	numLines uint

	cfsDir dirfs.Dir
	sysDir dirfs.Dir

	chipName string
	devPath  string

	log *logrus.Entry
}

// NewBank adds a bank to a pending device. An empty name selects a random one.
func (d *Device) NewBank(name string) (*Bank, error) {
	if err := d.checkPending("create bank"); err != nil {
		return nil, err
	}

	itemName, err := dirfs.MakeItem(d.cfsDir, name)
	if err != nil {
		return nil, itemError("create bank", err)
	}

	cfsDir, err := d.cfsDir.OpenDir(itemName)
	if err != nil {
		d.cfsDir.RemoveDir(itemName)
		return nil, ioError("open bank", err)
	}

	bank := &Bank{
		dev:      d.Acquire(),
		itemName: itemName,
		cfsDir:   cfsDir,
		log:      d.log.WithField("bank", itemName),
	}
	bank.ref.Init(bank.release)
	d.banks = append(d.banks, bank)

	bank.log.Debug("Bank created")

	return bank, nil
}

// Acquire takes an additional reference to the bank
func (b *Bank) Acquire() *Bank {
	b.ref.Acquire()
	return b
}

// Release drops a reference. Dropping the last one removes the bank, its line
// names and its hogs from configfs.
func (b *Bank) Release() {
	b.ref.Release()
}

func (b *Bank) removeWarn(name string) {
	err := b.cfsDir.RemoveDir(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		b.log.WithError(err).WithField("dir", name).Warn("Failed to remove line configuration")
	}
}

func (b *Bank) release() {
	dev := b.dev

	/* A live device cannot lose a bank */
	if dev.live {
		b.log.Warn("Bank released while device is live, deactivating device")
		if err := dev.Deactivate(); err != nil {
			b.log.WithError(err).Warn("Failed to deactivate device")
		}
	}

	for i := uint(0); i < b.numLines; i++ {
		b.removeWarn(hogDir(i))
		b.removeWarn(lineDir(i))
	}

	dev.removeBank(b)
	if err := dev.cfsDir.RemoveDir(b.itemName); err != nil {
		b.log.WithError(err).Warn("Failed to remove bank")
	}
	b.cfsDir.Close()
	if b.sysDir != nil {
		b.sysDir.Close()
		b.sysDir = nil
	}
	dev.Release()

	b.log.Debug("Bank released")
}

// Device returns the owning device with an additional reference
func (b *Bank) Device() *Device {
	return b.dev.Acquire()
}

// Name returns the name of the bank directory in configfs
func (b *Bank) Name() string {
	return b.itemName
}

// NumLines returns the last line count set with SetNumLines
func (b *Bank) NumLines() uint {
	return b.numLines
}

// ChipName returns the name of the GPIO chip, or "" while the device is pending
func (b *Bank) ChipName() string {
	return b.chipName
}

// DevPath returns the path of the chip's device node, or "" while the device is pending
func (b *Bank) DevPath() string {
	return b.devPath
}

func lineDir(offset uint) string {
	return fmt.Sprintf("line%d", offset)
}

func hogDir(offset uint) string {
	return lineDir(offset) + "/hog"
}

func statusAttr(offset uint, attr string) string {
	return fmt.Sprintf("sim_gpio%d/%s", offset, attr)
}

// SetLabel sets the label of the chip
func (b *Bank) SetLabel(label string) error {
	if err := b.dev.checkPending("set label"); err != nil {
		return err
	}

	if err := b.cfsDir.WriteAttr("label", label); err != nil {
		return ioError("set label", err)
	}
	return nil
}

// SetNumLines sets the number of lines of the chip
func (b *Bank) SetNumLines(n uint) error {
	if err := b.dev.checkPending("set num_lines"); err != nil {
		return err
	}

	if err := b.cfsDir.WriteAttr("num_lines", strconv.FormatUint(uint64(n), 10)); err != nil {
		return ioError("set num_lines", err)
	}
	b.numLines = n

	return nil
}

// SetLineName names a line. An empty name clears it.
func (b *Bank) SetLineName(offset uint, name string) error {
	if err := b.dev.checkPending("set line name"); err != nil {
		return err
	}

	line := lineDir(offset)
	if err := dirfs.EnsureDir(b.cfsDir, line); err != nil {
		return ioError("create line", err)
	}

	if err := b.cfsDir.WriteAttr(path.Join(line, "name"), name); err != nil {
		return ioError("set line name", err)
	}
	return nil
}

// HogLine makes the kernel claim a line as consumer name with the given direction
func (b *Bank) HogLine(offset uint, name string, direction HogDirection) error {
	dir, ok := hogDirectionNames[direction]
	if !ok {
		return newError(ErrorInvalidArgument, "hog line", unknownValue(direction.String()))
	}

	if err := b.dev.checkPending("hog line"); err != nil {
		return err
	}

	if err := dirfs.EnsureDir(b.cfsDir, lineDir(offset)); err != nil {
		return ioError("create line", err)
	}
	hog := hogDir(offset)
	if err := dirfs.EnsureDir(b.cfsDir, hog); err != nil {
		return ioError("create hog", err)
	}

	/* The name goes first so a direction is never set without one */
	if err := b.cfsDir.WriteAttr(path.Join(hog, "name"), name); err != nil {
		return ioError("set hog name", err)
	}
	if err := b.cfsDir.WriteAttr(path.Join(hog, "direction"), dir); err != nil {
		return ioError("set hog direction", err)
	}

	return nil
}

// ClearHog removes the hog from a line
func (b *Bank) ClearHog(offset uint) error {
	if err := b.cfsDir.RemoveDir(hogDir(offset)); err != nil {
		return ioError("clear hog", err)
	}
	return nil
}

func (b *Bank) activate() error {
	chipName, err := b.cfsDir.ReadAttr("chip_name")
	if err != nil {
		return ioError("read chip_name", err)
	}

	sysDir, err := b.dev.sysDir.OpenDir(chipName)
	if err != nil {
		return ioError("open chip status", err)
	}

	b.chipName = chipName
	b.devPath = path.Join(b.dev.ctx.devDir, chipName)
	b.sysDir = sysDir

	return nil
}

func (b *Bank) deactivate() {
	b.chipName = ""
	b.devPath = ""

	if b.sysDir != nil {
		b.sysDir.Close()
		b.sysDir = nil
	}
}

func (b *Bank) readStatus(op string, offset uint, attr string) (string, error) {
	if err := b.dev.checkLive(op); err != nil {
		return "", err
	}

	v, err := b.sysDir.ReadAttr(statusAttr(offset, attr))
	if err != nil {
		return "", ioError(op, err)
	}
	return v, nil
}

// Value returns the level of a line: 0 or 1
func (b *Bank) Value(offset uint) (int, error) {
	v, err := b.readStatus("get value", offset, "value")
	if err != nil {
		return 0, err
	}

	if len(v) > 0 {
		switch v[0] {
		case '0':
			return 0, nil
		case '1':
			return 1, nil
		}
	}

	return 0, newError(ErrorProtocolViolation, "get value", unknownValue(v))
}

// Pull returns the simulated bias of a line
func (b *Bank) Pull(offset uint) (Pull, error) {
	v, err := b.readStatus("get pull", offset, "pull")
	if err != nil {
		return 0, err
	}

	p, err := ParsePull(v)
	if err != nil {
		return 0, newError(ErrorProtocolViolation, "get pull", unknownValue(v))
	}
	return p, nil
}

// SetPull sets the simulated bias of a line, which drives its level while it is an input
func (b *Bank) SetPull(offset uint, pull Pull) error {
	if err := b.dev.checkLive("set pull"); err != nil {
		return err
	}

	name, ok := pullNames[pull]
	if !ok {
		return newError(ErrorInvalidArgument, "set pull", unknownValue(pull.String()))
	}

	if err := b.sysDir.WriteAttr(statusAttr(offset, "pull"), name); err != nil {
		return ioError("set pull", err)
	}
	return nil
}
