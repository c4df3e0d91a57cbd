/*
Package gpiosim manages simulated GPIO chips provided by the Linux gpio-sim driver.

A Context owns the gpio-sim directory in configfs. Devices are created under the
context and banks under a device. While a device is pending its banks can be given
a line count, a label, line names and hogs. Activating the device makes every bank
a GPIO chip, after which line values and pulls can be accessed through sysfs, but
the topology can no longer change until the device is deactivated again.

Every object is reference counted. Children hold a reference to their parent, so
objects should be released in reverse order of creation:

	ctx, err := gpiosim.Open(nil)
	dev, err := ctx.NewDevice("")
	bank, err := dev.NewBank("")
	bank.SetNumLines(4)
	bank.SetLineName(2, "RESET")
	bank.HogLine(0, "BOOT", gpiosim.HogDirectionOutputHigh)
	dev.Activate()
	value, err := bank.Value(0)
	bank.SetPull(1, gpiosim.PullUp)
	dev.Deactivate()
	bank.Release()
	dev.Release()
	ctx.Release()

Objects are not safe for concurrent use without external locking.
*/
package gpiosim
