// Package hostenv implements the host checks and mount handling needed before
// gpio-sim can be configured: kernel release, driver module state, the configfs
// mount point and the platform device directory in sysfs.
package hostenv

import (
	"os"

	"github.com/BertoldVdb/gpiosim/dirfs"
	"github.com/sirupsen/logrus"
)

// ModuleName is the name of the kernel module providing the simulator
const ModuleName = "gpio-sim"

// Host describes where to find the host facilities. The zero value is not usable, use New.
type Host struct {
	ProcMounts  string
	ProcModules string
	ModulesDir  string
	StatusRoot  string
	// TempDir is where a configfs mount point is created if none exists. Empty means os.TempDir().
	TempDir string
	// Modprobe is the command used to load the module. Empty disables loading.
	Modprobe string

	Log *logrus.Entry
}

// New returns a Host using the standard locations
func New(log *logrus.Entry) *Host {
	return &Host{
		ProcMounts:  "/proc/mounts",
		ProcModules: "/proc/modules",
		ModulesDir:  "/lib/modules",
		StatusRoot:  "/sys/devices/platform",
		Modprobe:    "modprobe",
		Log:         log,
	}
}

// OpenStatusRoot opens the sysfs directory holding the simulated platform devices
func (h *Host) OpenStatusRoot() (dirfs.Dir, error) {
	return dirfs.OpenOS(h.StatusRoot)
}

func (h *Host) findConfigfs() (string, error) {
	f, err := os.Open(h.ProcMounts)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return FindMount(f, "configfs")
}

func (h *Host) moduleState() (ModuleState, error) {
	f, err := os.Open(h.ProcModules)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return FindModule(f, ModuleName)
}

func (h *Host) isBuiltin(release string) bool {
	f, err := os.Open(h.ModulesDir + "/" + release + "/modules.builtin")
	if err != nil {
		return false
	}
	defer f.Close()

	builtin, err := IsBuiltin(f, ModuleName)
	return err == nil && builtin
}
