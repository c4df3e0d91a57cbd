package hostenv

import (
	"fmt"
)

// KernelVersion is a parsed kernel release
type KernelVersion struct {
	Major, Minor, Patch uint
}

// MinKernelVersion is the first release shipping the gpio-sim driver
var MinKernelVersion = KernelVersion{5, 17, 0}

func (v KernelVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v KernelVersion) code() uint {
	patch := v.Patch
	if patch > 255 {
		patch = 255
	}
	return v.Major<<16 | v.Minor<<8 | patch
}

// Less returns true if v is an older release than o
func (v KernelVersion) Less(o KernelVersion) bool {
	return v.code() < o.code()
}

// ParseKernelVersion parses the leading major.minor.patch of a release string such as "6.1.0-13-amd64"
func ParseKernelVersion(release string) (KernelVersion, error) {
	var v KernelVersion

	n, err := fmt.Sscanf(release, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil || n != 3 {
		return v, fmt.Errorf("%w: cannot parse kernel release %q", ErrorUnsupported, release)
	}

	return v, nil
}

// CheckKernelRelease fails if release is older than MinKernelVersion
func CheckKernelRelease(release string) error {
	v, err := ParseKernelVersion(release)
	if err != nil {
		return err
	}

	if v.Less(MinKernelVersion) {
		return fmt.Errorf("%w: kernel %s is older than %s", ErrorUnsupported, v, MinKernelVersion)
	}

	return nil
}
