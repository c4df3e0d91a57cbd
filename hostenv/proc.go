package hostenv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrorUnsupported is returned when the host cannot run gpio-sim
	ErrorUnsupported = errors.New("host does not support gpio-sim")
	// ErrorNotMounted is returned when no mount of the requested type exists
	ErrorNotMounted = errors.New("filesystem not mounted")
	// ErrorModuleNotFound is returned when the module is neither loaded nor built in
	ErrorModuleNotFound = errors.New("module not found")
)

// unescapeMount decodes the octal escapes (\040 for space, etc) used in /proc/mounts
func unescapeMount(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FindMount returns the mount point of the first filesystem of type fstype listed
// in a mount table in /proc/mounts format
func FindMount(r io.Reader, fstype string) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		words := strings.Fields(scanner.Text())
		if len(words) >= 3 && words[2] == fstype {
			return unescapeMount(words[1]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("%w: %s", ErrorNotMounted, fstype)
}

// ModuleState is the state of a loadable module as listed in /proc/modules
type ModuleState string

const (
	ModuleLive      ModuleState = "Live"
	ModuleLoading   ModuleState = "Loading"
	ModuleUnloading ModuleState = "Unloading"
)

// FindModule returns the state of module in a table in /proc/modules format.
// Dashes and underscores in the name are equivalent.
func FindModule(r io.Reader, module string) (ModuleState, error) {
	module = strings.ReplaceAll(module, "-", "_")

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		words := strings.Fields(scanner.Text())
		if len(words) >= 5 && words[0] == module {
			return ModuleState(words[4]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("%w: %s", ErrorModuleNotFound, module)
}

// IsBuiltin returns true if a modules.builtin listing contains module
func IsBuiltin(r io.Reader, module string) (bool, error) {
	want := strings.ReplaceAll(module, "_", "-") + ".ko"

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		base := line[strings.LastIndex(line, "/")+1:]
		if strings.ReplaceAll(base, "_", "-") == want {
			return true, nil
		}
	}

	return false, scanner.Err()
}

// usable returns nil when the module can serve requests in state s
func (s ModuleState) usable() error {
	switch s {
	case ModuleLive, ModuleLoading:
		return nil
	}
	return fmt.Errorf("%w: module is %s", ErrorUnsupported, strings.ToLower(string(s)))
}
