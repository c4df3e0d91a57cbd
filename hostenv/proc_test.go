package hostenv

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mounts = `sysfs /sys sysfs rw,nosuid,nodev,noexec,relatime 0 0
proc /proc proc rw,nosuid,nodev,noexec,relatime 0 0
configfs /mnt/my\040config configfs rw,relatime 0 0
configfs /sys/kernel/config configfs rw,relatime 0 0
`

func TestFindMount(t *testing.T) {
	mnt, err := FindMount(strings.NewReader(mounts), "configfs")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/my config", mnt)

	mnt, err = FindMount(strings.NewReader(mounts), "sysfs")
	require.NoError(t, err)
	assert.Equal(t, "/sys", mnt)

	_, err = FindMount(strings.NewReader(mounts), "debugfs")
	assert.True(t, errors.Is(err, ErrorNotMounted))
}

func TestUnescapeMount(t *testing.T) {
	assert.Equal(t, "/plain", unescapeMount("/plain"))
	assert.Equal(t, "/a b", unescapeMount(`/a\040b`))
	assert.Equal(t, "/tab\t", unescapeMount(`/tab\011`))
	assert.Equal(t, `/bad\09`, unescapeMount(`/bad\09`))
}

const modules = `gpio_mockup 16384 0 - Live 0x0000000000000000
gpio_sim 24576 1 - Loading 0x0000000000000000
i2c_dev 28672 0 - Unloading 0x0000000000000000
`

func TestFindModule(t *testing.T) {
	state, err := FindModule(strings.NewReader(modules), "gpio-sim")
	require.NoError(t, err)
	assert.Equal(t, ModuleLoading, state)
	assert.NoError(t, state.usable())

	state, err = FindModule(strings.NewReader(modules), "i2c-dev")
	require.NoError(t, err)
	assert.True(t, errors.Is(state.usable(), ErrorUnsupported))

	_, err = FindModule(strings.NewReader(modules), "spidev")
	assert.True(t, errors.Is(err, ErrorModuleNotFound))
}

func TestIsBuiltin(t *testing.T) {
	listing := "kernel/drivers/gpio/gpio-mockup.ko\nkernel/drivers/gpio/gpio-sim.ko\n"

	builtin, err := IsBuiltin(strings.NewReader(listing), ModuleName)
	require.NoError(t, err)
	assert.True(t, builtin)

	builtin, err = IsBuiltin(strings.NewReader(listing), "gpio_aggregator")
	require.NoError(t, err)
	assert.False(t, builtin)
}

func TestKernelVersion(t *testing.T) {
	v, err := ParseKernelVersion("6.1.0-13-amd64")
	require.NoError(t, err)
	assert.Equal(t, KernelVersion{6, 1, 0}, v)

	_, err = ParseKernelVersion("5.19-rc1")
	assert.True(t, errors.Is(err, ErrorUnsupported))

	assert.NoError(t, CheckKernelRelease("5.17.0"))
	assert.NoError(t, CheckKernelRelease("6.8.12-generic"))
	assert.True(t, errors.Is(CheckKernelRelease("5.16.20"), ErrorUnsupported))
	assert.True(t, errors.Is(CheckKernelRelease("4.19.300"), ErrorUnsupported))

	assert.True(t, KernelVersion{5, 16, 999}.Less(KernelVersion{5, 17, 0}))
}
