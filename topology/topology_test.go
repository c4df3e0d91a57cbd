package topology

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/BertoldVdb/gpiosim/gpiosim"
	"github.com/BertoldVdb/gpiosim/gpiosim/simtest"
	"github.com/BertoldVdb/gpiosim/logrusconfig"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoChips = `
devices:
  - name: fixture
    banks:
      - name: left
        label: left
        num_lines: 8
        lines:
          - offset: 3
            name: LED0
          - offset: 2
            hog: {name: piggy, direction: output-low}
      - name: right
        num_lines: 42
        lines:
          - offset: 7
            name: BUTTON2
            hog: {name: hogster, direction: output-high}
  - name: spare
    live: false
    banks:
      - num_lines: 1
`

func openSim(t *testing.T) (*simtest.Kernel, *gpiosim.Context) {
	k := simtest.New()
	ctx, err := gpiosim.Open(&gpiosim.Options{
		Environment: k,
		Mounter:     k,
		StatusRoot:  k.OpenStatusRoot,
		Logger:      logrusconfig.GetDiscardLogger(),
	})
	require.NoError(t, err)
	return k, ctx
}

func TestParse(t *testing.T) {
	topo, err := Parse([]byte(twoChips))
	require.NoError(t, err)

	require.Len(t, topo.Devices, 2)
	assert.Equal(t, "fixture", topo.Devices[0].Name)
	assert.Nil(t, topo.Devices[0].Live)
	require.Len(t, topo.Devices[0].Banks, 2)
	assert.Equal(t, uint(42), topo.Devices[0].Banks[1].NumLines)
	assert.Equal(t, "output-high", topo.Devices[0].Banks[1].Lines[0].Hog.Direction)
	require.NotNil(t, topo.Devices[1].Live)
	assert.False(t, *topo.Devices[1].Live)

	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Devices)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unknown field": "devices:\n  - banks: []\n    colour: red\n",
		"bad yaml":      "devices: [",
		"out of range":  "devices:\n  - banks:\n      - num_lines: 2\n        lines:\n          - offset: 2\n            name: X\n",
		"twice":         "devices:\n  - banks:\n      - num_lines: 2\n        lines:\n          - {offset: 1, name: A}\n          - {offset: 1, name: B}\n",
		"direction":     "devices:\n  - banks:\n      - num_lines: 2\n        lines:\n          - offset: 1\n            hog: {direction: sideways}\n",
		"device twice":  "devices:\n  - name: a\n  - name: a\n",
		"bank twice":    "devices:\n  - banks:\n      - name: b\n      - name: b\n",
		"two documents": "devices: []\n---\ndevices:\n  - name: lost\n",
	}

	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		var le *LoadError
		assert.True(t, errors.As(err, &le), name)
	}

	_, err := Parse([]byte(cases["direction"]))
	assert.True(t, errors.Is(err, gpiosim.ErrorInvalidArgument))
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(p, []byte(twoChips), 0600))

	topo, err := LoadFile(p)
	require.NoError(t, err)
	assert.Len(t, topo.Devices, 2)

	_, err = LoadFile(p + ".missing")
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, p+".missing", le.File)
}

func TestBuild(t *testing.T) {
	k, ctx := openSim(t)
	defer ctx.Release()

	topo, err := Parse([]byte(twoChips))
	require.NoError(t, err)

	sim, err := topo.Build(ctx)
	require.NoError(t, err)

	require.Len(t, sim.Devices, 2)
	assert.True(t, sim.Devices[0].IsLive())
	assert.False(t, sim.Devices[1].IsLive())

	left := sim.Bank("left")
	right := sim.Bank("right")
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Nil(t, sim.Bank("middle"))
	assert.Equal(t, uint(8), left.NumLines())
	assert.NotEmpty(t, left.ChipName())

	v, err := right.Value(7)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = left.Value(2)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	bp := path.Join(simtest.SubsystemPath, "fixture", "left")
	label, _ := k.Attr(path.Join(bp, "label"))
	assert.Equal(t, "left", label)
	name, _ := k.Attr(path.Join(bp, "line3/name"))
	assert.Equal(t, "LED0", name)

	sim.Release()
	assert.Empty(t, k.Subdirs(simtest.SubsystemPath))
	assert.Equal(t, 2, k.OpenHandles())
}

func TestBuildRollback(t *testing.T) {
	k, ctx := openSim(t)
	defer ctx.Release()

	topo, err := Parse([]byte(twoChips))
	require.NoError(t, err)

	k.FailChipName["right"] = true
	_, err = topo.Build(ctx)
	assert.True(t, errors.Is(err, gpiosim.ErrorIOFailure))
	assert.Empty(t, k.Subdirs(simtest.SubsystemPath))
	assert.Equal(t, 2, k.OpenHandles())

	/* A name collision fails while creating */
	delete(k.FailChipName, "right")
	dev, err := ctx.NewDevice("spare")
	require.NoError(t, err)
	defer dev.Release()

	_, err = topo.Build(ctx)
	assert.True(t, errors.Is(err, gpiosim.ErrorAlreadyExists))
	assert.Equal(t, []string{"spare"}, k.Subdirs(simtest.SubsystemPath))
}

func TestReleaseDeactivateFailure(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	k := simtest.New()
	ctx, err := gpiosim.Open(&gpiosim.Options{
		Environment: k,
		Mounter:     k,
		StatusRoot:  k.OpenStatusRoot,
		Logger:      logrus.NewEntry(logger),
	})
	require.NoError(t, err)
	defer ctx.Release()

	topo, err := Parse([]byte("devices:\n  - name: fixture\n    banks:\n      - num_lines: 1\n"))
	require.NoError(t, err)
	sim, err := topo.Build(ctx)
	require.NoError(t, err)

	/* The driver can no longer find the device */
	require.NoError(t, k.Fs.Remove(path.Join(simtest.SubsystemPath, "fixture", "dev_name")))
	sim.Release()

	found := false
	for _, e := range hook.AllEntries() {
		if e.Message == "Failed to deactivate device before release" {
			found = true
			assert.Equal(t, logrus.WarnLevel, e.Level)
			assert.Equal(t, "fixture", e.Data["device"])
			assert.NotNil(t, e.Data[logrus.ErrorKey])
		}
	}
	assert.True(t, found)
}
