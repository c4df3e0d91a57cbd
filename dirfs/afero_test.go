package dirfs

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMem(t *testing.T) (afero.Fs, *AferoDir) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/root", 0700))

	d, err := OpenAfero(fs, "/root")
	require.NoError(t, err)
	return fs, d
}

func TestAferoAttrRoundTrip(t *testing.T) {
	fs, d := newMem(t)

	require.NoError(t, d.WriteAttr("label", "chip"))
	raw, err := afero.ReadFile(fs, "/root/label")
	require.NoError(t, err)
	assert.Equal(t, "chip\n", string(raw))

	v, err := d.ReadAttr("label")
	require.NoError(t, err)
	assert.Equal(t, "chip", v)

	/* Only a single trailing newline is trimmed */
	require.NoError(t, afero.WriteFile(fs, "/root/multi", []byte("a\n\n"), 0600))
	v, err = d.ReadAttr("multi")
	require.NoError(t, err)
	assert.Equal(t, "a\n", v)

	_, err = d.ReadAttr("missing")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.Error(t, d.WriteAttr("nodir/attr", "x"))
}

func TestAferoMkdirOpenRemove(t *testing.T) {
	fs, d := newMem(t)

	require.NoError(t, d.Mkdir("item"))
	assert.True(t, errors.Is(d.Mkdir("item"), os.ErrExist))
	assert.Error(t, d.Mkdir("missing/child"))

	sub, err := d.OpenDir("item")
	require.NoError(t, err)
	require.NoError(t, sub.WriteAttr("attr", "1"))
	require.NoError(t, sub.Mkdir("child"))

	err = d.RemoveDir("item")
	assert.True(t, errors.Is(err, syscall.ENOTEMPTY))

	require.NoError(t, sub.RemoveDir("child"))
	require.NoError(t, sub.Close())
	require.NoError(t, d.RemoveDir("item"))

	exists, err := afero.Exists(fs, "/root/item/attr")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = d.OpenDir("item")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestAferoClosed(t *testing.T) {
	_, d := newMem(t)

	require.NoError(t, d.Close())
	assert.True(t, errors.Is(d.Close(), os.ErrClosed))
	assert.True(t, errors.Is(d.Mkdir("x"), os.ErrClosed))
	_, err := d.ReadAttr("x")
	assert.True(t, errors.Is(err, os.ErrClosed))
}

func TestEnsureDir(t *testing.T) {
	fs, d := newMem(t)

	require.NoError(t, EnsureDir(d, "line0"))
	require.NoError(t, EnsureDir(d, "line0"))
	require.NoError(t, EnsureDir(d, "line0/hog"))

	require.NoError(t, fs.Chmod("/root/line0", os.ModeDir|0500))
	err := EnsureDir(d, "line0")
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestMakeItem(t *testing.T) {
	_, d := newMem(t)

	name, err := MakeItem(d, "named")
	require.NoError(t, err)
	assert.Equal(t, "named", name)

	_, err = MakeItem(d, "named")
	assert.True(t, errors.Is(err, os.ErrExist))

	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		name, err := MakeItem(d, "")
		require.NoError(t, err)
		assert.Len(t, name, ItemNameLength)
		assert.Regexp(t, "^[a-zA-Z0-9]+$", name)
		assert.False(t, seen[name])
		seen[name] = true

		require.NoError(t, d.Writable(name))
	}
}
