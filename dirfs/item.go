package dirfs

import (
	"crypto/rand"
	"errors"
	"math/big"
	"os"
)

const itemNameChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ItemNameLength is the length of generated item names
const ItemNameLength = 12

// RandomName returns a random alphanumeric name of ItemNameLength characters
func RandomName() (string, error) {
	name := make([]byte, ItemNameLength)
	max := big.NewInt(int64(len(itemNameChars)))

	for i := range name {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		name[i] = itemNameChars[idx.Int64()]
	}

	return string(name), nil
}

// MakeItem creates a subdirectory of d and returns its name. When name is empty
// a random one is generated, retrying until it does not collide with an existing
// entry. A given name that already exists is an error matching os.ErrExist.
func MakeItem(d Dir, name string) (string, error) {
	if name != "" {
		if err := d.Mkdir(name); err != nil {
			return "", err
		}
		return name, nil
	}

	for {
		name, err := RandomName()
		if err != nil {
			return "", err
		}

		err = d.Mkdir(name)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
}
