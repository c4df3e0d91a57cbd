//go:build !linux

package hostenv

import (
	"github.com/BertoldVdb/gpiosim/dirfs"
)

// CheckKernel always fails, gpio-sim is a linux driver
func (h *Host) CheckKernel() error {
	return ErrorUnsupported
}

// CheckModule always fails, gpio-sim is a linux driver
func (h *Host) CheckModule() error {
	return ErrorUnsupported
}

// Mount always fails, configfs is a linux filesystem
func (h *Host) Mount() (dirfs.Dir, func() error, error) {
	return nil, nil, ErrorUnsupported
}
