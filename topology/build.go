package topology

import (
	"github.com/BertoldVdb/gpiosim/gpiosim"
)

// Sim holds the objects created by Build
type Sim struct {
	Devices []*gpiosim.Device
	// Banks holds the banks of each device, indexed like Devices
	Banks [][]*gpiosim.Bank
}

// Build creates every device and bank of the description on ctx and activates
// the live devices. If anything fails, everything created so far is released.
func (t *Topology) Build(ctx *gpiosim.Context) (*Sim, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	s := &Sim{}
	for _, d := range t.Devices {
		if err := s.buildDevice(ctx, d); err != nil {
			s.Release()
			return nil, err
		}
	}

	for i, d := range t.Devices {
		if d.Live != nil && !*d.Live {
			continue
		}
		if err := s.Devices[i].Activate(); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

func (s *Sim) buildDevice(ctx *gpiosim.Context, d Device) error {
	dev, err := ctx.NewDevice(d.Name)
	if err != nil {
		return err
	}
	s.Devices = append(s.Devices, dev)
	s.Banks = append(s.Banks, nil)
	idx := len(s.Devices) - 1

	for _, b := range d.Banks {
		bank, err := dev.NewBank(b.Name)
		if err != nil {
			return err
		}
		s.Banks[idx] = append(s.Banks[idx], bank)

		if err := configureBank(bank, b); err != nil {
			return err
		}
	}

	return nil
}

func configureBank(bank *gpiosim.Bank, b Bank) error {
	if b.Label != "" {
		if err := bank.SetLabel(b.Label); err != nil {
			return err
		}
	}
	if err := bank.SetNumLines(b.NumLines); err != nil {
		return err
	}

	for _, l := range b.Lines {
		if l.Name != "" {
			if err := bank.SetLineName(l.Offset, l.Name); err != nil {
				return err
			}
		}
		if l.Hog != nil {
			dir, err := gpiosim.ParseHogDirection(l.Hog.Direction)
			if err != nil {
				return err
			}
			if err := bank.HogLine(l.Offset, l.Hog.Name, dir); err != nil {
				return err
			}
		}
	}

	return nil
}

// Bank returns the bank with the given configfs name, or nil
func (s *Sim) Bank(name string) *gpiosim.Bank {
	for _, banks := range s.Banks {
		for _, b := range banks {
			if b.Name() == name {
				return b
			}
		}
	}
	return nil
}

// Release destroys all banks and devices, deactivating live devices
func (s *Sim) Release() {
	for i := len(s.Devices) - 1; i >= 0; i-- {
		dev := s.Devices[i]
		if dev.IsLive() {
			if err := dev.Deactivate(); err != nil {
				dev.Log().WithError(err).Warn("Failed to deactivate device before release")
			}
		}

		banks := s.Banks[i]
		for j := len(banks) - 1; j >= 0; j-- {
			banks[j].Release()
		}
		dev.Release()
	}

	s.Devices = nil
	s.Banks = nil
}
