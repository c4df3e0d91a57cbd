// Package topology describes a set of simulated devices in YAML and builds them
// on a gpiosim.Context.
//
//	devices:
//	  - name: fixture
//	    banks:
//	      - label: left
//	        num_lines: 8
//	        lines:
//	          - offset: 3
//	            name: LED0
//	          - offset: 2
//	            hog: {name: piggy, direction: output-low}
package topology

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BertoldVdb/gpiosim/gpiosim"
	"gopkg.in/yaml.v3"
)

// Topology is the root of a description
type Topology struct {
	Devices []Device `yaml:"devices"`
}

// Device describes one simulated device. Live defaults to true.
type Device struct {
	Name  string `yaml:"name,omitempty"`
	Live  *bool  `yaml:"live,omitempty"`
	Banks []Bank `yaml:"banks"`
}

// Bank describes one chip of a device
type Bank struct {
	Name     string `yaml:"name,omitempty"`
	Label    string `yaml:"label,omitempty"`
	NumLines uint   `yaml:"num_lines"`
	Lines    []Line `yaml:"lines,omitempty"`
}

// Line names and/or hogs a single line
type Line struct {
	Offset uint   `yaml:"offset"`
	Name   string `yaml:"name,omitempty"`
	Hog    *Hog   `yaml:"hog,omitempty"`
}

// Hog forces a line to a direction at activation
type Hog struct {
	Name      string `yaml:"name,omitempty"`
	Direction string `yaml:"direction"`
}

// LoadError is returned when a description cannot be used
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse decodes and validates a description. Unknown fields are rejected.
func Parse(data []byte) (*Topology, error) {
	return Load(bytes.NewReader(data))
}

// Load reads a description from r
func Load(r io.Reader) (*Topology, error) {
	var t Topology

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&t)
	if err == nil {
		var extra yaml.Node
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return nil, &LoadError{Message: "expected a single YAML document", Cause: err}
		}
	} else if !errors.Is(err, io.EOF) {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

// LoadFile reads a description from a file
func LoadFile(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to open file", Cause: err}
	}
	defer f.Close()

	t, err := Load(f)
	if le, ok := err.(*LoadError); ok {
		le.File = path
	}
	return t, err
}

// Validate checks the description for errors that would only show up while building
func (t *Topology) Validate() error {
	devices := map[string]bool{}

	for i, d := range t.Devices {
		if d.Name != "" {
			if devices[d.Name] {
				return &LoadError{Message: fmt.Sprintf("device %q defined twice", d.Name)}
			}
			devices[d.Name] = true
		}

		banks := map[string]bool{}
		for j, b := range d.Banks {
			where := fmt.Sprintf("device %d bank %d", i, j)

			if b.Name != "" {
				if banks[b.Name] {
					return &LoadError{Message: fmt.Sprintf("%s: bank %q defined twice", where, b.Name)}
				}
				banks[b.Name] = true
			}

			lines := map[uint]bool{}
			for _, l := range b.Lines {
				if l.Offset >= b.NumLines {
					return &LoadError{Message: fmt.Sprintf("%s: line %d out of range", where, l.Offset)}
				}
				if lines[l.Offset] {
					return &LoadError{Message: fmt.Sprintf("%s: line %d defined twice", where, l.Offset)}
				}
				lines[l.Offset] = true

				if l.Hog != nil {
					if _, err := gpiosim.ParseHogDirection(l.Hog.Direction); err != nil {
						return &LoadError{Message: fmt.Sprintf("%s: line %d", where, l.Offset), Cause: err}
					}
				}
			}
		}
	}

	return nil
}
