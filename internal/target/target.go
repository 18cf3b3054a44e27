// Package target loads batch extraction targets declared in jabi.toml.
package target

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// DeclarationFile is the default filename for target declarations
const DeclarationFile = "jabi.toml"

// Target declares one extraction job in jabi.toml
type Target struct {
	// Name is the unique name of the target
	Name string `toml:"name"`

	// Input is the class directory or archive to read
	Input string `toml:"input"`

	// Output is the archive path the extraction writes
	Output string `toml:"output"`

	// Codec selects the class codec (optional, extraction defaults apply)
	Codec string `toml:"codec,omitempty"`
}

// Declarations represents the root structure of jabi.toml
type Declarations struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Targets is the flat list of declared targets
	Targets []Target `toml:"target"`
}

// ParseFile parses and validates a jabi.toml file from the given path.
func ParseFile(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var decls Declarations
	if err := toml.Unmarshal(data, &decls); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if decls.Version < 1 {
		decls.Version = 1 // Default to version 1
	}

	if err := decls.Validate(); err != nil {
		return nil, err
	}
	return &decls, nil
}

// Validate checks for the mistakes a batch run cannot tolerate: unnamed
// targets, missing paths, duplicate names, and two targets writing the same
// output.
func (d *Declarations) Validate() error {
	names := make(map[string]bool, len(d.Targets))
	outputs := make(map[string]string, len(d.Targets))

	for i, t := range d.Targets {
		if t.Name == "" {
			return fmt.Errorf("target %d: missing required 'name' field", i+1)
		}
		if t.Input == "" {
			return fmt.Errorf("target %q: missing required 'input' field", t.Name)
		}
		if t.Output == "" {
			return fmt.Errorf("target %q: missing required 'output' field", t.Name)
		}
		if names[t.Name] {
			return fmt.Errorf("duplicate target name %q", t.Name)
		}
		names[t.Name] = true
		if prev, ok := outputs[t.Output]; ok {
			return fmt.Errorf("targets %q and %q declare the same output %q", prev, t.Name, t.Output)
		}
		outputs[t.Output] = t.Name
	}
	return nil
}
