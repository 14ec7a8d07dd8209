package target

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionFile mirrors the YAML file structure.
type definitionFile struct {
	Targets []definitionEntry `yaml:"targets"`
}

// definitionEntry is one target definition in YAML.
type definitionEntry struct {
	Name        string   `yaml:"name"`
	Width       int      `yaml:"width"`
	TakenBit    uint8    `yaml:"taken_bit"`
	NotTakenBit uint8    `yaml:"not_taken_bit"`
	Branches    []string `yaml:"branches"`
}

// Load merges the definitions in a YAML file into the table. Entries
// with a known name replace the built-in; new names are added. The table
// is untouched when any entry fails validation.
func (t *Table) Load(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("target definitions: %w", err)
	}
	defs, err := Parse(content)
	if err != nil {
		return fmt.Errorf("target definitions %s: %w", path, err)
	}
	for _, def := range defs {
		t.defs[def.Name] = def
	}
	return nil
}

// Parse decodes and validates YAML target definitions.
func Parse(content []byte) ([]Definition, error) {
	var df definitionFile
	if err := yaml.Unmarshal(content, &df); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	defs := make([]Definition, 0, len(df.Targets))
	for _, entry := range df.Targets {
		def := Definition{
			Name:        entry.Name,
			Width:       entry.Width,
			TakenBit:    entry.TakenBit,
			NotTakenBit: entry.NotTakenBit,
			Branches:    entry.Branches,
		}
		if err := validate(def); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
