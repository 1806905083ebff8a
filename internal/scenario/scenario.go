// Package scenario defines climate scenario identifiers and their manifest.
package scenario

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Present is the implicit present-climate scenario, always processed.
const Present = "present"

// Scenario names one future climate projection: a general circulation
// model run under an emissions pathway for a time period.
type Scenario struct {
	Name   string `yaml:"name"`
	GCM    string `yaml:"gcm"`
	RCP    string `yaml:"rcp"`
	Period string `yaml:"period"`
}

// Manifest is the YAML file listing the future scenarios of a study.
type Manifest struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load reads a scenario manifest. Scenario names must be unique and must
// not shadow the implicit present scenario.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "scenario: parse manifest %s", path)
	}

	seen := make(map[string]struct{}, len(m.Scenarios))
	for _, s := range m.Scenarios {
		if s.Name == "" {
			return nil, eris.Errorf("scenario: manifest %s has an unnamed scenario", path)
		}
		if s.Name == Present {
			return nil, eris.Errorf("scenario: manifest %s redefines %q", path, Present)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, eris.Errorf("scenario: manifest %s repeats %q", path, s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	return &m, nil
}

// Names returns every scenario to process: present first, then the
// manifest's future scenarios in order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Scenarios)+1)
	names = append(names, Present)
	for _, s := range m.Scenarios {
		names = append(names, s.Name)
	}
	return names
}
