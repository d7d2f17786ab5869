package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// LoadSites reads the batch sites file. Each site carries its own
// state file; the destination chat stays the one from the
// environment.
func LoadSites(path string) ([]Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, confErrf("read sites file: %v", err)
	}

	var parsed sitesFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, confErrf("parse sites file %s: %v", path, err)
	}

	if len(parsed.Sites) == 0 {
		return nil, confErrf("sites file %s lists no sites", path)
	}

	for i := range parsed.Sites {
		parsed.Sites[i].applyDefaults()
	}

	return parsed.Sites, nil
}
