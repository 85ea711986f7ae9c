package siteimporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blakewilliams/sitehop"
	"gopkg.in/yaml.v3"
)

func LoadJSON(server *sitehop.Server, sitesJSON []byte) error {
	var config Config

	if err := json.Unmarshal(sitesJSON, &config); err != nil {
		return record("json", server, fmt.Errorf("could not unmarshal site config json: %w", err))
	}

	return record("json", server, LoadSites(server, config))
}

func LoadYAML(server *sitehop.Server, sitesYAML []byte) error {
	var config Config

	if err := yaml.Unmarshal(sitesYAML, &config); err != nil {
		return record("yaml", server, fmt.Errorf("could not unmarshal site config yaml: %w", err))
	}

	return record("yaml", server, LoadSites(server, config))
}

func LoadJSONFile(server *sitehop.Server, path string) error {
	sitesJSON, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	if err := LoadJSON(server, sitesJSON); err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	return nil
}

func LoadYAMLFile(server *sitehop.Server, path string) error {
	sitesYAML, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	if err := LoadYAML(server, sitesYAML); err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	return nil
}

// LoadFile picks the decoder from the file extension, defaulting to JSON.
func LoadFile(server *sitehop.Server, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAMLFile(server, path)
	default:
		return LoadJSONFile(server, path)
	}
}
