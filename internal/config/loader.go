package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name searched in the working and home
// directories.
const DefaultConfigFile = ".url-image-downloader.yaml"

// XDGConfigFile is the file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// LoadConfigFile parses a YAML config file.
// A missing file returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	if err := cf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile returns the first existing config file, searching:
//  1. configPath, if given (no fallback when it is missing)
//  2. ./.url-image-downloader.yaml
//  3. $XDG_CONFIG_HOME/url-image-downloader/config.yaml
//  4. ~/.url-image-downloader.yaml
//
// It returns "" when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
