package config

import (
	"fmt"
	"maps"
	"strings"
)

// SiteConfig holds settings applied to requests for one host.
type SiteConfig struct {
	// Extensions replaces the accepted href suffixes.
	Extensions []string `yaml:"extensions,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are added to requests to the page host. Redirects to other
	// hosts do not carry them.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UnsupportedLinks is "abort" or "skip".
	UnsupportedLinks string `yaml:"unsupportedLinks,omitempty"`
}

// File is the structure of the YAML config file.
type File struct {
	// Sites maps a host, with port if the page URL has one, to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless a site entry overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// Validate checks the policy values in the file.
func (cf *File) Validate() error {
	if err := validatePolicy(cf.Defaults.UnsupportedLinks); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for host, site := range cf.Sites {
		if err := validatePolicy(site.UnsupportedLinks); err != nil {
			return fmt.Errorf("sites.%s: %w", host, err)
		}
	}
	return nil
}

func validatePolicy(p string) error {
	switch p {
	case "", "abort", "skip":
		return nil
	default:
		return ErrInvalidUnsupportedLinks
	}
}

// GetSiteConfig merges the entry for host over the defaults. Host lookup is
// case-insensitive. Headers are merged key by key; every other field
// replaces the default when set.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.Sites[host]
	if !ok {
		for k, v := range cf.Sites {
			if strings.EqualFold(k, host) {
				site, ok = v, true
				break
			}
		}
	}
	if !ok {
		return result
	}

	if len(site.Extensions) > 0 {
		result.Extensions = site.Extensions
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.UnsupportedLinks != "" {
		result.UnsupportedLinks = site.UnsupportedLinks
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}
