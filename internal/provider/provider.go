// Package provider loads connectivity-provider definitions from YAML
// list files.
package provider

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Provider categories.
const (
	TypeMobile = "mobile"
	TypeISP    = "isp"
	TypeCloud  = "cloud"
)

// Definition describes one provider to observe. Read-only per run.
type Definition struct {
	// Name is the provider's unique label, used to key persisted state.
	Name string `yaml:"name"`

	// Type is one of: mobile | isp | cloud.
	Type string `yaml:"type"`

	// ProbeURLs are HTTP endpoints attributable to this provider.
	ProbeURLs []string `yaml:"probe_urls"`

	// DNSHosts are hostnames attributable to this provider.
	DNSHosts []string `yaml:"dns_hosts"`
}

// Validate checks a single definition for usability.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("provider has no name")
	}
	switch d.Type {
	case TypeMobile, TypeISP, TypeCloud:
	default:
		return fmt.Errorf("provider %q has unknown type %q", d.Name, d.Type)
	}
	if len(d.ProbeURLs) == 0 && len(d.DNSHosts) == 0 {
		return fmt.Errorf("provider %q has no probe URLs or DNS hosts", d.Name)
	}
	return nil
}

type listFile struct {
	Providers []Definition `yaml:"providers"`
}

// LoadFiles reads provider definitions from the given YAML files.
// Unreadable or malformed files and invalid entries are skipped with a
// warning; they never abort loading of the remaining input. The caller
// decides whether an empty result is fatal.
func LoadFiles(paths []string, log zerolog.Logger) []Definition {
	var defs []Definition
	seen := make(map[string]bool)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable provider list")
			continue
		}

		var file listFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping malformed provider list")
			continue
		}

		for _, def := range file.Providers {
			if err := def.Validate(); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("skipping invalid provider entry")
				continue
			}
			if seen[def.Name] {
				log.Warn().Str("provider", def.Name).Str("path", path).Msg("skipping duplicate provider entry")
				continue
			}
			seen[def.Name] = true
			defs = append(defs, def)
		}
	}

	return defs
}
