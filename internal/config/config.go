// Package config loads the detector and aggregator tunables from YAML
// files. Transport and database settings come from the environment;
// this package covers the structured, operator-edited surface.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when fields are absent from the config file.
const (
	DefaultProbeTimeout    = 5 * time.Second
	DefaultFailForMajor    = 3
	DefaultOKForRecovery   = 2
	DefaultStatePath       = "carrierwatch-state.db"
	DefaultWindow          = 10 * time.Minute
	DefaultDebounce        = 90 * time.Second
	DefaultSummaryInterval = 60 * time.Second
	DefaultRegionWeight    = 1.0
)

// Duration wraps time.Duration so YAML values can be written as "90s"
// or "10m".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Detector is the detector node's configuration file.
type Detector struct {
	// NodeID identifies this observing node. Required.
	NodeID string `yaml:"node_id"`

	// Region is a free-form label for where this node sits.
	Region string `yaml:"region"`

	// State is the node's geographic code (e.g. "CA") reported to the
	// aggregator.
	State string `yaml:"state"`

	// RegionWeight scales this node's contribution to aggregate
	// confidence. Defaults to 1.
	RegionWeight float64 `yaml:"region_weight"`

	// ProviderHint names the node's own uplink provider, if known.
	ProviderHint string `yaml:"provider_hint"`

	// ProbeTimeout bounds each individual probe.
	ProbeTimeout Duration `yaml:"probe_timeout"`

	// FailForMajor is the consecutive failing runs required before
	// MAJOR_OUTAGE is confirmed.
	FailForMajor int `yaml:"fail_for_major"`

	// OKForRecovery is the consecutive healthy runs required before
	// RECOVERED is emitted.
	OKForRecovery int `yaml:"ok_for_recovery"`

	// StatePath is the sqlite file holding persisted provider state.
	StatePath string `yaml:"state_path"`

	// ControlProbes are known-good URLs used only to judge the node's
	// own connectivity.
	ControlProbes []string `yaml:"control_probes"`

	// ProviderFiles are the YAML provider-definition lists to load.
	ProviderFiles []string `yaml:"provider_files"`
}

// Aggregator is the aggregator's configuration file.
type Aggregator struct {
	// Window is how far back a node report may lie and still count.
	Window Duration `yaml:"window"`

	// Debounce gates upward scope transitions.
	Debounce Duration `yaml:"debounce"`

	// NationwideStatesMin, NationwideNodesMin and StateMin are the
	// scope classification thresholds.
	NationwideStatesMin int `yaml:"nationwide_states_min"`
	NationwideNodesMin  int `yaml:"nationwide_nodes_min"`
	StateMin            int `yaml:"state_min"`

	// SummaryInterval controls how often the summary event is emitted.
	SummaryInterval Duration `yaml:"summary_interval"`
}

// LoadDetector reads and validates a detector configuration file.
func LoadDetector(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Detector
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.NodeID == "" {
		return nil, fmt.Errorf("node_id is required")
	}
	if len(cfg.ProviderFiles) == 0 {
		return nil, fmt.Errorf("at least one provider file is required")
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = Duration(DefaultProbeTimeout)
	}
	if cfg.FailForMajor <= 0 {
		cfg.FailForMajor = DefaultFailForMajor
	}
	if cfg.OKForRecovery <= 0 {
		cfg.OKForRecovery = DefaultOKForRecovery
	}
	if cfg.StatePath == "" {
		cfg.StatePath = DefaultStatePath
	}
	if cfg.RegionWeight <= 0 {
		cfg.RegionWeight = DefaultRegionWeight
	}
	return &cfg, nil
}

// LoadAggregator reads and validates an aggregator configuration file.
func LoadAggregator(path string) (*Aggregator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Aggregator
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero-valued aggregator fields.
func (c *Aggregator) ApplyDefaults() {
	if c.Window <= 0 {
		c.Window = Duration(DefaultWindow)
	}
	if c.Debounce <= 0 {
		c.Debounce = Duration(DefaultDebounce)
	}
	if c.NationwideStatesMin <= 0 {
		c.NationwideStatesMin = 3
	}
	if c.NationwideNodesMin <= 0 {
		c.NationwideNodesMin = 5
	}
	if c.StateMin <= 0 {
		c.StateMin = 2
	}
	if c.SummaryInterval <= 0 {
		c.SummaryInterval = Duration(DefaultSummaryInterval)
	}
}
