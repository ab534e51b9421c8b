// Package config loads runtime configuration from YAML, grounded on the
// pack's widespread use of gopkg.in/yaml.v3 for this purpose (tenzoki-agen,
// kedacore-keda, imKJadhav23-chronos all load config this way).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level shape of agentmesh's config file. YAML's scalar
// model has no native duration type, so the check period is expressed in
// whole seconds and converted via StopWhenCheckPeriod().
type Config struct {
	ListenAddr              string      `yaml:"listen_addr"`
	SnapshotPath            string      `yaml:"snapshot_path"`
	StopWhenCheckPeriodSecs int         `yaml:"stop_when_check_period_seconds"`
	Agents                  []AgentSpec `yaml:"agents"`
}

// AgentSpec names one agent instance to register at startup: Type selects
// the registered factory (e.g. "echo", "counter", "fanout") and Key is the
// instance key within that type. Topics lists the topic types a fanout-style
// agent subscribes to; it's ignored for types that don't publish/subscribe.
type AgentSpec struct {
	Type   string   `yaml:"type"`
	Key    string   `yaml:"key"`
	Topics []string `yaml:"topics,omitempty"`
}

// StopWhenCheckPeriod converts StopWhenCheckPeriodSecs to a time.Duration.
func (c Config) StopWhenCheckPeriod() time.Duration {
	return time.Duration(c.StopWhenCheckPeriodSecs) * time.Second
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		ListenAddr:              ":8901",
		SnapshotPath:            "agentmesh-snapshot.db",
		StopWhenCheckPeriodSecs: 1,
	}
}

// Load reads and parses the YAML file at path, applying Default() for any
// field the file leaves zero-valued. A missing file is not an error; it
// simply yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = Default().ListenAddr
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = Default().SnapshotPath
	}
	if cfg.StopWhenCheckPeriodSecs == 0 {
		cfg.StopWhenCheckPeriodSecs = Default().StopWhenCheckPeriodSecs
	}
	return cfg, nil
}
