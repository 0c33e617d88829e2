// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads holotrack configuration from a YAML file overlaid
// with command-line flags.
package config

import (
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/holotrack/internal/skillcheck"
	"github.com/holomush/holotrack/internal/tracking"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// SupportedRulesVersions is the semver constraint a rules version must satisfy.
const SupportedRulesVersions = "^1"

// Config is the holotrack configuration.
type Config struct {
	LogFormat   string            `yaml:"log_format" jsonschema:"enum=json,enum=text"`
	LogLevel    string            `yaml:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Storage     string            `yaml:"storage" jsonschema:"enum=memory,enum=postgres"`
	DatabaseURL string            `yaml:"database_url"`
	MetricsFile string            `yaml:"metrics_file"`
	MetricsAddr string            `yaml:"metrics_addr"` // serve /metrics and health probes while simulating
	RulesFile   string            `yaml:"rules_file"` // standalone rules, replaces the rules block
	Rules       tracking.Rules    `yaml:"rules"`
	SkillCheck  skillcheck.Config `yaml:"skillcheck"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogFormat:  "text",
		LogLevel:   "info",
		Storage:    StorageMemory,
		Rules:      tracking.DefaultRules(),
		SkillCheck: skillcheck.DefaultConfig(),
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-format":   "log_format",
	"log-level":    "log_level",
	"storage":      "storage",
	"database-url": "database_url",
	"metrics-file": "metrics_file",
	"metrics-addr": "metrics_addr",
	"rules-file":   "rules_file",
}

// Load builds a Config from defaults, then the YAML file at path (if any),
// then any flags in fs that were set explicitly. The result is validated.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	if cfg.RulesFile != "" {
		rules, err := LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		cfg.Rules = rules
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadRules reads a standalone rules file. Omitted fields keep their
// default values.
func LoadRules(path string) (tracking.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tracking.Rules{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateRulesSchema(data); err != nil {
		return tracking.Rules{}, oops.With("path", path).Wrap(err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return tracking.Rules{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	rules := tracking.DefaultRules()
	if err := k.UnmarshalWithConf("", &rules, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return tracking.Rules{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateRules(rules); err != nil {
		return tracking.Rules{}, oops.With("path", path).Wrap(err)
	}
	return rules, nil
}

// ValidateRules checks the rules version against SupportedRulesVersions and
// then the rules themselves.
func ValidateRules(r tracking.Rules) error {
	v, err := semver.NewVersion(r.Version)
	if err != nil {
		return oops.Code("RULES_VERSION_INVALID").With("version", r.Version).Wrap(err)
	}
	c, err := semver.NewConstraint(SupportedRulesVersions)
	if err != nil {
		return oops.Code("RULES_VERSION_INVALID").Wrap(err)
	}
	if !c.Check(v) {
		return oops.Code("RULES_VERSION_UNSUPPORTED").
			With("version", r.Version).
			With("supported", SupportedRulesVersions).
			Errorf("rules version %s is not supported", r.Version)
	}
	return r.Validate()
}

// Validate checks the configuration as a whole.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("field", "log_format").Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").With("field", "log_level").Errorf("unknown log_level %q", c.LogLevel)
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").With("field", "database_url").Errorf("postgres storage requires database_url")
		}
	default:
		return oops.Code("CONFIG_INVALID").With("field", "storage").Errorf("storage must be memory or postgres, got %q", c.Storage)
	}
	if err := ValidateRules(c.Rules); err != nil {
		return err
	}
	return c.SkillCheck.Validate()
}
