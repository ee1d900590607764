package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration failures.
var (
	ErrBadInstancesJSON = errors.New("config: invalid SYNCTHING_INSTANCES JSON")
	ErrEmptyInstances   = errors.New("config: SYNCTHING_INSTANCES must be a non-empty JSON object")
	ErrBadInstanceEntry = errors.New("config: instance config must be a JSON object")
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load builds the configuration: defaults, then the optional YAML file at
// path (with environment variable expansion), then environment variables on
// top. The instance set is resolved last so that SYNCTHING_INSTANCES
// overrides any YAML instance map.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		expanded, err := expandEnv(raw)
		if err != nil {
			return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
		}
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if err := cfg.resolveInstances(); err != nil {
		return nil, err
	}

	cfg.defaults()
	return &cfg, nil
}

// resolveInstances produces the final instance map. SYNCTHING_INSTANCES, when
// set and non-empty, replaces any YAML-declared instances; otherwise YAML
// instances are kept; otherwise a single implicit "default" instance is built
// from URL and APIKey.
func (c *Config) resolveInstances() error {
	if raw := strings.TrimSpace(c.InstancesJSON); raw != "" {
		parsed, err := parseInstancesJSON(raw)
		if err != nil {
			return err
		}
		c.Instances = parsed
		return nil
	}

	if len(c.Instances) > 0 {
		for name, inst := range c.Instances {
			if inst.URL == "" {
				inst.URL = DefaultURL
				c.Instances[name] = inst
			}
		}
		return nil
	}

	url := c.URL
	if url == "" {
		url = DefaultURL
	}
	c.Instances = map[string]Instance{
		"default": {URL: url, APIKey: c.APIKey},
	}
	return nil
}

// parseInstancesJSON validates and decodes the SYNCTHING_INSTANCES object.
// Each entry must itself be an object; unknown keys inside entries are
// ignored so that the variable stays forward compatible.
func parseInstancesJSON(raw string) (map[string]Instance, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInstancesJSON, err)
	}
	if len(outer) == 0 {
		return nil, ErrEmptyInstances
	}

	instances := make(map[string]Instance, len(outer))
	for name, entry := range outer {
		var probe any
		if err := json.Unmarshal(entry, &probe); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadInstancesJSON, err)
		}
		if _, ok := probe.(map[string]any); !ok {
			return nil, fmt.Errorf("%w: instance %q", ErrBadInstanceEntry, name)
		}
		var inst Instance
		if err := json.Unmarshal(entry, &inst); err != nil {
			return nil, fmt.Errorf("%w: instance %q: %v", ErrBadInstancesJSON, name, err)
		}
		if inst.URL == "" {
			inst.URL = DefaultURL
		}
		instances[name] = inst
	}
	return instances, nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables (no default, no env value).
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil
		defaultVal := ""
		if hasDefault {
			defaultVal = string(subs[2])
		}

		value, ok := os.LookupEnv(name)
		if ok {
			return []byte(value)
		}

		if hasDefault {
			return []byte(defaultVal)
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}
