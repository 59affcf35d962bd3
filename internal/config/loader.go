package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from defaults, a YAML file and the environment.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader reading GRIDTRAY_* variables.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "GRIDTRAY",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file to read. A missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a check run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load applies defaults, then the file, then the environment, then validators.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return applyEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix, os.LookupEnv)
}

// applyEnv walks struct fields carrying an env tag. Nested structs extend the
// prefix: Server.Addr reads GRIDTRAY_SERVER_ADDR. Unset and empty variables
// leave the field alone.
func applyEnv(v reflect.Value, prefix string, lookup func(string) (string, bool)) error {
	t := v.Type()
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "_" + tag
		field := v.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field, key, lookup); err != nil {
				return err
			}
			continue
		}

		raw, ok := lookup(key)
		if !ok || raw == "" || !field.CanSet() {
			continue
		}
		parsed, err := parseEnvValue(field.Type(), raw)
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
		field.Set(parsed)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// parseEnvValue converts raw to typ. Only the kinds Config uses are accepted;
// string slices are comma separated.
func parseEnvValue(typ reflect.Type, raw string) (reflect.Value, error) {
	out := reflect.New(typ).Elem()
	switch {
	case typ == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return out, err
		}
		out.SetInt(int64(d))
	case typ.Kind() == reflect.String:
		out.SetString(raw)
	case typ.Kind() == reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return out, err
		}
		out.SetInt(int64(n))
	case typ.Kind() == reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return out, err
		}
		out.SetFloat(f)
	case typ.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return out, err
		}
		out.SetBool(b)
	case typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.String:
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		out.Set(reflect.ValueOf(parts).Convert(typ))
	default:
		return out, fmt.Errorf("unsupported type %s", typ)
	}
	return out, nil
}

// Load reads path (optional) with the default prefix and validates the result.
func Load(path string) (*Config, error) {
	return NewLoader().
		WithConfigPath(path).
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
}
